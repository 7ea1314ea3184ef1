package cloudio

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jblindsay/lidario"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrCompressedLAS is returned for LASzip compressed point data.
var ErrCompressedLAS = errors.Base("compressed LAS (LAZ) point data is not supported")

const (
	lasSignature      = "LASF"
	lasFormatOffset   = 104
	lasCompressedFlag = 0x80
	rgbScale          = 65535.0
)

func init() {
	Register(&LASCodec{})
}

// 🛰️ LASCodec reads uncompressed LAS files through lidario.
// LAZ files are accepted only when their point data is not compressed.
type LASCodec struct{}

func (LASCodec) Name() string         { return "LAS" }
func (LASCodec) Extensions() []string { return []string{".las", ".laz"} }

// sniffLAS checks the signature and the compression bit of the point format
func sniffLAS(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header := make([]byte, lasFormatOffset+1)
	if _, err := io.ReadFull(f, header); err != nil {
		return errors.Errorf("reading LAS header: %w", err)
	}
	if string(header[:4]) != lasSignature {
		return errors.Errorf("not a LAS file: signature %q", header[:4])
	}
	if header[lasFormatOffset]&lasCompressedFlag != 0 {
		return errors.Errorf("%w: install a LAZ decompressor and convert to LAS first", ErrCompressedLAS)
	}
	return nil
}

// hasRGB reports whether a point data format carries colour
func hasRGB(format byte) bool {
	switch format {
	case 2, 3, 5, 7, 8:
		return true
	}
	return false
}

// 📥 Decode reads XYZ, intensity and RGB when the point format has it
func (LASCodec) Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error) {
	if err := sniffLAS(path); err != nil {
		return nil, Info{}, err
	}

	lf, err := lidario.NewLasFile(path, "r")
	if err != nil {
		return nil, Info{}, errors.Errorf("reading LAS: %w", err)
	}
	defer lf.Close()

	n := int(lf.Header.NumberPoints)
	withRGB := hasRGB(lf.Header.PointFormatID)

	c := &pointcloud.Cloud{
		Points:    make([]r3.Vec, n),
		Intensity: make([]float64, n),
	}
	if withRGB {
		c.Colors = make([]pointcloud.Color, n)
	}

	for i := range n {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, Info{}, errors.Errorf("reading point %d: %w", i, err)
		}
		pd := p.PointData()
		c.Points[i] = r3.Vec{X: pd.X, Y: pd.Y, Z: pd.Z}
		c.Intensity[i] = float64(pd.Intensity)
		if withRGB {
			rgb := p.RgbData()
			c.Colors[i] = pointcloud.Color{
				R: float64(rgb.Red) / rgbScale,
				G: float64(rgb.Green) / rgbScale,
				B: float64(rgb.Blue) / rgbScale,
			}
		}
	}
	if !withRGB {
		c.Colors = pointcloud.GrayFromIntensity(c.Intensity)
	}

	info := infoFor(Ext(path), c)
	info.LASVersion = fmt.Sprintf("%d.%d", lf.Header.VersionMajor, lf.Header.VersionMinor)
	return c, info, nil
}

func (LASCodec) Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error {
	return errors.Errorf("%w: LAS", ErrReadOnly)
}
