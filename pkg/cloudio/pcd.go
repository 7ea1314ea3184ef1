package cloudio

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"slices"

	"github.com/seqsense/pcgol/pc"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

func init() {
	Register(&PCDCodec{})
}

// ☁️ PCDCodec reads and writes PCL point cloud data through pcgol.
// pcgol decodes ascii, binary and binary_compressed bodies into packed
// little-endian rows which are unpacked here field by field.
type PCDCodec struct{}

func (PCDCodec) Name() string         { return "PCD" }
func (PCDCodec) Extensions() []string { return []string{".pcd"} }

// pcdField locates one field inside a packed row
type pcdField struct {
	offset int
	size   int
	typ    string
}

// fieldLayout maps field names to their position within a row
func fieldLayout(h pc.PointCloudHeader) (map[string]pcdField, int, error) {
	if len(h.Size) != len(h.Fields) || len(h.Type) != len(h.Fields) {
		return nil, 0, errors.Errorf("header has %d fields, %d sizes and %d types", len(h.Fields), len(h.Size), len(h.Type))
	}
	layout := make(map[string]pcdField, len(h.Fields))
	offset := 0
	for i, name := range h.Fields {
		count := 1
		if i < len(h.Count) && h.Count[i] > 0 {
			count = h.Count[i]
		}
		layout[name] = pcdField{offset: offset, size: h.Size[i], typ: h.Type[i]}
		offset += h.Size[i] * count
	}
	return layout, offset, nil
}

func (f pcdField) float(row []byte) float64 {
	b := row[f.offset : f.offset+f.size]
	switch f.typ {
	case "F":
		switch f.size {
		case 4:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case 8:
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	case "U":
		switch f.size {
		case 1:
			return float64(b[0])
		case 2:
			return float64(binary.LittleEndian.Uint16(b))
		case 4:
			return float64(binary.LittleEndian.Uint32(b))
		}
	case "I":
		switch f.size {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(binary.LittleEndian.Uint16(b)))
		case 4:
			return float64(int32(binary.LittleEndian.Uint32(b)))
		}
	}
	return math.NaN()
}

// packed reads an rgb field as 0x00RRGGBB regardless of its declared type
func (f pcdField) packed(row []byte) pointcloud.Color {
	if f.size != 4 {
		return pointcloud.Color{}
	}
	v := binary.LittleEndian.Uint32(row[f.offset : f.offset+4])
	return pointcloud.Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

// 📥 Decode reads x y z and the optional rgb, normal and intensity fields
func (PCDCodec) Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	p, err := pc.Unmarshal(f)
	if err != nil {
		return nil, Info{}, errors.Errorf("reading PCD: %w", err)
	}

	layout, stride, err := fieldLayout(p.PointCloudHeader)
	if err != nil {
		return nil, Info{}, errors.Errorf("reading PCD: %w", err)
	}
	x, okX := layout["x"]
	y, okY := layout["y"]
	z, okZ := layout["z"]
	if !okX || !okY || !okZ {
		return nil, Info{}, errors.Errorf("PCD has no x, y, z fields (fields: %v)", p.Fields)
	}

	n := p.Points
	if len(p.Data) < n*stride {
		return nil, Info{}, errors.Errorf("PCD body holds %d bytes, need %d for %d points", len(p.Data), n*stride, n)
	}

	rgb, hasRGB := layout["rgb"]
	if !hasRGB {
		rgb, hasRGB = layout["rgba"]
	}
	nx, hasNX := layout["normal_x"]
	ny, hasNY := layout["normal_y"]
	nz, hasNZ := layout["normal_z"]
	hasNormals := hasNX && hasNY && hasNZ
	intensity, hasIntensity := layout["intensity"]

	c := &pointcloud.Cloud{Points: make([]r3.Vec, n)}
	if hasRGB {
		c.Colors = make([]pointcloud.Color, n)
	}
	if hasNormals {
		c.Normals = make([]r3.Vec, n)
	}
	if hasIntensity {
		c.Intensity = make([]float64, n)
	}

	for i := range n {
		row := p.Data[i*stride : (i+1)*stride]
		c.Points[i] = r3.Vec{X: x.float(row), Y: y.float(row), Z: z.float(row)}
		if hasRGB {
			c.Colors[i] = rgb.packed(row)
		}
		if hasNormals {
			c.Normals[i] = r3.Vec{X: nx.float(row), Y: ny.float(row), Z: nz.float(row)}
		}
		if hasIntensity {
			c.Intensity[i] = intensity.float(row)
		}
	}
	return c, infoFor(".pcd", c), nil
}

// 📤 Encode writes a binary PCD with float32 fields
func (PCDCodec) Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error {
	fields := []string{"x", "y", "z"}
	withNormals := opts.WriteNormals && c.HasNormals()
	withColors := opts.WriteColors && c.HasColors()
	withIntensity := c.HasIntensity()
	if withNormals {
		fields = append(fields, "normal_x", "normal_y", "normal_z")
	}
	if withColors {
		fields = append(fields, "rgb")
	}
	if withIntensity {
		fields = append(fields, "intensity")
	}

	n := c.Len()
	stride := 4 * len(fields)
	data := make([]byte, 0, n*stride)
	putF := func(v float64) {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(v)))
	}
	for i, p := range c.Points {
		putF(p.X)
		putF(p.Y)
		putF(p.Z)
		if withNormals {
			putF(c.Normals[i].X)
			putF(c.Normals[i].Y)
			putF(c.Normals[i].Z)
		}
		if withColors {
			col := c.Colors[i]
			packed := uint32(toByte(col.R))<<16 | uint32(toByte(col.G))<<8 | uint32(toByte(col.B))
			data = binary.LittleEndian.AppendUint32(data, packed)
		}
		if withIntensity {
			putF(c.Intensity[i])
		}
	}

	p := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version: 0.7,
			Fields:  fields,
			Size:    repeat(4, len(fields)),
			Type:    slices.Repeat([]string{"F"}, len(fields)),
			Count:   repeat(1, len(fields)),
			Width:   n,
			Height:  1,
			Points:  n,
		},
		Data: data,
	}
	if err := pc.Marshal(p, w); err != nil {
		return errors.Errorf("writing PCD: %w", err)
	}
	return nil
}

func repeat(v, n int) []int {
	return slices.Repeat([]int{v}, n)
}
