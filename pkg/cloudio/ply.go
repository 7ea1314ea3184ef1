package cloudio

import (
	"context"
	"io"
	"os"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

func init() {
	Register(&PLYCodec{})
}

// 🔺 PLYCodec reads and writes PLY vertices through polyform
type PLYCodec struct{}

func (PLYCodec) Name() string         { return "PLY" }
func (PLYCodec) Extensions() []string { return []string{".ply"} }

// 📥 Decode reads the vertex positions, colours and normals of a PLY file
func (PLYCodec) Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	mesh, err := ply.ReadMesh(f)
	if err != nil {
		return nil, Info{}, errors.Errorf("reading PLY: %w", err)
	}

	c := &pointcloud.Cloud{
		Points:  float3Attribute(mesh, modeling.PositionAttribute),
		Normals: float3Attribute(mesh, modeling.NormalAttribute),
	}
	if colors := float3Attribute(mesh, modeling.ColorAttribute); len(colors) > 0 {
		c.Colors = make([]pointcloud.Color, len(colors))
		for i, v := range colors {
			c.Colors[i] = pointcloud.Color{R: v.X, G: v.Y, B: v.Z}
		}
		normalizeColors(c.Colors)
	}
	if err := c.Validate(); err != nil {
		return nil, Info{}, errors.Errorf("inconsistent PLY attributes: %w", err)
	}
	return c, infoFor(".ply", c), nil
}

// 📤 Encode writes c as a point topology PLY, binary unless opts.ASCII
func (PLYCodec) Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error {
	data := map[string][]vector3.Float64{
		modeling.PositionAttribute: toVectors(c.Points),
	}
	if opts.WriteColors && c.HasColors() {
		colors := make([]vector3.Float64, len(c.Colors))
		for i, col := range c.Colors {
			colors[i] = vector3.New(col.R, col.G, col.B)
		}
		data[modeling.ColorAttribute] = colors
	}
	if opts.WriteNormals && c.HasNormals() {
		data[modeling.NormalAttribute] = toVectors(c.Normals)
	}

	mesh := modeling.NewPointCloud(nil, data, nil, nil, nil)

	var err error
	if opts.ASCII {
		err = ply.WriteASCII(w, mesh)
	} else {
		err = ply.WriteBinary(w, mesh)
	}
	if err != nil {
		return errors.Errorf("writing PLY: %w", err)
	}
	return nil
}

// float3Attribute copies a vertex attribute out of mesh, nil when absent
func float3Attribute(mesh *modeling.Mesh, attr string) []r3.Vec {
	if !mesh.HasFloat3Attribute(attr) {
		return nil
	}
	it := mesh.Float3Attribute(attr)
	if it.Len() == 0 {
		return nil
	}
	out := make([]r3.Vec, it.Len())
	for i := range out {
		v := it.At(i)
		out[i] = r3.Vec{X: v.X(), Y: v.Y(), Z: v.Z()}
	}
	return out
}

func toVectors(vs []r3.Vec) []vector3.Float64 {
	out := make([]vector3.Float64, len(vs))
	for i, v := range vs {
		out[i] = vector3.New(v.X, v.Y, v.Z)
	}
	return out
}
