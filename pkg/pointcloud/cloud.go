// Package pointcloud holds the in-memory point cloud shared by every codec.
package pointcloud

import (
	"slices"

	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Gray returns a color with all components set to v.
func Gray(v float64) Color {
	return Color{R: v, G: v, B: v}
}

// ☁️ Cloud is an unordered set of points with optional per-point attributes.
// Attribute slices are either empty or as long as Points.
type Cloud struct {
	Points    []r3.Vec
	Colors    []Color
	Normals   []r3.Vec
	Intensity []float64
}

// Len returns the number of points.
func (c *Cloud) Len() int {
	return len(c.Points)
}

func (c *Cloud) HasColors() bool    { return len(c.Colors) > 0 }
func (c *Cloud) HasNormals() bool   { return len(c.Normals) > 0 }
func (c *Cloud) HasIntensity() bool { return len(c.Intensity) > 0 }

// 🔍 Validate checks that every attribute matches the point count
func (c *Cloud) Validate() error {
	n := len(c.Points)
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return errors.Errorf("%s has %d entries for %d points", name, l, n)
		}
		return nil
	}
	return errors.Join(
		check("colors", len(c.Colors)),
		check("normals", len(c.Normals)),
		check("intensity", len(c.Intensity)),
	)
}

// Clone returns a deep copy.
func (c *Cloud) Clone() *Cloud {
	return &Cloud{
		Points:    slices.Clone(c.Points),
		Colors:    slices.Clone(c.Colors),
		Normals:   slices.Clone(c.Normals),
		Intensity: slices.Clone(c.Intensity),
	}
}

// GrayFromIntensity maps intensities to gray colors normalised by the maximum.
// An all-zero input yields black.
func GrayFromIntensity(values []float64) []Color {
	if len(values) == 0 {
		return nil
	}
	peak := slices.Max(values)
	colors := make([]Color, len(values))
	for i, v := range values {
		if peak > 0 {
			colors[i] = Gray(v / peak)
		}
	}
	return colors
}
