package pointcloud

import (
	"math"

	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a cloud has no points.
var ErrEmpty = errors.Base("point cloud is empty")

// 📐 Summary describes the spatial extent of a cloud
type Summary struct {
	Points   int
	Min      r3.Vec
	Max      r3.Vec
	Size     r3.Vec
	Centroid r3.Vec
	StdDev   r3.Vec
}

// Summarize computes bounds, centroid and per-axis spread.
func Summarize(c *Cloud) (Summary, error) {
	n := c.Len()
	if n == 0 {
		return Summary{}, ErrEmpty
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, p := range c.Points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}

	s := Summary{
		Points: n,
		Min:    r3.Vec{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)},
		Max:    r3.Vec{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)},
	}
	s.Size = r3.Sub(s.Max, s.Min)

	s.Centroid.X, s.StdDev.X = meanStd(xs)
	s.Centroid.Y, s.StdDev.Y = meanStd(ys)
	s.Centroid.Z, s.StdDev.Z = meanStd(zs)
	return s, nil
}

// meanStd returns the mean and population standard deviation.
func meanStd(v []float64) (float64, float64) {
	mean, variance := stat.PopMeanVariance(v, nil)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
