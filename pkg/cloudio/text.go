package cloudio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

func init() {
	Register(&TextCodec{ext: ".pts", colors: true})
	Register(&TextCodec{ext: ".xyz"})
}

// 📄 TextCodec handles whitespace separated X Y Z [I] [R G B] rows.
// Only PTS output carries colours.
type TextCodec struct {
	ext    string
	colors bool
}

func (t *TextCodec) Name() string         { return strings.ToUpper(strings.TrimPrefix(t.ext, ".")) }
func (t *TextCodec) Extensions() []string { return []string{t.ext} }

// 📥 Decode parses a text point file
func (t *TextCodec) Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, cols, err := readRows(f)
	if err != nil {
		return nil, Info{}, err
	}

	c := rowsToCloud(rows, cols)
	info := infoFor(t.ext, c)
	info.Columns = cols
	return c, info, nil
}

// readRows collects numeric rows, skipping comments and a leading count line
func readRows(r io.Reader) ([][]float64, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var rows [][]float64
	cols := 0
	lineNo := 0
	sawCount := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		// PTS files usually open with the point count
		if !sawCount && cols == 0 && len(fields) == 1 {
			if _, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
				sawCount = true
				continue
			}
		}

		if cols == 0 {
			if len(fields) < 3 {
				return nil, 0, errors.Errorf("line %d: need at least X, Y, Z columns, got %d", lineNo, len(fields))
			}
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, 0, errors.Errorf("line %d: expected %d columns, got %d", lineNo, cols, len(fields))
		}

		row := make([]float64, cols)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, 0, errors.Errorf("line %d: column %d: %w", lineNo, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.Errorf("reading points: %w", err)
	}
	return rows, cols, nil
}

func rowsToCloud(rows [][]float64, cols int) *pointcloud.Cloud {
	c := &pointcloud.Cloud{Points: make([]r3.Vec, len(rows))}
	for i, row := range rows {
		c.Points[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}

	switch {
	case cols == 4:
		c.Intensity = make([]float64, len(rows))
		for i, row := range rows {
			c.Intensity[i] = row[3]
		}
		c.Colors = pointcloud.GrayFromIntensity(c.Intensity)
	case cols >= 6:
		start := 3
		if cols == 7 {
			start = 4
			c.Intensity = make([]float64, len(rows))
			for i, row := range rows {
				c.Intensity[i] = row[3]
			}
		}
		c.Colors = make([]pointcloud.Color, len(rows))
		for i, row := range rows {
			c.Colors[i] = pointcloud.Color{R: row[start], G: row[start+1], B: row[start+2]}
		}
		normalizeColors(c.Colors)
	}
	return c
}

// normalizeColors scales 0..255 colours into 0..1 when any component exceeds 1
func normalizeColors(colors []pointcloud.Color) {
	peak := 0.0
	for _, col := range colors {
		peak = max(peak, col.R, col.G, col.B)
	}
	if peak <= 1 {
		return
	}
	for i := range colors {
		colors[i].R /= 255
		colors[i].G /= 255
		colors[i].B /= 255
	}
}

// 📤 Encode writes one row per point
func (t *TextCodec) Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error {
	bw := bufio.NewWriter(w)
	withColors := t.colors && opts.WriteColors && c.HasColors()

	for i, p := range c.Points {
		var err error
		switch {
		case withColors && opts.ScaleColors:
			col := c.Colors[i]
			_, err = fmt.Fprintf(bw, "%.6f %.6f %.6f %d %d %d\n", p.X, p.Y, p.Z, toByte(col.R), toByte(col.G), toByte(col.B))
		case withColors:
			col := c.Colors[i]
			_, err = fmt.Fprintf(bw, "%.6f %.6f %.6f %.6f %.6f %.6f\n", p.X, p.Y, p.Z, col.R, col.G, col.B)
		default:
			_, err = fmt.Fprintf(bw, "%.6f %.6f %.6f\n", p.X, p.Y, p.Z)
		}
		if err != nil {
			return errors.Errorf("writing point %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Errorf("flushing %s output: %w", t.Name(), err)
	}
	return nil
}

// toByte truncates a 0..1 component to 0..255
func toByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}
