package cloudio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
)

func TestReadRows(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantPoints    int
		wantCols      int
		wantColors    []pointcloud.Color
		wantIntensity bool
		errContains   string
	}{
		{
			name:       "xyz_only",
			content:    "0 0 0\n1 2 3\n",
			wantPoints: 2,
			wantCols:   3,
		},
		{
			name:       "count_line_and_comments",
			content:    "# exported by scanner\n2\n0 0 0\n\n# middle\n1 1 1\n",
			wantPoints: 2,
			wantCols:   3,
		},
		{
			name:          "intensity_becomes_gray",
			content:       "0 0 0 50\n1 1 1 200\n",
			wantPoints:    2,
			wantCols:      4,
			wantColors:    []pointcloud.Color{pointcloud.Gray(0.25), pointcloud.Gray(1)},
			wantIntensity: true,
		},
		{
			name:       "rgb_bytes_are_scaled",
			content:    "0 0 0 255 0 51\n",
			wantPoints: 1,
			wantCols:   6,
			wantColors: []pointcloud.Color{{R: 1, G: 0, B: 0.2}},
		},
		{
			name:       "rgb_unit_range_is_kept",
			content:    "0 0 0 0.5 0.25 1\n",
			wantPoints: 1,
			wantCols:   6,
			wantColors: []pointcloud.Color{{R: 0.5, G: 0.25, B: 1}},
		},
		{
			name:          "intensity_and_rgb",
			content:       "3\n0 0 0 -1200 255 255 255\n1 0 0 -800 0 0 0\n2 0 0 -400 0 255 0\n",
			wantPoints:    3,
			wantCols:      7,
			wantColors:    []pointcloud.Color{{R: 1, G: 1, B: 1}, {}, {G: 1}},
			wantIntensity: true,
		},
		{
			name:        "only_first_count_line_is_skipped",
			content:     "3\n5\n0 0 0\n",
			errContains: "line 2: need at least X, Y, Z",
		},
		{
			name:        "too_few_columns",
			content:     "1 2\n",
			errContains: "need at least X, Y, Z",
		},
		{
			name:        "ragged_rows",
			content:     "1 2 3\n1 2 3 4\n",
			errContains: "line 2: expected 3 columns, got 4",
		},
		{
			name:        "not_a_number",
			content:     "1 2 abc\n",
			errContains: "line 1: column 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, cols, err := readRows(strings.NewReader(tt.content))
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCols, cols)

			c := rowsToCloud(rows, cols)
			assert.Equal(t, tt.wantPoints, c.Len())
			assert.Equal(t, tt.wantIntensity, c.HasIntensity())
			require.Len(t, c.Colors, len(tt.wantColors))
			for i, want := range tt.wantColors {
				assert.InDelta(t, want.R, c.Colors[i].R, 1e-9, "red %d", i)
				assert.InDelta(t, want.G, c.Colors[i].G, 1e-9, "green %d", i)
				assert.InDelta(t, want.B, c.Colors[i].B, 1e-9, "blue %d", i)
			}
		})
	}
}

func TestTextEncode(t *testing.T) {
	c := sampleCloud()
	yes, no := true, false

	tests := []struct {
		name  string
		codec *TextCodec
		opts  ExportOptions
		want  string
	}{
		{
			name:  "pts_scaled_colors",
			codec: &TextCodec{ext: ".pts", colors: true},
			want:  "1.500000 -2.250000 3.000000 255 0 0\n0.000000 0.000000 0.000000 0 255 0\n",
		},
		{
			name:  "pts_unscaled_colors",
			codec: &TextCodec{ext: ".pts", colors: true},
			opts:  ExportOptions{ScaleColors: &no},
			want:  "1.500000 -2.250000 3.000000 1.000000 0.000000 0.000000\n0.000000 0.000000 0.000000 0.000000 1.000000 0.000000\n",
		},
		{
			name:  "pts_without_colors",
			codec: &TextCodec{ext: ".pts", colors: true},
			opts:  ExportOptions{WriteColors: &no},
			want:  "1.500000 -2.250000 3.000000\n0.000000 0.000000 0.000000\n",
		},
		{
			name:  "xyz_ignores_colors",
			codec: &TextCodec{ext: ".xyz"},
			opts:  ExportOptions{WriteColors: &yes},
			want:  "1.500000 -2.250000 3.000000\n0.000000 0.000000 0.000000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			require.NoError(t, tt.codec.Encode(t.Context(), &sb, c, tt.opts.resolve(c)))
			assert.Equal(t, tt.want, sb.String())
		})
	}
}

func TestToByte(t *testing.T) {
	assert.Equal(t, uint8(0), toByte(-0.5))
	assert.Equal(t, uint8(0), toByte(0))
	assert.Equal(t, uint8(127), toByte(0.5))
	assert.Equal(t, uint8(255), toByte(1))
	assert.Equal(t, uint8(255), toByte(3))
}

func TestNormalizeColors(t *testing.T) {
	bytes := []pointcloud.Color{{R: 255, G: 51}, {B: 102}}
	normalizeColors(bytes)
	assert.InDelta(t, 1.0, bytes[0].R, 1e-9)
	assert.InDelta(t, 0.2, bytes[0].G, 1e-9)
	assert.InDelta(t, 0.4, bytes[1].B, 1e-9)

	unit := []pointcloud.Color{{R: 1, G: 0.5}}
	normalizeColors(unit)
	assert.Equal(t, []pointcloud.Color{{R: 1, G: 0.5}}, unit, "unit range colours are left alone")

	normalizeColors(nil)
}
