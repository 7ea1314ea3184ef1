// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thespruceforge/cloudforge/pkg/progress"
	"github.com/thespruceforge/cloudforge/pkg/usage"
	"gopkg.in/yaml.v3"
)

type nopBar struct{}

func (nopBar) Add(int)         {}
func (nopBar) SetTitle(string) {}
func (nopBar) Stop()           {}

type cli struct {
	configDir string
	dir       string
}

func newCLI(t *testing.T) *cli {
	color.NoColor = true
	pterm.DisableColor()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableColor()
	})

	dir := t.TempDir()
	return &cli{dir: dir, configDir: filepath.Join(dir, "config")}
}

// run executes the CLI with the test config dir and returns stdout and stderr
func (c *cli) run(t *testing.T, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	quiet := progress.WithBarFactory(func(string, int, io.Writer) (progress.Bar, error) { return nopBar{}, nil })
	err := run(context.Background(), append([]string{"--config-dir", c.configDir}, args...), &stdout, &stderr, quiet)
	return stdout.String(), stderr.String(), err
}

func (c *cli) writeScan(t *testing.T, name string) string {
	path := filepath.Join(c.dir, name)
	content := "3\n0 0 0 255 0 0\n1 0 0 0 255 0\n0 2 1 0 0 255\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (c *cli) stats(t *testing.T) map[string]usage.OperationStats {
	data, err := os.ReadFile(filepath.Join(c.configDir, usage.DefaultFileName))
	require.NoError(t, err, "usage statistics should be written")
	var file struct {
		Operations map[string]usage.OperationStats `yaml:"operations"`
	}
	require.NoError(t, yaml.Unmarshal(data, &file))
	return file.Operations
}

func TestPresetCommands(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "list-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "No presets found.")

	out, _, err = c.run(t, "init-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed 4 presets")

	out, _, err = c.run(t, "init-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "already installed")

	out, _, err = c.run(t, "create-preset", "--name", "my_scanner", "--scanner", "Custom X1", "--noise", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Created preset 'my_scanner' for Custom X1")
	assert.Contains(t, out, "Noise level: 2.0mm")
	assert.Contains(t, out, "Voxel size:  10.0mm")

	out, _, err = c.run(t, "list-presets")
	require.NoError(t, err)
	assert.Contains(t, out, "leica_rtc360         - Leica RTC360 (2.0mm noise)")
	assert.Contains(t, out, "my_scanner           - Custom X1 (2.0mm noise)")

	exported := filepath.Join(c.dir, "exported.yaml")
	_, _, err = c.run(t, "export-preset", "my_scanner", exported)
	require.NoError(t, err)

	out, _, err = c.run(t, "validate-config", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, _, err = c.run(t, "export-preset", "missing", exported)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available presets")
}

func TestValidateConfigRejectsInvalidFile(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanner:\n  name: x\n  typical_noise: -1\n"), 0o644))

	out, _, err := c.run(t, "validate-config", path)
	require.Error(t, err)
	assert.Contains(t, out, "is invalid")
}

func TestSuggestPreset(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "suggest-preset", "--scanner", "FARO Focus S350", "--points", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "name: FARO Focus S350")
	assert.Contains(t, out, "typical_noise: 0.003")

	out, _, err = c.run(t, "suggest-preset", "--scanner", "FARO Focus S350", "--points", "1000", "--save", "faro_small")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved suggested preset 'faro_small'")
	assert.FileExists(t, filepath.Join(c.configDir, "presets", "faro_small.yaml"))
}

func TestProcessAndStats(t *testing.T) {
	c := newCLI(t)
	scan := c.writeScan(t, "room.pts")

	_, _, err := c.run(t, "process", scan)
	require.Error(t, err, "process should fail without installed presets")

	_, _, err = c.run(t, "init-presets")
	require.NoError(t, err)

	out, _, err := c.run(t, "process", scan, "--format", "xyz")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 3 points from .pts file")
	assert.Contains(t, out, "Cleaning operations not yet implemented")
	assert.Contains(t, out, "Export completed: 3 points")
	assert.FileExists(t, filepath.Join(c.dir, "room_processed.xyz"))

	_, _, err = c.run(t, "process", scan, "--format", "obj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	stats := c.stats(t)
	loader := stats[usage.OpLoader]
	assert.Equal(t, 1, loader.SuccessCount, "the failed preset lookup never reaches the loader")
	assert.Equal(t, 1, stats[usage.OpExporter].SuccessCount)

	out, _, err = c.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "CloudForge Usage Statistics")
	assert.Contains(t, out, usage.OpExporter)

	out, _, err = c.run(t, "reset-stats")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Usage statistics reset")

	out, _, err = c.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No usage statistics recorded yet.")
}

func TestStatsSavedOnFailure(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run(t, "info", filepath.Join(c.dir, "missing.ply"))
	require.Error(t, err)

	assert.Equal(t, 1, c.stats(t)[usage.OpLoader].ErrorCount)
}

func TestInfoAndConvert(t *testing.T) {
	c := newCLI(t)
	scan := c.writeScan(t, "room.pts")
	plot := filepath.Join(c.dir, "room.png")

	out, _, err := c.run(t, "info", scan, "--plot", plot)
	require.NoError(t, err)
	assert.Contains(t, out, "Format:     .pts")
	assert.Contains(t, out, "Points:     3")
	assert.Contains(t, out, "Colors:     ✓")
	assert.Contains(t, out, "size      1.000 x 2.000 x 1.000 m")
	assert.FileExists(t, plot)

	base := filepath.Join(c.dir, "converted", "room")
	out, _, err = c.run(t, "convert", scan, "--to", "ply,pcd", "-o", base)
	require.NoError(t, err)
	assert.Contains(t, out, "room.ply")
	assert.Contains(t, out, "room.pcd")
	assert.FileExists(t, base+".ply")
	assert.FileExists(t, base+".pcd")
	assert.NoFileExists(t, base+".xyz")

	_, _, err = c.run(t, "convert", scan, "--to", "e57")
	require.Error(t, err)
}

func TestPlaceholderCommands(t *testing.T) {
	c := newCLI(t)
	scan := c.writeScan(t, "room.pts")
	other := c.writeScan(t, "other.pts")

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantOut     string
		errContains string
	}{
		{
			name:    "extract_bim_valid",
			args:    []string{"extract-bim", scan, "--elements", "walls,doors"},
			wantOut: "not yet implemented",
		},
		{
			name:        "extract_bim_unknown_element",
			args:        []string{"extract-bim", scan, "--elements", "roofs"},
			wantErr:     true,
			errContains: "unknown element",
		},
		{
			name:    "validate_valid",
			args:    []string{"validate", scan, other, "--threshold", "0.02"},
			wantOut: "threshold 0.020m",
		},
		{
			name:        "validate_missing_scan",
			args:        []string{"validate", scan, filepath.Join(c.dir, "nope.pts")},
			wantErr:     true,
			errContains: "nope.pts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := c.run(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "cloudforge version "+Version)
	assert.Contains(t, out, "reads:  ply pcd las laz e57 pts xyz")
}

func TestFormatBuildInfo(t *testing.T) {
	out := formatBuildInfo(BuildInfo{
		Version:  "1.2.3",
		Commit:   "abc123def456",
		Dirty:    true,
		Go:       "go1.24.0",
		Platform: "linux/amd64",
		Codecs:   map[string]string{"ply": "v0.10.0", "las": "v0.0.0-20200904"},
	})
	assert.Contains(t, out, "cloudforge version 1.2.3 (abc123def456-dirty, go1.24.0 linux/amd64)")
	assert.Contains(t, out, "writes: ply pcd pts xyz")
	assert.Contains(t, out, "ply codec: v0.10.0")
	assert.Contains(t, out, "las codec: v0.0.0-20200904")
	assert.NotContains(t, out, "pcd codec")
}
