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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thespruceforge/cloudforge/pkg/config/model"
	"github.com/thespruceforge/cloudforge/pkg/usage"
)

func newTestManager(t *testing.T) (*Manager, context.Context, *usage.Collector) {
	t.Helper()
	collector := usage.NewCollector()
	ctx := usage.NewContext(context.Background(), collector)
	m, err := NewManager(ctx, filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err, "creating manager should succeed")
	return m, ctx, collector
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func approx() cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-12 && d > -1e-12
	})
}

func TestNewManagerCreatesDirectories(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.DirExists(t, m.PresetsDir())
	assert.DirExists(t, m.TemplatesDir())
}

func TestPresetLifecycle(t *testing.T) {
	m, ctx, collector := newTestManager(t)

	cfg := NoiseScaledConfig(0.002)
	cfg.Scanner.Name = "Leica RTC360"
	require.NoError(t, m.SavePreset(ctx, "leica_rtc360", cfg))
	assert.FileExists(t, filepath.Join(m.PresetsDir(), "leica_rtc360.yaml"))

	writeFile(t, filepath.Join(m.PresetsDir(), "faro.yml"), "scanner:\n  name: FARO\n  typical_noise: 0.003\n")

	names, err := m.ListPresets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"faro", "leica_rtc360"}, names)

	fresh, err := NewManager(ctx, m.Dir())
	require.NoError(t, err)
	loaded, err := fresh.LoadPreset(ctx, "leica_rtc360")
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded, approx()); diff != "" {
		t.Errorf("loaded preset mismatch (-want +got):\n%s", diff)
	}

	faro, err := fresh.GetConfig(ctx, "faro")
	require.NoError(t, err)
	assert.Equal(t, "FARO", faro.Scanner.Name)

	require.NoError(t, os.Remove(filepath.Join(m.PresetsDir(), "faro.yml")))
	again, err := fresh.GetConfig(ctx, "faro")
	require.NoError(t, err, "second GetConfig should hit the cache")
	assert.Equal(t, faro, again)
	assert.NotSame(t, faro, again, "cached presets are handed out as copies")

	assert.Equal(t, 5, collector.Snapshot()[usage.OpConfig].CallCount)
}

func TestLoadPresetErrors(t *testing.T) {
	m, ctx, collector := newTestManager(t)

	_, err := m.LoadPreset(ctx, "missing")
	require.ErrorIs(t, err, ErrPresetNotFound)
	assert.Contains(t, err.Error(), "no presets in")

	writeFile(t, filepath.Join(m.PresetsDir(), "a.yaml"), "scanner:\n  name: A\n  typical_noise: 0.001\n")
	writeFile(t, filepath.Join(m.PresetsDir(), "b.yaml"), "scanner:\n  name: B\n  typical_noise: 0.001\n")
	_, err = m.LoadPreset(ctx, "missing")
	require.ErrorIs(t, err, ErrPresetNotFound)
	assert.Contains(t, err.Error(), "available presets: a, b")

	for _, name := range []string{"../etc/passwd", "a/b", `a\b`, "*", ""} {
		_, err := m.LoadPreset(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q should be rejected", name)
	}

	writeFile(t, filepath.Join(m.PresetsDir(), "bad.yaml"), "scanner:\n  name: Bad\n  typical_noise: -1\n")
	_, err = m.LoadPreset(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typical_noise")

	stats := collector.Snapshot()[usage.OpConfig]
	assert.Equal(t, stats.CallCount, stats.ErrorCount, "every call above failed")
}

func TestSavePresetRejectsInvalidConfig(t *testing.T) {
	m, ctx, _ := newTestManager(t)

	err := m.SavePreset(ctx, "empty", model.DefaultProcessingConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanner.name")
	assert.NoFileExists(t, filepath.Join(m.PresetsDir(), "empty.yaml"))
}

func TestCreatePresetFromTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		files    map[string]string
		check    func(t *testing.T, cfg *model.ProcessingConfig)
	}{
		{
			name:     "builtin_default_scales_with_noise",
			template: "default",
			check: func(t *testing.T, cfg *model.ProcessingConfig) {
				assert.InDelta(t, 0.1, cfg.Cleaning.RadiusOutlier.Radius, 1e-12)
				assert.InDelta(t, 0.02, cfg.Thinning.VoxelSize, 1e-12)
				assert.InDelta(t, 0.04, cfg.Reflection.ClusteringEpsilon, 1e-12)
				assert.Equal(t, 30, cfg.Cleaning.StatisticalOutlier.Neighbors)
			},
		},
		{
			name:     "empty_template_means_default",
			template: "",
			check: func(t *testing.T, cfg *model.ProcessingConfig) {
				assert.InDelta(t, 0.02, cfg.Thinning.VoxelSize, 1e-12)
			},
		},
		{
			name:     "yaml_template",
			template: "indoor",
			files: map[string]string{
				"indoor.yaml": "scanner:\n  name: placeholder\n  typical_noise: 0.5\nthinning:\n  method: random\n  voxel_size: 0.03\n",
			},
			check: func(t *testing.T, cfg *model.ProcessingConfig) {
				assert.Equal(t, model.ThinningRandom, cfg.Thinning.Method)
				assert.InDelta(t, 0.03, cfg.Thinning.VoxelSize, 1e-12)
			},
		},
		{
			name:     "hcl_template_without_scanner",
			template: "outdoor",
			files: map[string]string{
				"outdoor.hcl": "thinning {\n  method = \"adaptive\"\n  voxel_size = 2 * cm\n}\n",
			},
			check: func(t *testing.T, cfg *model.ProcessingConfig) {
				assert.Equal(t, model.ThinningAdaptive, cfg.Thinning.Method)
				assert.InDelta(t, 0.02, cfg.Thinning.VoxelSize, 1e-12)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ctx, _ := newTestManager(t)
			for name, content := range tt.files {
				writeFile(t, filepath.Join(m.TemplatesDir(), name), content)
			}

			cfg, err := m.CreatePresetFromTemplate(ctx, "site", "Test Scanner", 0.004, tt.template)
			require.NoError(t, err)
			assert.Equal(t, "Test Scanner", cfg.Scanner.Name, "scanner name is always overridden")
			assert.InDelta(t, 0.004, cfg.Scanner.TypicalNoise, 1e-12, "noise is always overridden")
			tt.check(t, cfg)

			saved, err := m.LoadPreset(ctx, "site")
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, saved, approx()); diff != "" {
				t.Errorf("saved preset mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreatePresetFromBrokenTemplate(t *testing.T) {
	m, ctx, _ := newTestManager(t)
	writeFile(t, filepath.Join(m.TemplatesDir(), "broken.json"), `{"thinning": {"method": "voxel"`)

	_, err := m.CreatePresetFromTemplate(ctx, "site", "X", 0.002, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `loading template "broken"`)

	_, err = m.CreatePresetFromTemplate(ctx, "site", "X", 0, "default")
	require.Error(t, err, "zero noise should fail validation")
}

func TestValidateConfigFile(t *testing.T) {
	m, ctx, _ := newTestManager(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	writeFile(t, good, `{"scanner": {"name": "X", "typical_noise": 0.002}}`)
	cfg, err := m.ValidateConfigFile(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "X", cfg.Scanner.Name)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "scanner:\n  name: X\n  typical_noise: 0.002\nthinning:\n  method: octree\n  voxel_size: -1\n")
	_, err = m.ValidateConfigFile(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thinning.method")
	assert.Contains(t, err.Error(), "thinning.voxel_size")

	_, err = m.ValidateConfigFile(ctx, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestExportConfig(t *testing.T) {
	m, ctx, _ := newTestManager(t)
	cfg := NoiseScaledConfig(0.003)
	cfg.Scanner.Name = "FARO Focus S350"
	require.NoError(t, m.SavePreset(ctx, "faro", cfg))

	out := filepath.Join(t.TempDir(), "exported", "faro.yaml")
	require.NoError(t, m.ExportConfig(ctx, "faro", out))

	exported, err := m.ValidateConfigFile(ctx, out)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, exported, approx()); diff != "" {
		t.Errorf("exported preset mismatch (-want +got):\n%s", diff)
	}

	require.ErrorIs(t, m.ExportConfig(ctx, "nope", out), ErrPresetNotFound)
}

func TestInstallBuiltins(t *testing.T) {
	m, ctx, _ := newTestManager(t)

	custom := NoiseScaledConfig(0.001)
	custom.Scanner.Name = "Custom"
	require.NoError(t, m.SavePreset(ctx, "leica_rtc360", custom))

	written, err := m.InstallBuiltins(ctx, false)
	require.NoError(t, err)
	assert.NotContains(t, written, "leica_rtc360", "existing presets are kept")
	assert.Len(t, written, len(BuiltinNames())-1)

	kept, err := m.LoadPreset(ctx, "leica_rtc360")
	require.NoError(t, err)
	assert.Equal(t, "Custom", kept.Scanner.Name)

	written, err = m.InstallBuiltins(ctx, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, BuiltinNames(), written)

	names, err := m.ListPresets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, BuiltinNames(), names)
}

func TestGetConfigReturnsCopies(t *testing.T) {
	m, ctx, _ := newTestManager(t)

	cfg := NoiseScaledConfig(0.002)
	cfg.Scanner.Name = "Leica RTC360"
	cfg.Scanner.IntensityRange = []float64{0, 1}
	require.NoError(t, m.SavePreset(ctx, "leica", cfg))
	cfg.Scanner.Name = "changed after save"

	first, err := m.GetConfig(ctx, "leica")
	require.NoError(t, err)
	assert.Equal(t, "Leica RTC360", first.Scanner.Name, "saving keeps its own copy")

	first.Thinning.VoxelSize = 99
	first.Scanner.IntensityRange[1] = 42

	second, err := m.GetConfig(ctx, "leica")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, second.Thinning.VoxelSize, 1e-12)
	assert.Equal(t, []float64{0, 1}, second.Scanner.IntensityRange)

	created, err := m.CreatePresetFromTemplate(ctx, "faro", "FARO", 0.003, "")
	require.NoError(t, err)
	created.Scanner.Name = "mutated"
	again, err := m.GetConfig(ctx, "faro")
	require.NoError(t, err)
	assert.Equal(t, "FARO", again.Scanner.Name)
}
