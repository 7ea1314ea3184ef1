package config

import (
	"context"
	"slices"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/config/model"
)

// DefaultNoise is used when a scanner name matches no known vendor.
const DefaultNoise = 0.005

// scannerNoise is matched in order against the lower-cased scanner name
var scannerNoise = []struct {
	vendor string
	noise  float64
}{
	{"leica", 0.002},
	{"faro", 0.003},
	{"riegl", 0.005},
	{"trimble", 0.004},
}

// EstimateNoise returns the typical noise in metres for a scanner name.
func EstimateNoise(scanner string) float64 {
	name := strings.ToLower(scanner)
	for _, s := range scannerNoise {
		if strings.Contains(name, s.vendor) {
			return s.noise
		}
	}
	return DefaultNoise
}

// voxelFactor scales noise into a voxel size by point density
func voxelFactor(points int) float64 {
	switch {
	case points > 50_000_000:
		return 8
	case points > 10_000_000:
		return 5
	case points > 1_000_000:
		return 3
	}
	return 2
}

// 🧠 AdaptiveConfig derives a configuration from scan characteristics
func (m *Manager) AdaptiveConfig(ctx context.Context, scanner string, points int, hasIntensity bool) (*model.ProcessingConfig, error) {
	return track(ctx, []any{scanner, points, hasIntensity}, func() (*model.ProcessingConfig, error) {
		cfg := Adaptive(scanner, points, hasIntensity)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// Adaptive is AdaptiveConfig without a manager or usage tracking.
func Adaptive(scanner string, points int, hasIntensity bool) *model.ProcessingConfig {
	noise := EstimateNoise(scanner)
	dense := points > 10_000_000

	cfg := model.DefaultProcessingConfig()
	cfg.Scanner.Name = scanner
	cfg.Scanner.TypicalNoise = noise

	cfg.Cleaning.StatisticalOutlier.Neighbors = 30
	cfg.Cleaning.RadiusOutlier.MinNeighbors = 10
	if dense {
		cfg.Cleaning.StatisticalOutlier.Neighbors = 20
		cfg.Cleaning.RadiusOutlier.MinNeighbors = 8
	}
	cfg.Cleaning.RadiusOutlier.Radius = noise * 20

	cfg.Thinning.Method = model.ThinningVoxel
	cfg.Thinning.VoxelSize = noise * voxelFactor(points)
	cfg.Thinning.PreserveBoundaries = true

	cfg.Reflection.IntensityAvailable = hasIntensity
	cfg.Reflection.GlassDetection = hasIntensity
	cfg.Reflection.ClusteringEpsilon = noise * 10
	return cfg
}

// 📦 Builtin presets cover common terrestrial scanners
var builtins = []struct {
	name      string
	scanner   string
	noise     float64
	intensity bool
}{
	{"leica_rtc360", "Leica RTC360", 0.002, true},
	{"faro_focus_s350", "FARO Focus S350", 0.003, true},
	{"riegl_vz400i", "RIEGL VZ-400i", 0.005, true},
	{"trimble_x7", "Trimble X7", 0.004, false},
}

// BuiltinNames lists the presets InstallBuiltins can write.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// 📦 InstallBuiltins saves the built-in presets, skipping names that
// already exist unless overwrite is set. It returns the names written.
func (m *Manager) InstallBuiltins(ctx context.Context, overwrite bool) ([]string, error) {
	existing, err := m.ListPresets(ctx)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, b := range builtins {
		if !overwrite && slices.Contains(existing, b.name) {
			continue
		}
		cfg := NoiseScaledConfig(b.noise)
		cfg.Scanner.Name = b.scanner
		cfg.Reflection.IntensityAvailable = b.intensity
		if err := m.SavePreset(ctx, b.name, cfg); err != nil {
			return written, err
		}
		written = append(written, b.name)
	}
	return written, nil
}
