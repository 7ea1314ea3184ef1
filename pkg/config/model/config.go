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

package model

import (
	"fmt"
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🧹 Thinning methods accepted by ThinningConfig.Method
const (
	ThinningVoxel    = "voxel"
	ThinningAdaptive = "adaptive"
	ThinningRandom   = "random"
)

// ThinningMethods lists every accepted thinning method in display order.
var ThinningMethods = []string{ThinningVoxel, ThinningAdaptive, ThinningRandom}

// 📡 ScannerConfig describes the scanner that produced a cloud
type ScannerConfig struct {
	Name              string    // Human-readable scanner model
	TypicalNoise      float64   // Typical noise level in metres
	MaxRange          *float64  // Maximum range in metres
	AngularResolution *float64  // Angular resolution in degrees
	IntensityRange    []float64 // Min/max intensity values
}

// StatisticalOutlierConfig parameterises statistical outlier removal.
type StatisticalOutlierConfig struct {
	Neighbors int
	StdRatio  float64
}

// RadiusOutlierConfig parameterises radius outlier removal.
type RadiusOutlierConfig struct {
	Radius       float64
	MinNeighbors int
}

// 🧽 CleaningConfig groups the outlier cleaning parameters
type CleaningConfig struct {
	StatisticalOutlier StatisticalOutlierConfig
	RadiusOutlier      RadiusOutlierConfig
}

// ✂️ ThinningConfig describes point density reduction
type ThinningConfig struct {
	Method             string  // voxel, adaptive or random
	VoxelSize          float64 // Voxel edge in metres
	TargetPoints       *int    // Optional target point count
	PreserveBoundaries bool    // Keep edge points while thinning
}

// 🪞 ReflectionConfig describes glass/reflection detection
type ReflectionConfig struct {
	IntensityAvailable bool
	IntensityThreshold float64
	GlassDetection     bool
	ClusteringEpsilon  float64 // DBSCAN epsilon in metres
}

// 📚 ProcessingConfig is the complete configuration stored in a preset
type ProcessingConfig struct {
	Scanner    ScannerConfig
	Cleaning   CleaningConfig
	Thinning   ThinningConfig
	Reflection ReflectionConfig
}

// DefaultCleaning returns the default cleaning thresholds.
func DefaultCleaning() CleaningConfig {
	return CleaningConfig{
		StatisticalOutlier: StatisticalOutlierConfig{Neighbors: 30, StdRatio: 1.5},
		RadiusOutlier:      RadiusOutlierConfig{Radius: 0.05, MinNeighbors: 10},
	}
}

// DefaultThinning returns the default thinning parameters.
func DefaultThinning() ThinningConfig {
	return ThinningConfig{
		Method:             ThinningVoxel,
		VoxelSize:          0.01,
		PreserveBoundaries: true,
	}
}

// DefaultReflection returns the default reflection detection parameters.
func DefaultReflection() ReflectionConfig {
	return ReflectionConfig{
		IntensityAvailable: false,
		IntensityThreshold: 0.95,
		GlassDetection:     true,
		ClusteringEpsilon:  0.02,
	}
}

// 🏭 DefaultProcessingConfig returns a config with every section defaulted.
// The scanner section is left empty and must be filled in before Validate.
func DefaultProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		Cleaning:   DefaultCleaning(),
		Thinning:   DefaultThinning(),
		Reflection: DefaultReflection(),
	}
}

// Clone returns a deep copy that shares no pointers or slices with cfg.
func (cfg *ProcessingConfig) Clone() *ProcessingConfig {
	if cfg == nil {
		return nil
	}
	out := *cfg
	if cfg.Scanner.MaxRange != nil {
		out.Scanner.MaxRange = new(float64)
		*out.Scanner.MaxRange = *cfg.Scanner.MaxRange
	}
	if cfg.Scanner.AngularResolution != nil {
		out.Scanner.AngularResolution = new(float64)
		*out.Scanner.AngularResolution = *cfg.Scanner.AngularResolution
	}
	out.Scanner.IntensityRange = slices.Clone(cfg.Scanner.IntensityRange)
	if cfg.Thinning.TargetPoints != nil {
		out.Thinning.TargetPoints = new(int)
		*out.Thinning.TargetPoints = *cfg.Thinning.TargetPoints
	}
	return &out
}

// 🔍 Validate checks every field and reports all violations at once
func (cfg *ProcessingConfig) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, errors.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}

	s := cfg.Scanner
	if strings.TrimSpace(s.Name) == "" {
		fail("scanner.name", "is required")
	}
	if s.TypicalNoise <= 0 {
		fail("scanner.typical_noise", "must be greater than 0, got %g", s.TypicalNoise)
	}
	if s.MaxRange != nil && *s.MaxRange <= 0 {
		fail("scanner.max_range", "must be greater than 0, got %g", *s.MaxRange)
	}
	if s.AngularResolution != nil && *s.AngularResolution <= 0 {
		fail("scanner.angular_resolution", "must be greater than 0, got %g", *s.AngularResolution)
	}
	if s.IntensityRange != nil {
		if len(s.IntensityRange) != 2 {
			fail("scanner.intensity_range", "must hold exactly two values, got %d", len(s.IntensityRange))
		} else if s.IntensityRange[0] > s.IntensityRange[1] {
			fail("scanner.intensity_range", "min %g is greater than max %g", s.IntensityRange[0], s.IntensityRange[1])
		}
	}

	so := cfg.Cleaning.StatisticalOutlier
	if so.Neighbors < 1 {
		fail("cleaning.statistical_outlier.neighbors", "must be at least 1, got %d", so.Neighbors)
	}
	if so.StdRatio <= 0 {
		fail("cleaning.statistical_outlier.std_ratio", "must be greater than 0, got %g", so.StdRatio)
	}
	ro := cfg.Cleaning.RadiusOutlier
	if ro.Radius <= 0 {
		fail("cleaning.radius_outlier.radius", "must be greater than 0, got %g", ro.Radius)
	}
	if ro.MinNeighbors < 1 {
		fail("cleaning.radius_outlier.min_neighbors", "must be at least 1, got %d", ro.MinNeighbors)
	}

	th := cfg.Thinning
	if !slices.Contains(ThinningMethods, th.Method) {
		fail("thinning.method", "must be one of %s, got %q", strings.Join(ThinningMethods, ", "), th.Method)
	}
	if th.VoxelSize <= 0 {
		fail("thinning.voxel_size", "must be greater than 0, got %g", th.VoxelSize)
	}
	if th.TargetPoints != nil && *th.TargetPoints <= 0 {
		fail("thinning.target_points", "must be greater than 0, got %d", *th.TargetPoints)
	}

	rf := cfg.Reflection
	if rf.IntensityThreshold < 0 || rf.IntensityThreshold > 1 {
		fail("reflection.intensity_threshold", "must be within [0, 1], got %g", rf.IntensityThreshold)
	}
	if rf.ClusteringEpsilon <= 0 {
		fail("reflection.clustering_epsilon", "must be greater than 0, got %g", rf.ClusteringEpsilon)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// 📝 String returns a one-line summary of the config
func (cfg *ProcessingConfig) String() string {
	return fmt.Sprintf("%s (%.1fmm noise, %s thinning @ %.1fmm)",
		cfg.Scanner.Name,
		cfg.Scanner.TypicalNoise*1000,
		cfg.Thinning.Method,
		cfg.Thinning.VoxelSize*1000)
}
