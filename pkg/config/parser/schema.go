package parser

import (
	"github.com/thespruceforge/cloudforge/pkg/config/model"
)

// fileConfig is the on-disk shape shared by the YAML, JSON and HCL parsers.
// Every field is a pointer so absent keys fall back to model defaults.
type fileConfig struct {
	Scanner    *scannerSection    `yaml:"scanner,omitempty" json:"scanner,omitempty" hcl:"scanner,block"`
	Cleaning   *cleaningSection   `yaml:"cleaning,omitempty" json:"cleaning,omitempty" hcl:"cleaning,block"`
	Thinning   *thinningSection   `yaml:"thinning,omitempty" json:"thinning,omitempty" hcl:"thinning,block"`
	Reflection *reflectionSection `yaml:"reflection,omitempty" json:"reflection,omitempty" hcl:"reflection,block"`
}

type scannerSection struct {
	Name              *string   `yaml:"name,omitempty" json:"name,omitempty" hcl:"name,optional"`
	TypicalNoise      *float64  `yaml:"typical_noise,omitempty" json:"typical_noise,omitempty" hcl:"typical_noise,optional"`
	MaxRange          *float64  `yaml:"max_range,omitempty" json:"max_range,omitempty" hcl:"max_range,optional"`
	AngularResolution *float64  `yaml:"angular_resolution,omitempty" json:"angular_resolution,omitempty" hcl:"angular_resolution,optional"`
	IntensityRange    []float64 `yaml:"intensity_range,omitempty,flow" json:"intensity_range,omitempty" hcl:"intensity_range,optional"`
}

type cleaningSection struct {
	StatisticalOutlier *statisticalSection `yaml:"statistical_outlier,omitempty" json:"statistical_outlier,omitempty" hcl:"statistical_outlier,block"`
	RadiusOutlier      *radiusSection      `yaml:"radius_outlier,omitempty" json:"radius_outlier,omitempty" hcl:"radius_outlier,block"`
}

type statisticalSection struct {
	Neighbors *int     `yaml:"neighbors,omitempty" json:"neighbors,omitempty" hcl:"neighbors,optional"`
	StdRatio  *float64 `yaml:"std_ratio,omitempty" json:"std_ratio,omitempty" hcl:"std_ratio,optional"`
}

type radiusSection struct {
	Radius       *float64 `yaml:"radius,omitempty" json:"radius,omitempty" hcl:"radius,optional"`
	MinNeighbors *int     `yaml:"min_neighbors,omitempty" json:"min_neighbors,omitempty" hcl:"min_neighbors,optional"`
}

type thinningSection struct {
	Method             *string  `yaml:"method,omitempty" json:"method,omitempty" hcl:"method,optional"`
	VoxelSize          *float64 `yaml:"voxel_size,omitempty" json:"voxel_size,omitempty" hcl:"voxel_size,optional"`
	TargetPoints       *int     `yaml:"target_points,omitempty" json:"target_points,omitempty" hcl:"target_points,optional"`
	PreserveBoundaries *bool    `yaml:"preserve_boundaries,omitempty" json:"preserve_boundaries,omitempty" hcl:"preserve_boundaries,optional"`
}

type reflectionSection struct {
	IntensityAvailable *bool    `yaml:"intensity_available,omitempty" json:"intensity_available,omitempty" hcl:"intensity_available,optional"`
	IntensityThreshold *float64 `yaml:"intensity_threshold,omitempty" json:"intensity_threshold,omitempty" hcl:"intensity_threshold,optional"`
	GlassDetection     *bool    `yaml:"glass_detection,omitempty" json:"glass_detection,omitempty" hcl:"glass_detection,optional"`
	ClusteringEpsilon  *float64 `yaml:"clustering_epsilon,omitempty" json:"clustering_epsilon,omitempty" hcl:"clustering_epsilon,optional"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// toModel overlays the decoded sections onto model defaults
func (fc *fileConfig) toModel() *model.ProcessingConfig {
	cfg := model.DefaultProcessingConfig()

	if s := fc.Scanner; s != nil {
		set(&cfg.Scanner.Name, s.Name)
		set(&cfg.Scanner.TypicalNoise, s.TypicalNoise)
		cfg.Scanner.MaxRange = s.MaxRange
		cfg.Scanner.AngularResolution = s.AngularResolution
		cfg.Scanner.IntensityRange = s.IntensityRange
	}

	if c := fc.Cleaning; c != nil {
		if so := c.StatisticalOutlier; so != nil {
			set(&cfg.Cleaning.StatisticalOutlier.Neighbors, so.Neighbors)
			set(&cfg.Cleaning.StatisticalOutlier.StdRatio, so.StdRatio)
		}
		if ro := c.RadiusOutlier; ro != nil {
			set(&cfg.Cleaning.RadiusOutlier.Radius, ro.Radius)
			set(&cfg.Cleaning.RadiusOutlier.MinNeighbors, ro.MinNeighbors)
		}
	}

	if th := fc.Thinning; th != nil {
		set(&cfg.Thinning.Method, th.Method)
		set(&cfg.Thinning.VoxelSize, th.VoxelSize)
		cfg.Thinning.TargetPoints = th.TargetPoints
		set(&cfg.Thinning.PreserveBoundaries, th.PreserveBoundaries)
	}

	if rf := fc.Reflection; rf != nil {
		set(&cfg.Reflection.IntensityAvailable, rf.IntensityAvailable)
		set(&cfg.Reflection.IntensityThreshold, rf.IntensityThreshold)
		set(&cfg.Reflection.GlassDetection, rf.GlassDetection)
		set(&cfg.Reflection.ClusteringEpsilon, rf.ClusteringEpsilon)
	}

	return cfg
}

// fromModel builds a fully populated fileConfig for encoding
func fromModel(cfg *model.ProcessingConfig) *fileConfig {
	return &fileConfig{
		Scanner: &scannerSection{
			Name:              &cfg.Scanner.Name,
			TypicalNoise:      &cfg.Scanner.TypicalNoise,
			MaxRange:          cfg.Scanner.MaxRange,
			AngularResolution: cfg.Scanner.AngularResolution,
			IntensityRange:    cfg.Scanner.IntensityRange,
		},
		Cleaning: &cleaningSection{
			StatisticalOutlier: &statisticalSection{
				Neighbors: &cfg.Cleaning.StatisticalOutlier.Neighbors,
				StdRatio:  &cfg.Cleaning.StatisticalOutlier.StdRatio,
			},
			RadiusOutlier: &radiusSection{
				Radius:       &cfg.Cleaning.RadiusOutlier.Radius,
				MinNeighbors: &cfg.Cleaning.RadiusOutlier.MinNeighbors,
			},
		},
		Thinning: &thinningSection{
			Method:             &cfg.Thinning.Method,
			VoxelSize:          &cfg.Thinning.VoxelSize,
			TargetPoints:       cfg.Thinning.TargetPoints,
			PreserveBoundaries: &cfg.Thinning.PreserveBoundaries,
		},
		Reflection: &reflectionSection{
			IntensityAvailable: &cfg.Reflection.IntensityAvailable,
			IntensityThreshold: &cfg.Reflection.IntensityThreshold,
			GlassDetection:     &cfg.Reflection.GlassDetection,
			ClusteringEpsilon:  &cfg.Reflection.ClusteringEpsilon,
		},
	}
}
