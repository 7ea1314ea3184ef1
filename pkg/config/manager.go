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
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/thespruceforge/cloudforge/pkg/config/model"
	"github.com/thespruceforge/cloudforge/pkg/config/parser"
	"github.com/thespruceforge/cloudforge/pkg/usage"
	"gitlab.com/tozd/go/errors"
)

const (
	presetsDirName   = "presets"
	templatesDirName = "templates"

	// DefaultTemplate is the template name that falls back to built-in values.
	DefaultTemplate = "default"
)

var (
	// ErrPresetNotFound is returned when no preset file exists for a name.
	ErrPresetNotFound = errors.Base("preset not found")
	// ErrInvalidName is returned for preset or template names that are not plain file stems.
	ErrInvalidName = errors.Base("invalid name")
)

// 🗂️ Manager stores processing presets under <dir>/presets and
// reads templates from <dir>/templates
type Manager struct {
	dir          string
	presetsDir   string
	templatesDir string

	mu     sync.Mutex
	loaded map[string]*model.ProcessingConfig
}

// 🏭 NewManager creates the presets and templates directories if needed
func NewManager(ctx context.Context, dir string) (*Manager, error) {
	m := &Manager{
		dir:          dir,
		presetsDir:   filepath.Join(dir, presetsDirName),
		templatesDir: filepath.Join(dir, templatesDirName),
		loaded:       make(map[string]*model.ProcessingConfig),
	}
	for _, d := range []string{m.presetsDir, m.templatesDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, errors.Errorf("creating %s: %w", d, err)
		}
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("config manager ready")
	return m, nil
}

// Dir is the config root.
func (m *Manager) Dir() string { return m.dir }

// PresetsDir holds one YAML file per preset.
func (m *Manager) PresetsDir() string { return m.presetsDir }

// TemplatesDir holds preset templates.
func (m *Manager) TemplatesDir() string { return m.templatesDir }

func track[T any](ctx context.Context, args any, fn func() (T, error)) (T, error) {
	return usage.TrackValue(ctx, usage.FromContext(ctx), usage.OpConfig, args, fn)
}

// checkName rejects anything that is not a plain file stem
func checkName(kind, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.Errorf("%w: %s name is empty", ErrInvalidName, kind)
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return errors.Errorf("%w: %s name %q must not contain path separators or '..'", ErrInvalidName, kind, name)
	case strings.ContainsAny(name, "*?[]{}"):
		return errors.Errorf("%w: %s name %q must not contain glob characters", ErrInvalidName, kind, name)
	}
	return nil
}

// findFile returns the first file in dir named name with one of exts
func findFile(dir, name string, exts ...string) (string, bool, error) {
	pattern := name + ".{" + strings.Join(exts, ",") + "}"
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return "", false, errors.Errorf("searching %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	// yaml before yml, matching the order of exts
	slices.SortFunc(matches, func(a, b string) int {
		return slices.Index(exts, strings.TrimPrefix(filepath.Ext(a), ".")) - slices.Index(exts, strings.TrimPrefix(filepath.Ext(b), "."))
	})
	return filepath.Join(dir, matches[0]), true, nil
}

// 📥 LoadPreset reads, validates and caches presets/<name>.yaml
func (m *Manager) LoadPreset(ctx context.Context, name string) (*model.ProcessingConfig, error) {
	return track(ctx, name, func() (*model.ProcessingConfig, error) {
		return m.loadPreset(ctx, name)
	})
}

func (m *Manager) loadPreset(ctx context.Context, name string) (*model.ProcessingConfig, error) {
	if err := checkName("preset", name); err != nil {
		return nil, err
	}

	path, ok, err := findFile(m.presetsDir, name, "yaml", "yml")
	if err != nil {
		return nil, err
	}
	if !ok {
		available, err := m.listPresets()
		if err != nil {
			return nil, err
		}
		if len(available) == 0 {
			return nil, errors.Errorf("%w: %q (no presets in %s)", ErrPresetNotFound, name, m.presetsDir)
		}
		return nil, errors.Errorf("%w: %q (available presets: %s)", ErrPresetNotFound, name, strings.Join(available, ", "))
	}

	cfg, err := readConfig(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading preset %q: %w", name, err)
	}

	m.mu.Lock()
	m.loaded[name] = cfg
	m.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("preset", name).Str("path", path).Msg("loaded preset")
	return cfg.Clone(), nil
}

// readConfig decodes path by extension and validates it
func readConfig(ctx context.Context, path string) (*model.ProcessingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}
	cfg, err := parser.Decode(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// 💾 SavePreset validates cfg and writes it as presets/<name>.yaml
func (m *Manager) SavePreset(ctx context.Context, name string, cfg *model.ProcessingConfig) error {
	_, err := track(ctx, name, func() (struct{}, error) {
		return struct{}{}, m.savePreset(ctx, name, cfg)
	})
	return err
}

func (m *Manager) savePreset(ctx context.Context, name string, cfg *model.ProcessingConfig) error {
	if err := checkName("preset", name); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Errorf("validating preset %q: %w", name, err)
	}

	path := filepath.Join(m.presetsDir, name+".yaml")
	if err := writeYAML(path, cfg); err != nil {
		return errors.Errorf("saving preset %q: %w", name, err)
	}

	m.mu.Lock()
	m.loaded[name] = cfg.Clone()
	m.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("preset", name).Str("path", path).Msg("saved preset")
	return nil
}

// writeYAML encodes cfg and replaces path atomically
func writeYAML(path string, cfg *model.ProcessingConfig) error {
	data, err := parser.EncodeYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// 📋 ListPresets returns the sorted names of every preset file
func (m *Manager) ListPresets(ctx context.Context) ([]string, error) {
	return track(ctx, nil, func() ([]string, error) {
		return m.listPresets()
	})
}

func (m *Manager) listPresets() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(m.presetsDir), "*.{yaml,yml}")
	if err != nil {
		return nil, errors.Errorf("listing presets: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, strings.TrimSuffix(match, filepath.Ext(match)))
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// 🧩 CreatePresetFromTemplate builds a preset for a scanner from
// templates/<template>.{yaml,yml,json,hcl}, or from defaults scaled by
// noise when no such template exists, and saves it.
func (m *Manager) CreatePresetFromTemplate(ctx context.Context, name, scanner string, noise float64, template string) (*model.ProcessingConfig, error) {
	return track(ctx, []any{name, scanner, noise, template}, func() (*model.ProcessingConfig, error) {
		if template == "" {
			template = DefaultTemplate
		}
		if err := checkName("template", template); err != nil {
			return nil, err
		}

		path, ok, err := findFile(m.templatesDir, template, "yaml", "yml", "json", "hcl")
		if err != nil {
			return nil, err
		}

		var cfg *model.ProcessingConfig
		if ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.Errorf("reading template: %w", err)
			}
			if cfg, err = parser.Decode(ctx, path, data); err != nil {
				return nil, errors.Errorf("loading template %q: %w", template, err)
			}
			zerolog.Ctx(ctx).Debug().Str("template", path).Msg("using template")
		} else {
			cfg = NoiseScaledConfig(noise)
		}

		cfg.Scanner.Name = scanner
		cfg.Scanner.TypicalNoise = noise

		if err := m.savePreset(ctx, name, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// NoiseScaledConfig is the built-in template: defaults with outlier radius,
// voxel size and clustering epsilon derived from the scanner noise.
func NoiseScaledConfig(noise float64) *model.ProcessingConfig {
	cfg := model.DefaultProcessingConfig()
	cfg.Scanner.TypicalNoise = noise
	cfg.Cleaning.RadiusOutlier.Radius = noise * 25
	cfg.Thinning.VoxelSize = noise * 5
	cfg.Reflection.ClusteringEpsilon = noise * 10
	return cfg
}

// 🎯 GetConfig returns a copy of the cached preset or loads it.
// Callers may modify the result without affecting the cache.
func (m *Manager) GetConfig(ctx context.Context, name string) (*model.ProcessingConfig, error) {
	m.mu.Lock()
	cfg, ok := m.loaded[name]
	m.mu.Unlock()
	if ok {
		return track(ctx, name, func() (*model.ProcessingConfig, error) { return cfg.Clone(), nil })
	}
	return m.LoadPreset(ctx, name)
}

// ✅ ValidateConfigFile decodes any supported config file and validates it
func (m *Manager) ValidateConfigFile(ctx context.Context, path string) (*model.ProcessingConfig, error) {
	return track(ctx, path, func() (*model.ProcessingConfig, error) {
		return readConfig(ctx, path)
	})
}

// 📤 ExportConfig writes a preset as YAML to output
func (m *Manager) ExportConfig(ctx context.Context, name, output string) error {
	cfg, err := m.GetConfig(ctx, name)
	if err != nil {
		return err
	}
	_, err = track(ctx, []string{name, output}, func() (struct{}, error) {
		if err := writeYAML(output, cfg); err != nil {
			return struct{}{}, errors.Errorf("exporting preset %q: %w", name, err)
		}
		return struct{}{}, nil
	})
	return err
}
