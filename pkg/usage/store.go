package usage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the statistics file kept inside the config directory.
const DefaultFileName = "usage_stats.yaml"

// 💾 Store persists collector statistics between invocations
type Store struct {
	path string
}

// 🏭 NewStore creates a store backed by path
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

type storeFile struct {
	Operations map[string]OperationStats `yaml:"operations"`
}

// 📥 Load replaces c's statistics with the persisted ones.
// A missing file leaves c empty.
func (s *Store) Load(ctx context.Context, c *Collector) error {
	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("loading usage statistics")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Reset()
			return nil
		}
		return errors.Errorf("reading usage statistics: %w", err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Errorf("parsing usage statistics %s: %w", s.path, err)
	}
	c.replace(f.Operations)
	return nil
}

// 📤 Save writes c's statistics, replacing the file atomically
func (s *Store) Save(ctx context.Context, c *Collector) error {
	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("saving usage statistics")

	data, err := yaml.Marshal(storeFile{Operations: c.Snapshot()})
	if err != nil {
		return errors.Errorf("encoding usage statistics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}
