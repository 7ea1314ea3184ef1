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

package cloudio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"github.com/thespruceforge/cloudforge/pkg/usage"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ⚙️ ExportOptions tune a single export. Nil pointers take the defaults:
// normals and colours are written when the cloud has them, colours are
// scaled to 0..255 in text output.
type ExportOptions struct {
	ASCII        bool
	WriteNormals *bool
	WriteColors  *bool
	ScaleColors  *bool
}

func (o ExportOptions) resolve(c *pointcloud.Cloud) EncodeOptions {
	pick := func(p *bool, def bool) bool {
		if p == nil {
			return def
		}
		return *p
	}
	return EncodeOptions{
		ASCII:        o.ASCII,
		WriteNormals: pick(o.WriteNormals, c.HasNormals()),
		WriteColors:  pick(o.WriteColors, c.HasColors()),
		ScaleColors:  pick(o.ScaleColors, true),
	}
}

// 📊 ExportStats describes the last written file
type ExportStats struct {
	OutputFile     string  `yaml:"output_file"`
	Format         string  `yaml:"format"`
	PointsExported int     `yaml:"points_exported"`
	HasColors      bool    `yaml:"has_colors"`
	HasNormals     bool    `yaml:"has_normals"`
	FileSizeMB     float64 `yaml:"file_size_mb"`
}

// 📤 Exporter writes point clouds in any export format
type Exporter struct {
	mu   sync.Mutex
	last ExportStats
}

// 🏭 NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes c to path and records the call under usage.OpExporter.
func (e *Exporter) Export(ctx context.Context, c *pointcloud.Cloud, path string, opts ExportOptions) error {
	return usage.FromContext(ctx).Track(ctx, usage.OpExporter, path, func() error {
		return e.export(ctx, c, path, opts)
	})
}

func (e *Exporter) export(ctx context.Context, c *pointcloud.Cloud, path string, opts ExportOptions) error {
	ext := Ext(path)
	codec := CodecFor(path)
	if codec == nil || !supported(ExportFormats, ext) {
		return unsupported(ext, ExportFormats)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("codec", codec.Name()).Int("points", c.Len()).Msg("exporting point cloud")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	if err := writeAtomic(ctx, path, codec, c, opts.resolve(c)); err != nil {
		return errors.Errorf("exporting %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("checking exported file: %w", err)
	}

	e.mu.Lock()
	e.last = ExportStats{
		OutputFile:     path,
		Format:         ext,
		PointsExported: c.Len(),
		HasColors:      c.HasColors(),
		HasNormals:     c.HasNormals(),
		FileSizeMB:     float64(info.Size()) / (1024 * 1024),
	}
	e.mu.Unlock()
	return nil
}

// writeAtomic encodes into a temp file next to path, then renames it over path
func writeAtomic(ctx context.Context, path string, codec Codec, c *pointcloud.Cloud, opts EncodeOptions) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if err := codec.Encode(ctx, tmp, c, opts); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LastStats returns statistics of the last successful export.
func (e *Exporter) LastStats() ExportStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// 🔄 BatchExport writes c once per format, replacing base's extension.
// With no formats every export format is written. The result maps each
// normalised extension to its error, nil on success.
func (e *Exporter) BatchExport(ctx context.Context, c *pointcloud.Cloud, base string, formats []string) map[string]error {
	outputs := Outputs(base, formats)

	var mu sync.Mutex
	results := make(map[string]error, len(outputs))

	var g errgroup.Group
	for ext, path := range outputs {
		g.Go(func() error {
			err := e.Export(ctx, c, path, ExportOptions{})
			mu.Lock()
			results[ext] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Outputs lists the paths BatchExport writes for base and formats.
func Outputs(base string, formats []string) map[string]string {
	if len(formats) == 0 {
		formats = ExportFormats
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	out := make(map[string]string, len(formats))
	for _, format := range formats {
		ext := NormalizeFormat(format)
		out[ext] = stem + ext
	}
	return out
}
