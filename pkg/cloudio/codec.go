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
	"io"
	"path/filepath"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.Base("point cloud file not found")
	// ErrUnsupportedFormat is returned for extensions no codec handles.
	ErrUnsupportedFormat = errors.Base("unsupported format")
	// ErrNotImplemented is returned by recognised formats that cannot be read yet.
	ErrNotImplemented = errors.Base("format support not implemented")
	// ErrReadOnly is returned when encoding with a decode-only codec.
	ErrReadOnly = errors.Base("format is read-only")
)

// LoadFormats are the extensions the Loader accepts.
var LoadFormats = []string{".ply", ".pcd", ".las", ".laz", ".e57", ".pts", ".xyz"}

// ExportFormats are the extensions the Exporter writes.
var ExportFormats = []string{".ply", ".pcd", ".pts", ".xyz"}

// 📋 Info describes a decoded file
type Info struct {
	Format       string `yaml:"format"`
	Points       int    `yaml:"points"`
	HasColors    bool   `yaml:"has_colors"`
	HasNormals   bool   `yaml:"has_normals"`
	HasIntensity bool   `yaml:"has_intensity"`
	LASVersion   string `yaml:"las_version,omitempty"`
	Columns      int    `yaml:"columns,omitempty"`
}

// infoFor fills the attribute flags from a decoded cloud
func infoFor(ext string, c *pointcloud.Cloud) Info {
	return Info{
		Format:       ext,
		Points:       c.Len(),
		HasColors:    c.HasColors(),
		HasNormals:   c.HasNormals(),
		HasIntensity: c.HasIntensity(),
	}
}

// EncodeOptions are resolved per-file export settings.
type EncodeOptions struct {
	ASCII        bool
	WriteNormals bool
	WriteColors  bool
	ScaleColors  bool
}

// 🔌 Codec reads and optionally writes one family of point cloud files
type Codec interface {
	Name() string

	// Extensions lists handled extensions with leading dots
	Extensions() []string

	// 📥 Decode reads the file at path
	Decode(ctx context.Context, path string) (*pointcloud.Cloud, Info, error)

	// 📤 Encode writes c to w, or returns ErrReadOnly
	Encode(ctx context.Context, w io.Writer, c *pointcloud.Cloud, opts EncodeOptions) error
}

var (
	// 🗺️ codecs is keyed by lower-case extension
	codecs = map[string]Codec{}
)

// 📝 Register registers a codec under each of its extensions
func Register(c Codec) {
	for _, ext := range c.Extensions() {
		codecs[strings.ToLower(ext)] = c
	}
}

// 🎯 CodecFor returns the codec for path's extension, nil if none
func CodecFor(path string) Codec {
	return codecs[Ext(path)]
}

// Ext returns the lower-case extension of path.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// NormalizeFormat turns "ply", ".PLY" or "PLY" into ".ply".
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return format
}

func supported(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}

func unsupported(ext string, list []string) error {
	return errors.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(list, ", "))
}
