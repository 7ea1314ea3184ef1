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

package operation

import (
	"context"
	"os"

	"github.com/thespruceforge/cloudforge/pkg/cloudio"
	"github.com/thespruceforge/cloudforge/pkg/config/model"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"github.com/thespruceforge/cloudforge/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

// ErrNotImplemented marks processing stages that exist only as placeholders.
var ErrNotImplemented = errors.Base("not yet implemented")

// 🔧 PresetSource resolves a preset name to a configuration
type PresetSource interface {
	GetConfig(ctx context.Context, name string) (*model.ProcessingConfig, error)
}

// CleanFunc removes outliers from a cloud.
type CleanFunc func(ctx context.Context, c *pointcloud.Cloud, cfg model.CleaningConfig) (*pointcloud.Cloud, error)

// ThinFunc reduces the density of a cloud.
type ThinFunc func(ctx context.Context, c *pointcloud.Cloud, cfg model.ThinningConfig) (*pointcloud.Cloud, error)

// 🔧 Options contains the collaborators of an Operator
type Options struct {
	// Presets resolves preset names
	Presets PresetSource
	// Loader reads input clouds
	Loader *cloudio.Loader
	// Exporter writes output clouds
	Exporter *cloudio.Exporter
	// Clean and Thin default to placeholders returning ErrNotImplemented
	Clean CleanFunc
	Thin  ThinFunc
	// Progress is applied to every progress tracker
	Progress []progress.Option
}

// 🎮 Operator runs the processing pipelines
type Operator struct {
	presets  PresetSource
	loader   *cloudio.Loader
	exporter *cloudio.Exporter
	clean    CleanFunc
	thin     ThinFunc
	progress []progress.Option
}

// 🏭 New creates an operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Presets == nil {
		return nil, errors.Errorf("preset source is required")
	}
	if opts.Loader == nil {
		opts.Loader = cloudio.NewLoader()
	}
	if opts.Exporter == nil {
		opts.Exporter = cloudio.NewExporter()
	}
	if opts.Clean == nil {
		opts.Clean = cleanPlaceholder
	}
	if opts.Thin == nil {
		opts.Thin = thinPlaceholder
	}
	return &Operator{
		presets:  opts.Presets,
		loader:   opts.Loader,
		exporter: opts.Exporter,
		clean:    opts.Clean,
		thin:     opts.Thin,
		progress: opts.Progress,
	}, nil
}

// Loader is the loader used by every pipeline.
func (o *Operator) Loader() *cloudio.Loader { return o.loader }

// Exporter is the exporter used by every pipeline.
func (o *Operator) Exporter() *cloudio.Exporter { return o.exporter }

func cleanPlaceholder(ctx context.Context, c *pointcloud.Cloud, cfg model.CleaningConfig) (*pointcloud.Cloud, error) {
	return nil, errors.Errorf("cleaning: %w", ErrNotImplemented)
}

func thinPlaceholder(ctx context.Context, c *pointcloud.Cloud, cfg model.ThinningConfig) (*pointcloud.Cloud, error) {
	return nil, errors.Errorf("thinning: %w", ErrNotImplemented)
}

// requireFile fails unless path names an existing regular file
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("%w: %s", cloudio.ErrNotFound, path)
		}
		return errors.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", path)
	}
	return nil
}

// load reads input behind a progress tracker
func (o *Operator) load(ctx context.Context, input string) (*pointcloud.Cloud, cloudio.Info, error) {
	var c *pointcloud.Cloud
	err := progress.New("Loading point cloud", 1, o.progress...).Run(func(t *progress.Tracker) error {
		var err error
		c, err = o.loader.Load(ctx, input)
		if err == nil {
			t.Update(1, "")
		}
		return err
	})
	if err != nil {
		return nil, cloudio.Info{}, err
	}
	return c, o.loader.LastInfo(), nil
}
