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
	"sync"

	"github.com/rs/zerolog"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"github.com/thespruceforge/cloudforge/pkg/usage"
	"gitlab.com/tozd/go/errors"
)

// 📥 Loader reads any supported point cloud format, picked by extension
type Loader struct {
	mu   sync.Mutex
	last Info
}

// 🏭 NewLoader creates a loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads path and records the call under usage.OpLoader.
func (l *Loader) Load(ctx context.Context, path string) (*pointcloud.Cloud, error) {
	return usage.TrackValue(ctx, usage.FromContext(ctx), usage.OpLoader, path, func() (*pointcloud.Cloud, error) {
		return l.load(ctx, path)
	})
}

func (l *Loader) load(ctx context.Context, path string) (*pointcloud.Cloud, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, errors.Errorf("checking %s: %w", path, err)
	}

	ext := Ext(path)
	codec := CodecFor(path)
	if codec == nil || !supported(LoadFormats, ext) {
		return nil, unsupported(ext, LoadFormats)
	}

	logger.Debug().Str("codec", codec.Name()).Msg("loading point cloud")

	c, info, err := codec.Decode(ctx, path)
	if err == nil && c.Len() == 0 {
		err = errors.Errorf("no points found in %s", path)
	}
	if err != nil {
		return nil, errors.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.last = info
	l.mu.Unlock()

	logger.Debug().Int("points", info.Points).Bool("colors", info.HasColors).Msg("loaded point cloud")
	return c, nil
}

// LastInfo returns a copy of the info of the last successful load.
func (l *Loader) LastInfo() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
