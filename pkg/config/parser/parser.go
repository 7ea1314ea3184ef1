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

package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thespruceforge/cloudforge/pkg/config/model"
	"gitlab.com/tozd/go/errors"
)

// ErrUnsupportedFormat is returned when no parser handles a file extension.
var ErrUnsupportedFormat = errors.Base("unsupported config format")

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes without validating it
	Parse(ctx context.Context, data []byte) (*model.ProcessingConfig, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool

	// Extensions lists the file extensions handled, with leading dots
	Extensions() []string
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Extensions returns every extension handled by a registered parser.
func Extensions() []string {
	var exts []string
	for _, p := range parsers {
		exts = append(exts, p.Extensions()...)
	}
	return exts
}

// 🎯 Decode picks a parser by file name and decodes data with it.
// The returned config has defaults applied but is not validated.
func Decode(ctx context.Context, filename string, data []byte) (*model.ProcessingConfig, error) {
	zerolog.Ctx(ctx).Debug().Str("file", filename).Msg("decoding config")

	p := GetParser(filename)
	if p == nil {
		return nil, errors.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, filepath.Ext(filename), strings.Join(Extensions(), ", "))
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", filepath.Base(filename), err)
	}
	return cfg, nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
