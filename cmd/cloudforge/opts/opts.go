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

package opts

import (
	"github.com/thespruceforge/cloudforge/pkg/config"
	"github.com/thespruceforge/cloudforge/pkg/log"
	"github.com/thespruceforge/cloudforge/pkg/operation"
	"github.com/thespruceforge/cloudforge/pkg/progress"
	"github.com/thespruceforge/cloudforge/pkg/usage"
)

// RootOpts is shared by every subcommand. Flag fields are set by cobra,
// the rest is filled in before a subcommand runs.
type RootOpts struct {
	ConfigDir string
	StatsFile string
	Debug     bool

	Progress []progress.Option

	Logger   *log.Logger
	Manager  *config.Manager
	Operator *operation.Operator
	Stats    *usage.Collector
	Store    *usage.Store
}
