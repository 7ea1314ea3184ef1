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

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/cloudio"
)

// Version is the release version reported by --version
const Version = "0.1.0"

// codecModules are the libraries whose versions decide which files cloudforge can read
var codecModules = map[string]string{
	"github.com/EliCDavis/polyform": "ply",
	"github.com/seqsense/pcgol":     "pcd",
	"github.com/jblindsay/lidario":  "las",
}

// BuildInfo describes the binary and the point cloud codecs linked into it
type BuildInfo struct {
	Version  string            `json:"version"`
	Commit   string            `json:"commit"`
	Dirty    bool              `json:"dirty"`
	Go       string            `json:"go"`
	Platform string            `json:"platform"`
	Codecs   map[string]string `json:"codecs"` // format -> library version
}

func readBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:  Version,
		Commit:   "unknown",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Codecs:   map[string]string{},
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Commit = setting.Value[:min(12, len(setting.Value))]
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if format, ok := codecModules[dep.Path]; ok {
			info.Codecs[format] = dep.Version
		}
	}
	return info
}

func trimDots(exts []string) string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return strings.Join(out, " ")
}

// FormatVersion renders the --version report
func FormatVersion() string {
	return formatBuildInfo(readBuildInfo())
}

func formatBuildInfo(info BuildInfo) string {
	var sb strings.Builder
	commit := info.Commit
	if info.Dirty {
		commit += "-dirty"
	}
	fmt.Fprintf(&sb, "☁️  cloudforge version %s (%s, %s %s)\n", info.Version, commit, info.Go, info.Platform)
	fmt.Fprintf(&sb, "   reads:  %s\n", trimDots(cloudio.LoadFormats))
	fmt.Fprintf(&sb, "   writes: %s\n", trimDots(cloudio.ExportFormats))
	for _, format := range []string{"ply", "pcd", "las"} {
		if v, ok := info.Codecs[format]; ok {
			fmt.Fprintf(&sb, "   %s codec: %s\n", format, v)
		}
	}
	return sb.String()
}
