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

/*
Package config manages scanner processing presets.

	<config-dir>/
	├── presets/            one YAML file per preset
	│   ├── leica_rtc360.yaml
	│   └── faro_focus_s350.yaml
	├── templates/          yaml, yml, json or hcl templates
	│   └── indoor.hcl
	└── usage_stats.yaml    written by the CLI, see pkg/usage

🎯 Purpose:
- Load, validate and cache named presets
- Create presets from templates or from scanner noise
- Derive adaptive settings from scan size and scanner vendor

🔄 Flow:
1. parser.Decode picks YAML, JSON or HCL by extension and fills defaults
2. model.ProcessingConfig.Validate reports every violation at once
3. Manager caches the result under the preset name

⚡ Notes:
- Preset names are plain file stems; separators, '..' and glob characters are rejected
- Presets are always written as YAML, templates may use any parser format
- HCL templates can use the mm, cm and m unit variables
- Every Manager method is recorded under usage.OpConfig

🔍 Example:

	mgr, err := config.NewManager(ctx, "config")
	cfg, err := mgr.CreatePresetFromTemplate(ctx, "site_a", "Leica RTC360", 0.002, "default")
	cfg, err = mgr.GetConfig(ctx, "site_a")
*/
package config
