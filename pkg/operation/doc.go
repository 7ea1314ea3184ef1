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
Package operation runs the CloudForge pipelines on top of config, cloudio
and progress.

	  preset ──► config.Manager ─┐
	                             ▼
	input ──► cloudio.Loader ──► clean ──► thin ──► cloudio.Exporter ──► output
	                              (placeholder)  (placeholder)

🎯 Purpose:
- Process: preset + load + clean + thin + export
- Convert: load once, export to many formats concurrently
- ExtractBIM, ValidateAlignment: input checks ahead of future implementations

⚡ Notes:
- Cleaning and thinning default to placeholders returning ErrNotImplemented;
  Process logs a warning and carries the unmodified cloud forward
- User-facing lines go through log.FromContext, call statistics through
  usage.FromContext
- Progress bars are pterm by default; pass progress options to replace them

🔍 Example:

	op, err := operation.New(operation.Options{Presets: mgr})
	res, err := op.Process(ctx, operation.ProcessOptions{Input: "scan.las", Preset: "leica_rtc360"})
*/
package operation
