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

package commands

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/cloudio"
	"github.com/thespruceforge/cloudforge/pkg/log"
	"github.com/thespruceforge/cloudforge/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// DefaultPreset is the preset process uses when none is given
const DefaultPreset = "leica_rtc360"

// exportFormatNames lists export formats without the leading dot
func exportFormatNames() []string {
	names := make([]string, 0, len(cloudio.ExportFormats))
	for _, ext := range cloudio.ExportFormats {
		names = append(names, strings.TrimPrefix(ext, "."))
	}
	return names
}

func checkExportFormat(format string) error {
	names := exportFormatNames()
	if !slices.Contains(names, strings.TrimPrefix(cloudio.NormalizeFormat(format), ".")) {
		return errors.Errorf("invalid format %q (choose from %s)", format, strings.Join(names, ", "))
	}
	return nil
}

// warnNotImplemented turns a placeholder outcome into a warning
func warnNotImplemented(ctx context.Context, err error) error {
	if errors.Is(err, operation.ErrNotImplemented) {
		log.FromContext(ctx).Warning(err.Error())
		return nil
	}
	return err
}

// NewProcessCmd creates the process command
func NewProcessCmd(o *opts.RootOpts) *cobra.Command {
	var p operation.ProcessOptions

	cmd := &cobra.Command{
		Use:   "process INPUT",
		Short: "Process a point cloud with a scanner preset",
		Long: `Load a point cloud, clean and thin it according to a scanner preset,
then export the result. The output defaults to <input>_processed.<format>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p.Input = args[0]
			if p.Output == "" {
				if err := checkExportFormat(p.Format); err != nil {
					return err
				}
			}

			o.Logger.Header("processing " + p.Input)
			result, err := o.Operator.Process(ctx, p)
			if err != nil {
				return errors.Errorf("processing %s: %w", p.Input, err)
			}

			o.Logger.Successf("Processing complete: %s", result.Output.OutputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&p.Preset, "preset", "p", DefaultPreset, "scanner preset name")
	cmd.Flags().StringVarP(&p.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&p.Format, "format", "f", operation.DefaultFormat, "output format ("+strings.Join(exportFormatNames(), ", ")+")")
	cmd.Flags().BoolVar(&p.SkipCleaning, "skip-cleaning", false, "skip the cleaning stage")
	cmd.Flags().BoolVar(&p.SkipThinning, "skip-thinning", false, "skip the thinning stage")

	return cmd
}
