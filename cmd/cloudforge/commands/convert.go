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
	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewConvertCmd creates the convert command
func NewConvertCmd(o *opts.RootOpts) *cobra.Command {
	var c operation.ConvertOptions

	cmd := &cobra.Command{
		Use:   "convert INPUT",
		Short: "Convert a point cloud into one or more formats",
		Long: `Load a point cloud once and write it in each requested format.
Output files share the base path given by --output with the extension replaced
per format (default: <input stem>_converted next to the input). A format whose
output would replace the input file is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c.Input = args[0]
			for _, f := range c.Formats {
				if err := checkExportFormat(f); err != nil {
					return err
				}
			}

			o.Logger.Header("converting " + c.Input)
			if _, err := o.Operator.Convert(ctx, c); err != nil {
				return errors.Errorf("converting %s: %w", c.Input, err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&c.Formats, "to", nil, "target formats (default: all export formats)")
	cmd.Flags().StringVarP(&c.Output, "output", "o", "", "output base path")

	return cmd
}
