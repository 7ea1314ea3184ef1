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
	"strings"

	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/operation"
)

// NewExtractBIMCmd creates the extract-bim command
func NewExtractBIMCmd(o *opts.RootOpts) *cobra.Command {
	var (
		elements string
		b        operation.BIMOptions
	)

	cmd := &cobra.Command{
		Use:   "extract-bim INPUT",
		Short: "Extract BIM elements from a point cloud",
		Long: `Extract building elements from a point cloud.

Supported elements: ` + strings.Join(operation.BIMElements, ", ") + `
Extraction is not available yet; inputs are checked and the plan is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b.Input = args[0]
			b.Elements = operation.ParseElements(elements)

			o.Logger.Header("extracting BIM elements from " + b.Input)
			return warnNotImplemented(ctx, o.Operator.ExtractBIM(ctx, b))
		},
	}

	cmd.Flags().StringVar(&elements, "elements", "walls,floors", "comma separated elements to extract")
	cmd.Flags().StringVarP(&b.Format, "format", "f", "ifc", "output format ("+strings.Join(operation.BIMFormats, ", ")+")")
	cmd.Flags().StringVarP(&b.Output, "output", "o", "", "output file path")

	return cmd
}

// NewValidateCmd creates the validate command
func NewValidateCmd(o *opts.RootOpts) *cobra.Command {
	a := operation.AlignmentOptions{Threshold: operation.DefaultAlignmentThreshold}

	cmd := &cobra.Command{
		Use:   "validate SCAN1 SCAN2",
		Short: "Validate the alignment between two scans",
		Long: `Compare two registered scans against an alignment threshold in metres.
Alignment checking is not available yet; inputs are checked and the plan is reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.Scan1, a.Scan2 = args[0], args[1]

			o.Logger.Header("validating alignment")
			return warnNotImplemented(ctx, o.Operator.ValidateAlignment(ctx, a))
		},
	}

	cmd.Flags().StringVar(&a.Report, "report", "", "HTML report output path")
	cmd.Flags().Float64Var(&a.Threshold, "threshold", operation.DefaultAlignmentThreshold, "alignment threshold in metres")

	return cmd
}
