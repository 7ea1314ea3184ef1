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
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func yesNo(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// NewInfoCmd creates the info command
func NewInfoCmd(o *opts.RootOpts) *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "info INPUT",
		Short: "Show point cloud metadata and extent",
		Long: `Load a point cloud and print its format, point count, available
attributes and bounding box. With --plot a top-down scatter is written as PNG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := args[0]

			cloud, err := o.Operator.Loader().Load(ctx, input)
			if err != nil {
				return err
			}
			info := o.Operator.Loader().LastInfo()

			o.Logger.Header(input)
			o.Logger.Infof("Format:     %s", info.Format)
			o.Logger.Info(printer.Sprintf("Points:     %d", info.Points))
			o.Logger.Infof("Colors:     %s", yesNo(info.HasColors))
			o.Logger.Infof("Normals:    %s", yesNo(info.HasNormals))
			o.Logger.Infof("Intensity:  %s", yesNo(info.HasIntensity))
			if info.LASVersion != "" {
				o.Logger.Infof("LAS:        %s", info.LASVersion)
			}
			if info.Columns > 0 {
				o.Logger.Infof("Columns:    %d", info.Columns)
			}

			s, err := pointcloud.Summarize(cloud)
			if err != nil {
				return errors.Errorf("summarizing %s: %w", input, err)
			}
			o.Logger.LogNewline()
			o.Logger.Info("Bounding box:")
			o.Logger.Detailf("min       (%.3f, %.3f, %.3f)", s.Min.X, s.Min.Y, s.Min.Z)
			o.Logger.Detailf("max       (%.3f, %.3f, %.3f)", s.Max.X, s.Max.Y, s.Max.Z)
			o.Logger.Detailf("size      %.3f x %.3f x %.3f m", s.Size.X, s.Size.Y, s.Size.Z)
			o.Logger.Detailf("centroid  (%.3f, %.3f, %.3f)", s.Centroid.X, s.Centroid.Y, s.Centroid.Z)
			o.Logger.Detailf("std dev   (%.3f, %.3f, %.3f)", s.StdDev.X, s.StdDev.Y, s.StdDev.Z)

			if plotPath != "" {
				if err := pointcloud.PlotTopView(cloud, input, plotPath, pointcloud.DefaultPlotPoints); err != nil {
					return errors.Errorf("plotting %s: %w", input, err)
				}
				o.Logger.Successf("Top view written to %s", plotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "write a top-down PNG scatter plot")

	return cmd
}
