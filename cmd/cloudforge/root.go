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
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/commands"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/config"
	"github.com/thespruceforge/cloudforge/pkg/log"
	"github.com/thespruceforge/cloudforge/pkg/operation"
	"github.com/thespruceforge/cloudforge/pkg/progress"
	"github.com/thespruceforge/cloudforge/pkg/usage"
	"gitlab.com/tozd/go/errors"
)

const defaultConfigDir = "config"

func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVar(&o.ConfigDir, "config-dir", defaultConfigDir, "configuration directory path")
	cmd.PersistentFlags().StringVar(&o.StatsFile, "stats-file", "", "usage statistics file (default <config-dir>/"+usage.DefaultFileName+")")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging builds the structured logger; it stays silent unless debug is set
func setupLogging(stderr io.Writer, debug bool) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// initRootOpts fills in everything derived from the parsed flags
func initRootOpts(ctx context.Context, o *opts.RootOpts, stdout, stderr io.Writer) (context.Context, error) {
	zlog := setupLogging(stderr, o.Debug)
	ctx = zlog.WithContext(ctx)

	o.Logger = log.New(stdout, zlog)
	ctx = log.NewContext(ctx, o.Logger)

	statsFile := o.StatsFile
	if statsFile == "" {
		statsFile = filepath.Join(o.ConfigDir, usage.DefaultFileName)
	}
	o.Stats = usage.NewCollector()
	o.Store = usage.NewStore(statsFile)
	if err := o.Store.Load(ctx, o.Stats); err != nil {
		zlog.Warn().Err(err).Msg("ignoring unreadable usage statistics")
	}
	ctx = usage.NewContext(ctx, o.Stats)

	mgr, err := config.NewManager(ctx, o.ConfigDir)
	if err != nil {
		return ctx, errors.Errorf("creating config manager: %w", err)
	}
	o.Manager = mgr

	op, err := operation.New(operation.Options{Presets: mgr, Progress: o.Progress})
	if err != nil {
		return ctx, errors.Errorf("creating operator: %w", err)
	}
	o.Operator = op
	return ctx, nil
}

// newRootCmd wires every subcommand to a shared RootOpts
func newRootCmd(o *opts.RootOpts, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cloudforge",
		Short: "Scan-to-BIM point cloud processing toolkit",
		Long: `CloudForge loads, converts and exports point clouds (PLY, PCD, LAS/LAZ,
PTS, XYZ) and manages scanner processing presets.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := initRootOpts(cmd.Context(), o, stdout, stderr)
			cmd.SetContext(ctx)
			return err
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetVersionTemplate(FormatVersion())

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewProcessCmd(o),
		commands.NewExtractBIMCmd(o),
		commands.NewValidateCmd(o),
		commands.NewConvertCmd(o),
		commands.NewInfoCmd(o),
		commands.NewListPresetsCmd(o),
		commands.NewCreatePresetCmd(o),
		commands.NewValidateConfigCmd(o),
		commands.NewExportPresetCmd(o),
		commands.NewSuggestPresetCmd(o),
		commands.NewInitPresetsCmd(o),
		commands.NewStatsCmd(o),
		commands.NewResetStatsCmd(o),
	)
	return rootCmd
}

// run executes one CLI invocation. Usage statistics are saved whether or
// not the command succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, progressOpts ...progress.Option) error {
	o := &opts.RootOpts{Progress: append([]progress.Option{progress.WithWriter(stderr)}, progressOpts...)}
	rootCmd := newRootCmd(o, stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)

	if o.Store != nil {
		if saveErr := o.Store.Save(ctx, o.Stats); saveErr != nil {
			err = errors.Join(err, errors.Errorf("saving usage statistics: %w", saveErr))
		}
	}

	if err != nil {
		logger := o.Logger
		if logger == nil {
			logger = log.New(stderr, zerolog.Nop())
		}
		logger.Errorf("%v", err)
	}
	return err
}
