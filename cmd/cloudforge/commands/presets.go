package commands

import (
	"github.com/spf13/cobra"
	"github.com/thespruceforge/cloudforge/cmd/cloudforge/opts"
	"github.com/thespruceforge/cloudforge/pkg/config"
	"github.com/thespruceforge/cloudforge/pkg/config/parser"
	"gitlab.com/tozd/go/errors"
)

// NewListPresetsCmd creates the list-presets command
func NewListPresetsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list-presets",
		Short: "List available scanner presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			names, err := o.Manager.ListPresets(ctx)
			if err != nil {
				return errors.Errorf("listing presets: %w", err)
			}
			if len(names) == 0 {
				o.Logger.Info("No presets found.")
				return nil
			}

			o.Logger.Info("Available presets:")
			for _, name := range names {
				cfg, err := o.Manager.GetConfig(ctx, name)
				if err != nil {
					o.Logger.Detailf("%-20s - ⚠ invalid preset: %v", name, err)
					continue
				}
				o.Logger.Detailf("%-20s - %s (%.1fmm noise)", name, cfg.Scanner.Name, cfg.Scanner.TypicalNoise*1000)
			}
			return nil
		},
	}
}

// NewCreatePresetCmd creates the create-preset command
func NewCreatePresetCmd(o *opts.RootOpts) *cobra.Command {
	var (
		name     string
		scanner  string
		noiseMM  float64
		template string
	)

	cmd := &cobra.Command{
		Use:   "create-preset",
		Short: "Create a preset for a new scanner",
		Long: `Create a preset from a template in <config-dir>/templates. Without a
matching template the built-in defaults are scaled by the scanner noise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if noiseMM <= 0 {
				return errors.Errorf("noise must be greater than 0mm, got %g", noiseMM)
			}

			cfg, err := o.Manager.CreatePresetFromTemplate(ctx, name, scanner, noiseMM/1000, template)
			if err != nil {
				return errors.Errorf("creating preset %q: %w", name, err)
			}

			o.Logger.Successf("Created preset '%s' for %s", name, scanner)
			o.Logger.Detailf("Noise level: %.1fmm", cfg.Scanner.TypicalNoise*1000)
			o.Logger.Detailf("Voxel size:  %.1fmm", cfg.Thinning.VoxelSize*1000)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "preset name")
	cmd.Flags().StringVar(&scanner, "scanner", "", "scanner model name")
	cmd.Flags().Float64Var(&noiseMM, "noise", 0, "typical scanner noise in millimetres")
	cmd.Flags().StringVar(&template, "based-on", config.DefaultTemplate, "template to start from")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("scanner")
	_ = cmd.MarkFlagRequired("noise")

	return cmd
}

// NewValidateConfigCmd creates the validate-config command
func NewValidateConfigCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config FILE",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			cfg, err := o.Manager.ValidateConfigFile(ctx, path)
			if err != nil {
				return errors.Errorf("configuration file %s is invalid: %w", path, err)
			}

			o.Logger.Successf("Configuration file %s is valid", path)
			o.Logger.Detail(cfg.String())
			return nil
		},
	}
}

// NewExportPresetCmd creates the export-preset command
func NewExportPresetCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "export-preset NAME OUTPUT",
		Short: "Write a preset to a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, output := args[0], args[1]

			if err := o.Manager.ExportConfig(ctx, name, output); err != nil {
				return err
			}
			o.Logger.Successf("Exported preset '%s' to %s", name, output)
			return nil
		},
	}
}

// NewSuggestPresetCmd creates the suggest-preset command
func NewSuggestPresetCmd(o *opts.RootOpts) *cobra.Command {
	var (
		scanner   string
		points    int
		intensity bool
		save      string
	)

	cmd := &cobra.Command{
		Use:   "suggest-preset",
		Short: "Suggest processing parameters for a scanner and cloud size",
		Long: `Derive a configuration from the scanner's typical noise and the point
count. The result is printed as YAML, or saved as a preset with --save.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if points < 0 {
				return errors.Errorf("points must not be negative, got %d", points)
			}

			cfg, err := o.Manager.AdaptiveConfig(ctx, scanner, points, intensity)
			if err != nil {
				return errors.Errorf("suggesting preset: %w", err)
			}

			if save != "" {
				if err := o.Manager.SavePreset(ctx, save, cfg); err != nil {
					return errors.Errorf("saving preset %q: %w", save, err)
				}
				o.Logger.Successf("Saved suggested preset '%s'", save)
				o.Logger.Detail(cfg.String())
				return nil
			}

			data, err := parser.EncodeYAML(cfg)
			if err != nil {
				return errors.Errorf("encoding suggestion: %w", err)
			}
			_, err = o.Logger.Console().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&scanner, "scanner", "", "scanner model name")
	cmd.Flags().IntVar(&points, "points", 0, "number of points in the cloud")
	cmd.Flags().BoolVar(&intensity, "intensity", false, "the cloud carries intensity values")
	cmd.Flags().StringVar(&save, "save", "", "save the suggestion as a preset with this name")
	_ = cmd.MarkFlagRequired("scanner")

	return cmd
}

// NewInitPresetsCmd creates the init-presets command
func NewInitPresetsCmd(o *opts.RootOpts) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-presets",
		Short: "Install the built-in scanner presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			written, err := o.Manager.InstallBuiltins(ctx, force)
			for _, name := range written {
				o.Logger.Detailf("+ %s", name)
			}
			if err != nil {
				return errors.Errorf("installing presets: %w", err)
			}
			if len(written) == 0 {
				o.Logger.Info("All built-in presets already installed.")
				return nil
			}
			o.Logger.Successf("Installed %d presets into %s", len(written), o.Manager.PresetsDir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing presets")

	return cmd
}
