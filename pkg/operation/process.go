package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/cloudio"
	"github.com/thespruceforge/cloudforge/pkg/config/model"
	"github.com/thespruceforge/cloudforge/pkg/log"
	"github.com/thespruceforge/cloudforge/pkg/pointcloud"
	"github.com/thespruceforge/cloudforge/pkg/progress"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultFormat is the output format of Process when none is given.
const DefaultFormat = "ply"

// ⚙️ ProcessOptions describes one processing run
type ProcessOptions struct {
	Input        string
	Preset       string
	Output       string // defaults to <dir>/<stem>_processed.<format>
	Format       string // ignored when Output is set
	SkipCleaning bool
	SkipThinning bool
}

// 📊 ProcessResult summarises a processing run
type ProcessResult struct {
	Config  *model.ProcessingConfig
	Input   cloudio.Info
	Output  cloudio.ExportStats
	Skipped []error // placeholder stages that did not run
}

// OutputPath resolves where Process writes its result.
func (p ProcessOptions) OutputPath() string {
	if p.Output != "" {
		return p.Output
	}
	format := strings.TrimPrefix(cloudio.NormalizeFormat(p.Format), ".")
	if format == "" {
		format = DefaultFormat
	}
	stem := strings.TrimSuffix(filepath.Base(p.Input), filepath.Ext(p.Input))
	return filepath.Join(filepath.Dir(p.Input), fmt.Sprintf("%s_processed.%s", stem, format))
}

var printer = message.NewPrinter(language.English)

// 🏃 Process loads a preset and a cloud, runs cleaning and thinning, then exports
func (o *Operator) Process(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	logger := log.FromContext(ctx)

	if err := requireFile(opts.Input); err != nil {
		return nil, err
	}

	logger.Infof("Loading preset: %s", opts.Preset)
	cfg, err := o.presets.GetConfig(ctx, opts.Preset)
	if err != nil {
		return nil, errors.Errorf("loading preset: %w", err)
	}
	logger.Detail(cfg.String())

	logger.Infof("Loading point cloud: %s", opts.Input)
	cloud, info, err := o.load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	logger.Info(printer.Sprintf("Loaded %d points from %s file", info.Points, info.Format))
	if info.HasColors {
		logger.Success("Point cloud includes color information")
	}
	if info.HasIntensity {
		logger.Success("Point cloud includes intensity information")
	}

	result := &ProcessResult{Config: cfg, Input: info}

	if !opts.SkipCleaning {
		logger.Info("Cleaning point cloud...")
		cloud, err = o.runStage(ctx, "Cleaning", cloud, func(c *pointcloud.Cloud) (*pointcloud.Cloud, error) {
			return o.clean(ctx, c, cfg.Cleaning)
		}, result)
		if err != nil {
			return nil, err
		}
	}

	if !opts.SkipThinning {
		logger.Info("Thinning point cloud...")
		cloud, err = o.runStage(ctx, "Thinning", cloud, func(c *pointcloud.Cloud) (*pointcloud.Cloud, error) {
			return o.thin(ctx, c, cfg.Thinning)
		}, result)
		if err != nil {
			return nil, err
		}
	}

	output := opts.OutputPath()
	logger.Infof("Exporting to: %s", output)
	err = progress.ForPointCloud("Exporting point cloud", cloud.Len(), o.progress...).Run(func(t *progress.Tracker) error {
		if err := o.exporter.Export(ctx, cloud, output, cloudio.ExportOptions{}); err != nil {
			return err
		}
		t.SetProgress(cloud.Len(), "")
		return nil
	})
	if err != nil {
		logger.FileResult(log.FileResult{Path: output, Format: strings.TrimPrefix(cloudio.Ext(output), "."), Detail: err.Error(), Failed: true})
		return nil, errors.Errorf("exporting: %w", err)
	}

	result.Output = o.exporter.LastStats()
	logger.Success(printer.Sprintf("Export completed: %d points", result.Output.PointsExported))
	logger.Detailf("File size: %.1f MB", result.Output.FileSizeMB)
	return result, nil
}

// runStage applies fn; a placeholder stage is reported and the input cloud kept
func (o *Operator) runStage(ctx context.Context, name string, c *pointcloud.Cloud, fn func(*pointcloud.Cloud) (*pointcloud.Cloud, error), result *ProcessResult) (*pointcloud.Cloud, error) {
	var out *pointcloud.Cloud
	err := progress.ForPointCloud(name, c.Len(), o.progress...).Run(func(t *progress.Tracker) error {
		var err error
		out, err = fn(c)
		if err == nil {
			t.SetProgress(c.Len(), "")
		}
		return err
	})

	switch {
	case errors.Is(err, ErrNotImplemented):
		log.FromContext(ctx).Warningf("%s operations not yet implemented", name)
		result.Skipped = append(result.Skipped, err)
		return c, nil
	case err != nil:
		return nil, errors.Errorf("%s: %w", strings.ToLower(name), err)
	}
	if out == nil {
		return c, nil
	}
	return out, nil
}
