package operation

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/cloudio"
	"github.com/thespruceforge/cloudforge/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// ErrOverwritesInput is reported for an output that would replace the input file.
var ErrOverwritesInput = errors.Base("output would overwrite the input file")

// 🔄 ConvertOptions describes a one-to-many format conversion
type ConvertOptions struct {
	Input   string
	Output  string   // base path, extension replaced per format; defaults to <dir>/<stem>_converted
	Formats []string // defaults to every export format
}

// Base resolves the path whose extension is replaced per format.
func (c ConvertOptions) Base() string {
	if c.Output != "" {
		return c.Output
	}
	stem := strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))
	return filepath.Join(filepath.Dir(c.Input), stem+"_converted")
}

// samePath compares two paths after making them absolute
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// 🔄 Convert loads Input once and writes it in every requested format.
// An output that resolves to Input is never written. Per-format failures
// are logged and joined into the returned error.
func (o *Operator) Convert(ctx context.Context, opts ConvertOptions) (map[string]error, error) {
	logger := log.FromContext(ctx)

	cloud, info, err := o.load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}
	logger.Info(printer.Sprintf("Loaded %d points from %s file", info.Points, info.Format))

	base := opts.Base()
	outputs := cloudio.Outputs(base, opts.Formats)

	results := make(map[string]error, len(outputs))
	var formats []string
	for ext, path := range outputs {
		if samePath(path, opts.Input) {
			results[ext] = errors.Errorf("%w: %s", ErrOverwritesInput, path)
			continue
		}
		formats = append(formats, ext)
	}
	if len(formats) > 0 {
		maps.Copy(results, o.exporter.BatchExport(ctx, cloud, base, formats))
	}

	var errs []error
	for _, ext := range slices.Sorted(maps.Keys(results)) {
		r := log.FileResult{Path: outputs[ext], Format: strings.TrimPrefix(ext, ".")}
		if err := results[ext]; err != nil {
			r.Failed = true
			r.Detail = err.Error()
			errs = append(errs, errors.Errorf("%s: %w", ext, err))
		} else {
			r.Detail = printer.Sprintf("%d points", cloud.Len())
		}
		logger.FileResult(r)
	}
	return results, errors.Join(errs...)
}
