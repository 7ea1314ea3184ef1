package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thespruceforge/cloudforge/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// BIMElements are the element kinds ExtractBIM accepts.
var BIMElements = []string{"walls", "floors", "ceilings", "doors", "windows", "columns", "beams"}

// BIMFormats are the output formats ExtractBIM accepts.
var BIMFormats = []string{"ifc", "json"}

// 🏗️ BIMOptions describes an element extraction
type BIMOptions struct {
	Input    string
	Elements []string
	Format   string
	Output   string // defaults to <dir>/<stem>_bim.<format>
}

// OutputPath resolves where ExtractBIM would write.
func (b BIMOptions) OutputPath() string {
	if b.Output != "" {
		return b.Output
	}
	stem := strings.TrimSuffix(filepath.Base(b.Input), filepath.Ext(b.Input))
	return filepath.Join(filepath.Dir(b.Input), fmt.Sprintf("%s_bim.%s", stem, b.Format))
}

func (b BIMOptions) validate() error {
	var errs []error
	if err := requireFile(b.Input); err != nil {
		errs = append(errs, err)
	}
	if len(b.Elements) == 0 {
		errs = append(errs, errors.New("at least one element is required"))
	}
	for _, e := range b.Elements {
		if !slices.Contains(BIMElements, e) {
			errs = append(errs, errors.Errorf("unknown element %q (supported: %s)", e, strings.Join(BIMElements, ", ")))
		}
	}
	if !slices.Contains(BIMFormats, b.Format) {
		errs = append(errs, errors.Errorf("unknown format %q (supported: %s)", b.Format, strings.Join(BIMFormats, ", ")))
	}
	return errors.Join(errs...)
}

// ParseElements splits a comma separated element list, dropping blanks.
func ParseElements(list string) []string {
	var out []string
	for _, e := range strings.Split(list, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// 🏗️ ExtractBIM checks its inputs and reports what it would extract.
// Extraction itself is not available and always ends in ErrNotImplemented.
func (o *Operator) ExtractBIM(ctx context.Context, opts BIMOptions) error {
	if err := opts.validate(); err != nil {
		return errors.Errorf("invalid BIM extraction: %w", err)
	}
	log.FromContext(ctx).Infof("Would extract: %s from %s into %s", strings.Join(opts.Elements, ", "), opts.Input, opts.OutputPath())
	return errors.Errorf("BIM extraction: %w", ErrNotImplemented)
}

// 📏 AlignmentOptions describes a comparison between two scans
type AlignmentOptions struct {
	Scan1     string
	Scan2     string
	Report    string  // optional HTML report path
	Threshold float64 // metres
}

// DefaultAlignmentThreshold is the alignment tolerance in metres.
const DefaultAlignmentThreshold = 0.05

func (a AlignmentOptions) validate() error {
	var errs []error
	for _, scan := range []string{a.Scan1, a.Scan2} {
		if err := requireFile(scan); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Threshold <= 0 {
		errs = append(errs, errors.Errorf("threshold must be greater than 0, got %g", a.Threshold))
	}
	return errors.Join(errs...)
}

// 📏 ValidateAlignment checks its inputs and reports what it would compare.
// Alignment checking is not available and always ends in ErrNotImplemented.
func (o *Operator) ValidateAlignment(ctx context.Context, opts AlignmentOptions) error {
	if err := opts.validate(); err != nil {
		return errors.Errorf("invalid alignment validation: %w", err)
	}
	log.FromContext(ctx).Infof("Would validate alignment between %s and %s (threshold %.3fm)", opts.Scan1, opts.Scan2, opts.Threshold)
	return errors.Errorf("alignment validation: %w", ErrNotImplemented)
}
