// Package metricspipeline runs the raw, cyclomatic, Halstead, and
// maintainability visitors against one file's shared parse tree and
// composes their outputs into a single per-file result (component G).
package metricspipeline

import (
	"context"
	"fmt"

	"github.com/basalt-metrics/pyquality/internal/cyclomatic"
	"github.com/basalt-metrics/pyquality/internal/halstead"
	"github.com/basalt-metrics/pyquality/internal/maintainability"
	"github.com/basalt-metrics/pyquality/internal/pyast"
	"github.com/basalt-metrics/pyquality/internal/rawcount"
)

// OperatorMask selects which families of metrics a call to Analyze computes.
// Unknown names passed to NewOperatorMask are silently ignored, per spec.md
// §6's invalid-argument policy.
type OperatorMask struct {
	Raw             bool
	Cyclomatic      bool
	Halstead        bool
	Maintainability bool
}

// NewOperatorMask builds a mask from the operator-name set of spec.md §6.
func NewOperatorMask(names []string) OperatorMask {
	var mask OperatorMask

	for _, n := range names {
		switch n {
		case "raw":
			mask.Raw = true
		case "cyclomatic":
			mask.Cyclomatic = true
		case "halstead":
			mask.Halstead = true
		case "maintainability":
			mask.Maintainability = true
		}
	}

	return mask
}

// FullMask selects every operator.
func FullMask() OperatorMask {
	return OperatorMask{Raw: true, Cyclomatic: true, Halstead: true, Maintainability: true}
}

// Options bundles the per-file pipeline's configuration knobs.
type Options struct {
	Mask      OperatorMask
	NoAssert  bool
	MIOptions maintainability.Options
}

// DefaultOptions returns the spec-default per-file pipeline options.
func DefaultOptions() Options {
	return Options{
		Mask:      FullMask(),
		NoAssert:  true,
		MIOptions: maintainability.DefaultOptions(),
	}
}

// AnalyzedFile is the transient per-file product of the pipeline. Only the
// fields named by the caller's operator mask are populated; the rest are
// left at their zero value and must not be emitted as store rows.
type AnalyzedFile struct {
	HasRaw  bool
	Raw     rawcount.Metrics

	HasCyclomatic    bool
	CyclomaticTotal  int
	Functions        []cyclomatic.FunctionComplexity
	Classes          []cyclomatic.ClassComplexity

	HasHalstead      bool
	HalsteadTotal    *halstead.Metrics
	FunctionHalstead []halstead.FunctionHalstead

	HasMI bool
	MI    maintainability.Result
}

// ParseError marks a file that failed to produce a usable parse tree.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("metricspipeline: parse failed: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Analyze parses source once and runs every operator selected by opts.Mask
// against the shared tree, never re-parsing to compute maintainability.
func Analyze(ctx context.Context, source []byte, opts Options) (*AnalyzedFile, error) {
	tree, err := pyast.Parse(ctx, source)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer tree.Close()

	if tree.HasError() {
		return nil, &ParseError{Err: fmt.Errorf("syntax error")}
	}

	var result AnalyzedFile

	if opts.Mask.Raw {
		result.HasRaw = true
		result.Raw = rawcount.Count(source, tree)
	}

	var totalComplexity int

	var totalVolume float64

	if opts.Mask.Cyclomatic {
		cc := cyclomatic.Analyze(tree, cyclomatic.Options{CountAssert: !opts.NoAssert})
		result.HasCyclomatic = true
		result.Functions = cc.Functions
		result.Classes = cc.Classes

		for _, f := range cc.Functions {
			totalComplexity += f.Complexity
		}

		for _, c := range cc.Classes {
			totalComplexity += c.Complexity
		}

		result.CyclomaticTotal = totalComplexity
	}

	if opts.Mask.Halstead {
		hs := halstead.Analyze(tree)
		result.HasHalstead = true
		result.HalsteadTotal = hs.File
		result.FunctionHalstead = hs.Functions
		totalVolume = hs.File.Derive().Volume
	}

	if opts.Mask.Maintainability {
		raw := result.Raw
		if !result.HasRaw {
			raw = rawcount.Count(source, tree)
		}

		result.HasMI = true
		result.MI = maintainability.Compute(
			totalVolume, float64(totalComplexity), raw.LLOC,
			raw.SLOC, raw.SingleComments, raw.Multi, opts.MIOptions,
		)
	}

	return &result, nil
}
