// Package maintainability computes the composite Maintainability Index (F)
// from already-computed cyclomatic and Halstead results.
package maintainability

import "math"

// Options configures the MI calculation's comment-percentage input.
type Options struct {
	// MultiStringAsComment counts multi-line-string-covered lines toward
	// the comment percentage when true (the default per spec.md §6).
	MultiStringAsComment bool
}

// DefaultOptions returns the spec-default MI options.
func DefaultOptions() Options {
	return Options{MultiStringAsComment: true}
}

// Result is the computed MI and its letter rank.
type Result struct {
	MI   float64
	Rank string
}

// Compute implements spec.md §4.F. volume is the file's total Halstead
// volume, complexity its total cyclomatic complexity, lloc its logical line
// count, and sloc/singleComments/multi the raw counter's line tallies used
// to derive the comment percentage.
func Compute(volume, complexity float64, lloc int, sloc, singleComments, multi int, opts Options) Result {
	if volume <= 0 || lloc == 0 {
		return Result{MI: 100, Rank: rankFor(100)}
	}

	cp := commentPercentage(sloc, singleComments, multi, opts)

	nn := 171 - 5.2*math.Log(volume) - 0.23*complexity - 16.2*math.Log(float64(lloc)) +
		50*math.Sin(math.Sqrt(2.46*toRadians(cp)))

	mi := clamp(nn*100/171, 0, 100)

	return Result{MI: mi, Rank: rankFor(mi)}
}

func commentPercentage(sloc, singleComments, multi int, opts Options) float64 {
	if sloc == 0 {
		return 0
	}

	commentLines := singleComments
	if opts.MultiStringAsComment {
		commentLines += multi
	}

	return float64(commentLines) / float64(sloc) * 100
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func rankFor(mi float64) string {
	switch {
	case mi > 19:
		return "A"
	case mi > 9:
		return "B"
	default:
		return "C"
	}
}
