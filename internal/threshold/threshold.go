// Package threshold implements the statistics behind constant-threshold
// detectors: mean, sample standard deviation, midpoint quartiles, and the
// bound formulas built on them.
package threshold

import (
	"fmt"
	"math"
	"slices"

	"adaptivealerting/aad/internal/domain"
)

// Mean returns the arithmetic mean of sample. The sample must be non-empty;
// callers reject empty samples before reaching here.
func Mean(sample []float64) float64 {
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

// SampleStdDev returns the standard deviation of sample with Bessel's
// correction (n-1 denominator).
func SampleStdDev(sample []float64) (float64, error) {
	if len(sample) < 2 {
		return 0, fmt.Errorf("%w: sample must have at least two elements, got %d", domain.ErrInsufficientData, len(sample))
	}
	mean := Mean(sample)
	sum := 0.0
	for _, v := range sample {
		diff := v - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(sample)-1)), nil
}

// Percentile returns the p-th percentile (0-100) of an ascending sorted
// sample using midpoint interpolation: when the rank p/100*(n-1) falls
// between two order statistics, the result is their midpoint.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	lo = max(0, min(lo, n-1))
	hi = max(0, min(hi, n-1))
	if lo == hi {
		return sorted[lo]
	}
	return (sorted[lo] + sorted[hi]) / 2
}

// Quartiles returns the 25th, 50th and 75th percentiles of sample using
// midpoint interpolation. These can differ from quartiles computed by hand
// or with linear interpolation. sample is not modified.
func Quartiles(sample []float64) (q1, median, q3 float64) {
	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	return Percentile(sorted, 25), Percentile(sorted, 50), Percentile(sorted, 75)
}

// SigmaThresholds returns mean plus and minus sigma*multiplier.
func SigmaThresholds(sigma, mean, multiplier float64) (upper, lower float64) {
	return mean + sigma*multiplier, mean - sigma*multiplier
}

// QuartileThresholds widens the interquartile range by multiplier on each side.
func QuartileThresholds(q1, q3, multiplier float64) (upper, lower float64) {
	iqr := q3 - q1
	return q3 + iqr*multiplier, q1 - iqr*multiplier
}
