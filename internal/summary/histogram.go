package summary

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram mirrors TensorFlow's HistogramProto. Bucket i counts values in
// [BucketLimits[i-1], BucketLimits[i]); only non-empty buckets are kept.
type Histogram struct {
	Min, Max, Num, Sum, SumSquares float64
	BucketLimits                   []float64
	Buckets                        []float64
}

// standardLimits are TensorFlow's default exponential bucket limits:
// ±1e-12·1.1^k up to 1e20, zero, and ±MaxFloat64.
var standardLimits = func() []float64 {
	var pos []float64
	for v := 1e-12; v < 1e20; v *= 1.1 {
		pos = append(pos, v)
	}
	pos = append(pos, math.MaxFloat64)

	limits := make([]float64, 0, 2*len(pos)+1)
	for i := len(pos) - 1; i >= 0; i-- {
		limits = append(limits, -pos[i])
	}
	limits = append(limits, 0)
	return append(limits, pos...)
}()

// NewHistogram summarizes values. Non-finite values are ignored.
func NewHistogram(values []float64) *Histogram {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && math.Abs(v) < math.MaxFloat64 {
			xs = append(xs, v)
		}
	}
	h := &Histogram{Num: float64(len(xs))}
	if len(xs) == 0 {
		return h
	}
	slices.Sort(xs)

	h.Min = xs[0]
	h.Max = xs[len(xs)-1]
	h.Sum = floats.Sum(xs)
	h.SumSquares = floats.Dot(xs, xs)

	// stat.Histogram counts dividers[i] <= x < dividers[i+1]; prepend -Inf so
	// count i lands under upper limit standardLimits[i].
	dividers := make([]float64, 0, len(standardLimits)+1)
	dividers = append(dividers, math.Inf(-1))
	dividers = append(dividers, standardLimits...)
	counts := stat.Histogram(nil, dividers, xs, nil)

	for i, c := range counts {
		if c == 0 {
			continue
		}
		h.BucketLimits = append(h.BucketLimits, standardLimits[i])
		h.Buckets = append(h.Buckets, c)
	}
	return h
}

// ZeroFraction returns the fraction of values equal to zero (0 for empty input).
func ZeroFraction(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	zeros := 0
	for _, v := range values {
		if v == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(values))
}
