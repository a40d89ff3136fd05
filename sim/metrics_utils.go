// sim/metrics_utils.go
package sim

import (
	"math"
	"slices"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// CalculateMean returns the arithmetic mean of data, or NaN when data is empty.
func CalculateMean[T IntOrFloat64](data []T) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data))
}

// CalculatePercentile returns the p-th percentile (0..100) of data using
// linear interpolation between closest ranks. data need not be sorted.
// Returns NaN when data is empty.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)

	rank := p / 100.0 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if upper >= n {
		return float64(sorted[n-1])
	}
	if lower == upper {
		return float64(sorted[lower])
	}
	return float64(sorted[lower]) + float64(sorted[upper]-sorted[lower])*(rank-float64(lower))
}
