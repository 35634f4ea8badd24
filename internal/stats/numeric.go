// Package stats computes descriptive statistics over elapsed-time buckets.
package stats

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
)

const millisPerMinute = 60000

// Uint128 is an unsigned 128-bit accumulator, wide enough to sum any number
// of uint64 values seen in practice without overflow.
type Uint128 struct {
	Hi, Lo uint64
}

// Add64 returns u + v.
func (u Uint128) Add64(v uint64) Uint128 {
	lo, carry := bits.Add64(u.Lo, v, 0)
	return Uint128{Hi: u.Hi + carry, Lo: lo}
}

// Float64 returns the nearest float64 to u.
func (u Uint128) Float64() float64 {
	if u.Hi == 0 {
		return float64(u.Lo)
	}
	n := new(big.Int).SetUint64(u.Hi)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(u.Lo))
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

// Sum adds values at 128-bit width.
func Sum(values []uint64) Uint128 {
	var s Uint128
	for _, v := range values {
		s = s.Add64(v)
	}
	return s
}

// Mean is the arithmetic mean, converted to float64 only after summing.
// An empty list has mean 0.
func Mean(values []uint64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values).Float64() / float64(len(values))
}

// TotalMinutes reads values as milliseconds and returns their sum in minutes.
func TotalMinutes(values []uint64) float64 {
	return Sum(values).Float64() / millisPerMinute
}

// Min returns the smallest value, or 0 for an empty list.
func Min(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value, or 0 for an empty list.
func Max(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Percentile is a nearest-rank estimate over ascending values: the element at
// floor((n+1)*p - 1). The index is computed in float32 so results match the
// reference outputs. Indexes outside [0, n-1] are clamped and reported
// through the second return value.
func Percentile(sorted []uint64, p float32) (uint64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	rank := float32(float32(n+1)*p) - 1
	idx := int(math.Floor(float64(rank)))
	switch {
	case idx < 0:
		return sorted[0], true
	case idx >= n:
		return sorted[n-1], true
	}
	return sorted[idx], false
}

// VarianceFunc computes the variance of values around mean.
type VarianceFunc func(values []uint64, mean float64) float64

// SampleVariance divides the squared deviations by n-1, or by 1 when there
// is a single value.
func SampleVariance(values []uint64, mean float64) float64 {
	den := len(values) - 1
	if den < 1 {
		den = 1
	}
	return sumSquaredDeviations(values, mean) / float64(den)
}

// PopulationVariance divides the squared deviations by n.
func PopulationVariance(values []uint64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sumSquaredDeviations(values, mean) / float64(len(values))
}

func sumSquaredDeviations(values []uint64, mean float64) float64 {
	var total float64
	for _, v := range values {
		d := float64(v) - mean
		total += d * d
	}
	return total
}

// VarianceByName maps a configured convention to its VarianceFunc.
func VarianceByName(name string) (VarianceFunc, error) {
	switch name {
	case "sample":
		return SampleVariance, nil
	case "population":
		return PopulationVariance, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariance, name)
	}
}

// StdDev is the square root of the variance computed by variance.
func StdDev(values []uint64, mean float64, variance VarianceFunc) float64 {
	return math.Sqrt(variance(values, mean))
}

// KeepValue reports whether value is retained by the z-score filter: always
// when stdDev is zero, otherwise when |value-mean|/stdDev < threshold.
func KeepValue(value uint64, mean, stdDev, threshold float64) bool {
	if stdDev == 0 {
		return true
	}
	z := (float64(value) - mean) / stdDev
	return math.Abs(z) < threshold
}
