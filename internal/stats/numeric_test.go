package stats

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleValues = []uint64{100, 25, 1455, 976, 15555, 26, 777, 134, 843, 271}

func TestMinMaxBoundEveryElement(t *testing.T) {
	lists := [][]uint64{
		sampleValues,
		{7},
		{3, 3, 3},
		{math.MaxUint64, 0, 12},
	}
	for _, values := range lists {
		lo, hi := Min(values), Max(values)
		for _, v := range values {
			assert.LessOrEqual(t, lo, v)
			assert.GreaterOrEqual(t, hi, v)
		}
	}
	assert.Equal(t, uint64(25), Min(sampleValues))
	assert.Equal(t, uint64(15555), Max(sampleValues))
}

func TestEmptyInputsDefaultToZero(t *testing.T) {
	assert.Equal(t, uint64(0), Min(nil))
	assert.Equal(t, uint64(0), Max(nil))
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, TotalMinutes(nil))
	v, clamped := Percentile(nil, 0.5)
	assert.Equal(t, uint64(0), v)
	assert.False(t, clamped)
	assert.Equal(t, 0.0, PopulationVariance(nil, 0))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2016.2, Mean(sampleValues))
	assert.Equal(t, 15.0, Mean([]uint64{10, 20}))
}

func TestMeanOfIdenticalValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 977, 1 << 40} {
		values := []uint64{v, v, v, v, v, v, v}
		assert.Equal(t, float64(v), Mean(values))
	}
}

func TestSumUsesFullWidth(t *testing.T) {
	s := Sum([]uint64{math.MaxUint64, 1})
	assert.Equal(t, Uint128{Hi: 1, Lo: 0}, s)
	assert.Equal(t, 18446744073709551616.0, s.Float64())

	assert.Equal(t, 18446744073709551616.0, Mean([]uint64{math.MaxUint64, math.MaxUint64}))
}

func TestTotalMinutes(t *testing.T) {
	assert.Equal(t, 1.5, TotalMinutes([]uint64{60000, 30000}))
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := slices.Clone(sampleValues)
	slices.Sort(sorted)

	tests := []struct {
		frac float32
		want uint64
	}{
		{0.1, 25},
		{0.25, 26},
		{0.5, 271},
		{0.75, 976},
		{0.9, 1455},
	}
	for _, tt := range tests {
		got, clamped := Percentile(sorted, tt.frac)
		assert.Equal(t, tt.want, got, "p=%v", tt.frac)
		assert.False(t, clamped)
	}
}

func TestPercentileIgnoresInputOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := slices.Clone(sampleValues)
	slices.Sort(base)

	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(sampleValues)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		slices.Sort(shuffled)
		for _, p := range []float32{0.1, 0.25, 0.5, 0.75, 0.9} {
			want, _ := Percentile(base, p)
			got, _ := Percentile(shuffled, p)
			assert.Equal(t, want, got)
		}
	}
}

func TestPercentileClampsSmallBuckets(t *testing.T) {
	single := []uint64{42}

	v, clamped := Percentile(single, 0.1)
	assert.Equal(t, uint64(42), v)
	assert.True(t, clamped)

	v, clamped = Percentile(single, 0.5)
	assert.Equal(t, uint64(42), v)
	assert.False(t, clamped)

	v, clamped = Percentile([]uint64{1, 2}, 0.9)
	assert.Equal(t, uint64(2), v)
	assert.False(t, clamped)

	v, clamped = Percentile([]uint64{1, 2}, 1.0)
	assert.Equal(t, uint64(2), v)
	assert.True(t, clamped)
}

func TestSampleVariance(t *testing.T) {
	// squared deviations of {2, 4, 4, 4, 5, 5, 7, 9} around 5 sum to 32
	values := []uint64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 32.0/7.0, SampleVariance(values, Mean(values)), 1e-12)
	assert.InDelta(t, 4.0, PopulationVariance(values, Mean(values)), 1e-12)

	assert.Equal(t, 0.0, SampleVariance([]uint64{9}, 9))
	assert.Equal(t, 16.0, SampleVariance([]uint64{9}, 5))
}

func TestStdDevOfIdenticalValuesIsZero(t *testing.T) {
	values := []uint64{5, 5, 5, 5}
	mean := Mean(values)
	for _, variance := range []VarianceFunc{SampleVariance, PopulationVariance} {
		sd := StdDev(values, mean, variance)
		assert.Equal(t, 0.0, sd)
		for _, threshold := range []float64{0.0001, 1, 3} {
			for _, v := range values {
				assert.True(t, KeepValue(v, mean, sd, threshold))
			}
		}
	}
}

func TestKeepValue(t *testing.T) {
	assert.True(t, KeepValue(12, 10, 1, 3))
	assert.False(t, KeepValue(13, 10, 1, 3), "|z| == threshold is an outlier")
	assert.False(t, KeepValue(7, 10, 1, 3))
	assert.True(t, KeepValue(1000, 10, 0, 3))
}

func TestOutlierInSampleValues(t *testing.T) {
	mean := Mean(sampleValues)
	sample := StdDev(sampleValues, mean, SampleVariance)
	population := StdDev(sampleValues, mean, PopulationVariance)

	// With ten values no z-score can reach 3 under either convention.
	assert.True(t, KeepValue(15555, mean, sample, DefaultOutlierThreshold))
	assert.True(t, KeepValue(15555, mean, population, DefaultOutlierThreshold))

	assert.False(t, KeepValue(15555, mean, sample, 2.5))
	for _, v := range sampleValues {
		if v != 15555 {
			assert.True(t, KeepValue(v, mean, sample, 2.5), "value %d", v)
		}
	}
}

func TestVarianceByName(t *testing.T) {
	fn, err := VarianceByName("sample")
	require.NoError(t, err)
	assert.Equal(t, 16.0, fn([]uint64{9}, 5))

	fn, err = VarianceByName("population")
	require.NoError(t, err)
	assert.Equal(t, 4.0, fn([]uint64{3, 7}, 5))

	_, err = VarianceByName("median")
	require.ErrorIs(t, err, ErrUnknownVariance)
}
