package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sanspareilsmyn/timerlens/internal/aggregate"
)

func newTestEngine(t *testing.T, threshold float64) *Engine {
	t.Helper()
	return NewEngine(threshold, SampleVariance, zaptest.NewLogger(t))
}

func TestSummarize(t *testing.T) {
	sorted := sortedCopy(sampleValues)

	s, clamped := Summarize(sorted)
	assert.False(t, clamped)
	assert.Equal(t, Summary{
		Count:  10,
		Mean:   2016.2,
		Min:    25,
		Max:    15555,
		Q10:    25,
		Q25:    26,
		Median: 271,
		Q75:    976,
		Q90:    1455,
	}, s)
}

func TestSummarizeSingleValueClamps(t *testing.T) {
	s, clamped := Summarize([]uint64{8})
	assert.True(t, clamped)
	assert.Equal(t, Summary{Count: 1, Mean: 8, Min: 8, Max: 8, Q10: 8, Q25: 8, Median: 8, Q75: 8, Q90: 8}, s)
}

func TestEngineTwoRecordScenario(t *testing.T) {
	e := newTestEngine(t, DefaultOutlierThreshold)
	report := e.Build(aggregate.Buckets{
		Total: map[string][]uint64{"a": {10, 20}},
		PerGroup: map[aggregate.GroupKey][]uint64{
			{Name: "a", Group: "y"}: {20},
			{Name: "a", Group: "x"}: {10},
		},
	})

	require.Len(t, report.Total, 1)
	total := report.Total[0]
	assert.Equal(t, "a", total.Name)
	assert.Equal(t, 2, total.Count)
	assert.Equal(t, 15.0, total.Mean)
	assert.Equal(t, uint64(10), total.Min)
	assert.Equal(t, uint64(20), total.Max)
	assert.Equal(t, 30.0/60000, total.Total)

	require.Len(t, report.Filtered, 1)
	assert.Equal(t, total, report.Filtered[0])

	require.Len(t, report.PerGroup, 2)
	assert.Equal(t, "x", report.PerGroup[0].Chain)
	assert.Equal(t, 1, report.PerGroup[0].Count)
	assert.Equal(t, 10.0, report.PerGroup[0].Mean)
	assert.Equal(t, "y", report.PerGroup[1].Chain)
	assert.Equal(t, 1, report.PerGroup[1].Count)
	assert.Equal(t, 20.0, report.PerGroup[1].Mean)
}

func TestTotalViewFiltersAgainstUnfilteredMoments(t *testing.T) {
	e := newTestEngine(t, 2.5)
	all, filtered := e.TotalView(map[string][]uint64{"q": sampleValues})

	require.Len(t, all, 1)
	require.Len(t, filtered, 1)
	assert.Equal(t, 10, all[0].Count)
	assert.Equal(t, uint64(15555), all[0].Max)

	f := filtered[0]
	assert.Equal(t, "q", f.Name)
	assert.Equal(t, 9, f.Count)
	assert.Equal(t, uint64(1455), f.Max)
	assert.Equal(t, uint64(25), f.Min)
	assert.InDelta(t, 4607.0/9.0, f.Mean, 1e-9)
	assert.Equal(t, uint64(271), f.Median)
	assert.Equal(t, 4607.0/60000, f.Total)
}

func TestTotalViewKeepsEverythingAtDefaultThreshold(t *testing.T) {
	e := newTestEngine(t, DefaultOutlierThreshold)
	all, filtered := e.TotalView(map[string][]uint64{"q": sampleValues})
	assert.Equal(t, all, filtered)
}

func TestViewsAreSorted(t *testing.T) {
	e := newTestEngine(t, DefaultOutlierThreshold)

	all, _ := e.TotalView(map[string][]uint64{"b": {1}, "a": {1}, "B": {1}})
	var names []string
	for _, s := range all {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"B", "a", "b"}, names)

	groups := e.PerGroupView(map[aggregate.GroupKey][]uint64{
		{Name: "b", Group: "a"}: {1},
		{Name: "a", Group: "z"}: {1},
		{Name: "a", Group: "b"}: {1},
	})
	var keys []aggregate.GroupKey
	for _, g := range groups {
		keys = append(keys, aggregate.GroupKey{Name: g.Name, Group: g.Chain})
	}
	assert.Equal(t, []aggregate.GroupKey{
		{Name: "a", Group: "b"},
		{Name: "a", Group: "z"},
		{Name: "b", Group: "a"},
	}, keys)
}

func TestTotalViewDoesNotReorderBuckets(t *testing.T) {
	values := []uint64{3, 1, 2}
	newTestEngine(t, DefaultOutlierThreshold).TotalView(map[string][]uint64{"a": values})
	assert.Equal(t, []uint64{3, 1, 2}, values)
}

func TestNewEngineDefaultsToSampleVariance(t *testing.T) {
	e := NewEngine(DefaultOutlierThreshold, nil, zaptest.NewLogger(t))
	assert.Equal(t, 16.0, e.variance([]uint64{9}, 5))
}
