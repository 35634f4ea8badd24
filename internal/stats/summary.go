package stats

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/aggregate"
)

// DefaultOutlierThreshold is the z-score above which a value is an outlier.
const DefaultOutlierThreshold = 3.0

// Percentile fractions reported for every bucket.
const (
	fracQ10    float32 = 0.1
	fracQ25    float32 = 0.25
	fracMedian float32 = 0.5
	fracQ75    float32 = 0.75
	fracQ90    float32 = 0.9
)

// Summary holds the statistics shared by every view.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    uint64  `json:"min"`
	Max    uint64  `json:"max"`
	Q10    uint64  `json:"q10"`
	Q25    uint64  `json:"q25"`
	Median uint64  `json:"median"`
	Q75    uint64  `json:"q75"`
	Q90    uint64  `json:"q90"`
}

// TotalStatistics is one row of the total view. Total is in minutes.
type TotalStatistics struct {
	Name string `json:"name"`
	Summary
	Total float64 `json:"total"`
}

// GroupStatistics is one row of the per-group view.
type GroupStatistics struct {
	Name  string `json:"name"`
	Chain string `json:"chain"`
	Summary
}

// Report bundles the three statistics collections of a run.
type Report struct {
	Total    []TotalStatistics
	Filtered []TotalStatistics
	PerGroup []GroupStatistics
}

// Engine turns buckets into sorted statistics collections.
type Engine struct {
	threshold float64
	variance  VarianceFunc
	logger    *zap.Logger
}

// NewEngine creates an Engine. A nil variance uses SampleVariance.
func NewEngine(threshold float64, variance VarianceFunc, logger *zap.Logger) *Engine {
	if variance == nil {
		variance = SampleVariance
	}
	return &Engine{
		threshold: threshold,
		variance:  variance,
		logger:    logger,
	}
}

// Build computes both views from the aggregated buckets.
func (e *Engine) Build(b aggregate.Buckets) Report {
	total, filtered := e.TotalView(b.Total)
	return Report{
		Total:    total,
		Filtered: filtered,
		PerGroup: e.PerGroupView(b.PerGroup),
	}
}

// TotalView returns, per name in lexicographic order, the statistics over all
// values and over the values kept by the z-score filter. The filter uses the
// mean and standard deviation of the unfiltered values.
func (e *Engine) TotalView(total map[string][]uint64) (all, filtered []TotalStatistics) {
	names := make([]string, 0, len(total))
	for name := range total {
		names = append(names, name)
	}
	slices.Sort(names)

	all = make([]TotalStatistics, 0, len(names))
	filtered = make([]TotalStatistics, 0, len(names))
	for _, name := range names {
		values := sortedCopy(total[name])

		mean := Mean(values)
		stdDev := StdDev(values, mean, e.variance)
		kept := make([]uint64, 0, len(values))
		for _, v := range values {
			if KeepValue(v, mean, stdDev, e.threshold) {
				kept = append(kept, v)
			}
		}
		if dropped := len(values) - len(kept); dropped > 0 {
			e.logger.Debug("Outliers excluded",
				zap.String("name", name),
				zap.Int("dropped", dropped),
				zap.Float64("mean", mean),
				zap.Float64("std_dev", stdDev),
			)
		}

		all = append(all, TotalStatistics{
			Name:    name,
			Summary: e.summarize(name, "", values),
			Total:   TotalMinutes(values),
		})
		filtered = append(filtered, TotalStatistics{
			Name:    name,
			Summary: e.summarize(name, "", kept),
			Total:   TotalMinutes(kept),
		})
	}
	return all, filtered
}

// PerGroupView returns statistics per (name, group), sorted by name then group.
// No outlier filtering is applied.
func (e *Engine) PerGroupView(perGroup map[aggregate.GroupKey][]uint64) []GroupStatistics {
	keys := make([]aggregate.GroupKey, 0, len(perGroup))
	for key := range perGroup {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b aggregate.GroupKey) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Group, b.Group)
	})

	out := make([]GroupStatistics, 0, len(keys))
	for _, key := range keys {
		out = append(out, GroupStatistics{
			Name:    key.Name,
			Chain:   key.Group,
			Summary: e.summarize(key.Name, key.Group, sortedCopy(perGroup[key])),
		})
	}
	return out
}

func (e *Engine) summarize(name, group string, sorted []uint64) Summary {
	s, clamped := Summarize(sorted)
	if clamped {
		e.logger.Debug("Percentile rank clamped into range",
			zap.String("name", name),
			zap.String("group", group),
			zap.Int("count", s.Count),
		)
	}
	return s
}

// Summarize computes a Summary over ascending values. The boolean reports
// whether any percentile rank had to be clamped.
func Summarize(sorted []uint64) (Summary, bool) {
	s := Summary{
		Count: len(sorted),
		Mean:  Mean(sorted),
		Min:   Min(sorted),
		Max:   Max(sorted),
	}
	var clamped bool
	for _, q := range []struct {
		dst  *uint64
		frac float32
	}{
		{&s.Q10, fracQ10},
		{&s.Q25, fracQ25},
		{&s.Median, fracMedian},
		{&s.Q75, fracQ75},
		{&s.Q90, fracQ90},
	} {
		v, c := Percentile(sorted, q.frac)
		*q.dst = v
		clamped = clamped || c
	}
	return s, clamped
}

func sortedCopy(values []uint64) []uint64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
