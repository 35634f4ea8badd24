// Package aggregate buckets timer measurements by name and by (name, group).
package aggregate

import "github.com/sanspareilsmyn/timerlens/internal/record"

// GroupKey identifies a per-group bucket.
type GroupKey struct {
	Name  string
	Group string
}

// Buckets holds the elapsed values seen for each key, in input order.
type Buckets struct {
	Total    map[string][]uint64
	PerGroup map[GroupKey][]uint64
}

// Aggregator fills Buckets from parsed records. No filtering or ordering
// happens here.
type Aggregator struct {
	buckets Buckets
	records int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		buckets: Buckets{
			Total:    make(map[string][]uint64),
			PerGroup: make(map[GroupKey][]uint64),
		},
	}
}

// Add appends the record's elapsed value to its total and per-group buckets.
func (a *Aggregator) Add(rec record.TimerRecord) {
	a.buckets.Total[rec.Name] = append(a.buckets.Total[rec.Name], rec.Elapsed)
	key := GroupKey{Name: rec.Name, Group: rec.GroupKey}
	a.buckets.PerGroup[key] = append(a.buckets.PerGroup[key], rec.Elapsed)
	a.records++
}

// AddAll adds every record in order.
func (a *Aggregator) AddAll(recs []record.TimerRecord) {
	for _, rec := range recs {
		a.Add(rec)
	}
}

// Records returns how many records have been added.
func (a *Aggregator) Records() int {
	return a.records
}

// Buckets hands over the accumulated buckets.
func (a *Aggregator) Buckets() Buckets {
	return a.buckets
}
