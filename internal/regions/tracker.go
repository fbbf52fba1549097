// Package regions tracks which target-memory address ranges are covered by
// UF2 payloads.
//
// The tracker keeps a slice of half-open intervals sorted by start address in
// which consecutive entries never touch: r[i].End < r[i+1].Start. Every Add
// locates the affected neighbours with two binary searches and splices the
// merged interval in place.
package regions

import (
	"slices"
	"sort"

	"github.com/wintermute101/uf2info/internal/interfaces"
	"github.com/wintermute101/uf2info/internal/types"
)

// Tracker implements interfaces.RegionTracker over a sorted slice.
type Tracker struct {
	regions []types.Region
}

var _ interfaces.RegionTracker = (*Tracker)(nil)

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add records coverage of [start, end). Intervals that overlap or touch an
// existing region are merged with it. start >= end is a no-op.
func (t *Tracker) Add(start, end uint32) {
	if start >= end {
		return
	}

	n := len(t.regions)

	// first region that could touch the new interval from the left
	lo := sort.Search(n, func(i int) bool {
		return t.regions[i].End >= start
	})
	// last region that could touch it from the right
	hi := sort.Search(n, func(i int) bool {
		return t.regions[i].Start > end
	}) - 1

	if lo > hi {
		t.regions = slices.Insert(t.regions, lo, types.Region{Start: start, End: end})
		return
	}

	merged := types.Region{
		Start: min(start, t.regions[lo].Start),
		End:   max(end, t.regions[hi].End),
	}
	t.regions = slices.Replace(t.regions, lo, hi+1, merged)
}

// Regions returns a copy of the region set in ascending order.
func (t *Tracker) Regions() []types.Region {
	return slices.Clone(t.regions)
}

// Len returns the number of disjoint regions.
func (t *Tracker) Len() int {
	return len(t.regions)
}

// Covered returns the total number of bytes covered by all regions.
func (t *Tracker) Covered() uint64 {
	var total uint64
	for _, r := range t.regions {
		total += uint64(r.Len())
	}
	return total
}

// Contains reports whether addr lies inside one of the regions.
func (t *Tracker) Contains(addr uint32) bool {
	i := sort.Search(len(t.regions), func(i int) bool {
		return t.regions[i].End > addr
	})
	return i < len(t.regions) && t.regions[i].Start <= addr
}
