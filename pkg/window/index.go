package window

import "sort"

// HeightFunc reports the size of the item at an index. Sizes may vary per
// index; zero is permitted and collapses to a zero-extent entry.
type HeightFunc func(index int) float64

// Uniform returns a HeightFunc giving every item the same size.
func Uniform(size float64) HeightFunc {
	return func(int) float64 { return size }
}

// Entry is one row of the Position Index: the offset extent of a single
// item. Size = End - Start >= 0.
type Entry struct {
	Start float64
	End   float64
	Size  float64
}

// VirtualItem is an Entry tagged with its source index. Produced
// transiently per windowing computation, never stored.
type VirtualItem struct {
	Index int
	Start float64
	End   float64
	Size  float64
}

// Index is the prefix-sum position table for a fixed item count and height
// function. It is a derived cache: recomputable at any time from its
// inputs, holding no identity across rebuilds.
type Index struct {
	entries []Entry
	total   float64
}

// BuildIndex computes the Position Index by a single left-to-right
// accumulation: entry[i].Start is the sum of all sizes before i.
func BuildIndex(count int, height HeightFunc) Index {
	if count <= 0 || height == nil {
		return Index{}
	}

	entries := make([]Entry, count)
	offset := 0.0
	for i := 0; i < count; i++ {
		size := height(i)
		if size < 0 {
			size = 0
		}
		entries[i] = Entry{Start: offset, End: offset + size, Size: size}
		offset += size
	}

	indexRebuilds.Inc()
	return Index{entries: entries, total: offset}
}

// Len returns the number of indexed items.
func (ix Index) Len() int { return len(ix.entries) }

// TotalSize returns the total extent of all items, 0 when empty.
func (ix Index) TotalSize() float64 { return ix.total }

// Entry returns the position entry for an index. The index must be in
// [0, Len).
func (ix Index) Entry(i int) Entry { return ix.entries[i] }

// FindStart returns the smallest index whose entry overlaps the given
// offset: the first entry whose end lies beyond it. Offsets outside the
// table clamp to [0, Len-1]. The index must be non-empty.
func (ix Index) FindStart(offset float64) int {
	n := len(ix.entries)
	i := sort.Search(n, func(i int) bool {
		return ix.entries[i].End > offset
	})
	if i >= n {
		return n - 1
	}
	return i
}

// FindEnd returns the largest index whose entry overlaps the given offset:
// the last entry starting before it. Offsets outside the table clamp to
// [0, Len-1]. The index must be non-empty.
func (ix Index) FindEnd(offset float64) int {
	n := len(ix.entries)
	i := sort.Search(n, func(i int) bool {
		return ix.entries[i].Start >= offset
	})
	if i <= 0 {
		return 0
	}
	return i - 1
}
