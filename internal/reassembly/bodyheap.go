package reassembly

import "container/heap"

// bodyFragment is one accepted fragment's payload bytes, keyed by its block
// offset for later ascending-offset reassembly.
type bodyFragment struct {
	offset uint16
	data   []byte
}

// bodyHeap is a container/heap min-heap keyed by offset, giving
// ascending-offset iteration via repeated Pop — the storage strategy
// SPEC_FULL.md's "Body fragment ordering" design note permits and the
// reference source itself uses (there, a BinaryHeap over a negated offset).
type bodyHeap []bodyFragment

func (h bodyHeap) Len() int            { return len(h) }
func (h bodyHeap) Less(i, j int) bool  { return h[i].offset < h[j].offset }
func (h bodyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bodyHeap) Push(x interface{}) { *h = append(*h, x.(bodyFragment)) }
func (h *bodyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pushFragment records a fragment's bytes for later ascending retrieval.
func pushFragment(h *bodyHeap, offset uint16, data []byte) {
	heap.Push(h, bodyFragment{offset: offset, data: data})
}

// drainAscending pops every fragment in ascending offset order, emptying h.
func drainAscending(h *bodyHeap) []bodyFragment {
	out := make([]bodyFragment, 0, h.Len())
	for h.Len() > 0 {
		out = append(out, heap.Pop(h).(bodyFragment))
	}
	return out
}
