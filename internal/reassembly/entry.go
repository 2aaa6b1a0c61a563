package reassembly

import "time"

// entry is per-key reassembly state, matching SPEC_FULL.md's FragmentEntry.
type entry struct {
	missing   []blockRange
	bodies    bodyHeap
	header    []byte
	totalSize int
	expiresAt time.Time
}

func newEntry(expiresAt time.Time) *entry {
	return &entry{
		missing:   []blockRange{fullSpace},
		expiresAt: expiresAt,
	}
}
