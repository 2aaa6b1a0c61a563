package reassembly

import (
	"firestige.xyz/netcore/internal/core"
	"firestige.xyz/netcore/internal/ipview"
)

// OutcomeKind discriminates the four variants process_fragment returns.
type OutcomeKind int

const (
	// NotNeeded: the packet has no fragment header, or is (offset=0, more=false).
	NotNeeded OutcomeKind = iota
	// InvalidFragment: the fragment violated a validation rule.
	InvalidFragment
	// NeedMoreFragments: accepted; the key's entry still has missing blocks.
	NeedMoreFragments
	// Ready: all fragments received; the caller must reassemble.
	Ready
)

// Outcome is the sum type process_fragment returns.
type Outcome struct {
	Kind   OutcomeKind
	Packet *ipview.View    // populated for NotNeeded
	Key    core.FragmentKey // populated for Ready
	Len    int              // populated for Ready: required buffer length
}
