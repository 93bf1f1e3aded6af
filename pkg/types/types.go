package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Slot is a beacon chain slot number.
type Slot uint64

// StateID identifies a point-in-time chain state. It is opaque to this
// library: typically a 0x-prefixed state root, but beacon API selectors
// like "head" or "finalized" work as well when the provider supports them.
type StateID string

func (s Slot) String() string {
	return fmt.Sprintf("%d", uint64(s))
}

func (s StateID) String() string {
	return string(s)
}

// AncestryProof is the self-contained artifact proving that a target
// block's root appears inside the block-roots history buffer committed
// to by a recent state. It carries no anchoring data: the slots and the
// state identifier are public inputs supplied alongside at verification
// time, never hashed into the proof.
//
// A proof is immutable after construction and may be verified any number
// of times.
type AncestryProof struct {
	// Leaf is the target block's own root, the value being proven present.
	Leaf common.Hash `json:"leaf"`

	// Branch holds the sibling digests from the leaf's immediate sibling
	// up to the level just below the state root.
	Branch []common.Hash `json:"branch"`
}

// Clone returns a deep copy of the proof.
func (p *AncestryProof) Clone() *AncestryProof {
	if p == nil {
		return nil
	}
	branch := make([]common.Hash, len(p.Branch))
	copy(branch, p.Branch)
	return &AncestryProof{Leaf: p.Leaf, Branch: branch}
}

// Equal reports whether two proofs are byte-identical.
func (p *AncestryProof) Equal(other *AncestryProof) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Leaf != other.Leaf || len(p.Branch) != len(other.Branch) {
		return false
	}
	for i := range p.Branch {
		if p.Branch[i] != other.Branch[i] {
			return false
		}
	}
	return true
}
