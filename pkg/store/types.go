package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// ProofRecord is a stored ancestry proof plus the public anchoring
// values it verifies against. The anchors are stored alongside, never
// inside, the proof bytes: they are verification inputs, not committed
// data.
type ProofRecord struct {
	// ID is a random UUID assigned at creation time.
	ID string `json:"id"`

	// Anchoring triple
	TargetSlot types.Slot    `json:"targetSlot"`
	RecentSlot types.Slot    `json:"recentSlot"`
	StateID    types.StateID `json:"stateId"`

	// Proof is the artifact itself.
	Proof *types.AncestryProof `json:"proof"`

	// CreatedAt is the Unix timestamp when the proof was built.
	CreatedAt int64 `json:"createdAt"`
}

// NewProofRecord wraps a freshly built proof into a record with a new ID.
func NewProofRecord(proof *types.AncestryProof, targetSlot, recentSlot types.Slot, stateID types.StateID) *ProofRecord {
	return &ProofRecord{
		ID:         uuid.New().String(),
		TargetSlot: targetSlot,
		RecentSlot: recentSlot,
		StateID:    stateID,
		Proof:      proof,
		CreatedAt:  time.Now().Unix(),
	}
}
