package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// IProofProvider supplies the raw digests the proof builder cannot
// compute locally. Implementations own their transport, timeouts and
// resilience; the core never retries or caches on their behalf.
//
// Structural validation of results (branch length against the computed
// depth) is done by the caller, not the provider.
type IProofProvider interface {
	// FetchStateRoot returns the root digest of the state identified by
	// stateID.
	FetchStateRoot(ctx context.Context, stateID types.StateID) (common.Hash, error)

	// FetchBranch returns the sibling branch for the given generalized
	// index against the state identified by stateID, ordered from the
	// leaf's immediate sibling up to the level just below the root.
	FetchBranch(ctx context.Context, index merkle.GeneralizedIndex, stateID types.StateID) ([]common.Hash, error)

	// FetchBlockRoot returns the root of the block at the given slot.
	FetchBlockRoot(ctx context.Context, slot types.Slot) (common.Hash, error)
}
