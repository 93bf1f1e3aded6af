package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// FixtureState is a deterministic, in-process stand-in for a beacon
// state: a full block-roots vector nested inside a container tree with
// the configured fork layout. It implements IProofProvider by generating
// real branches from real trees, so proofs built against it verify
// against its actual root, giving round-trip tests real ground truth.
type FixtureState struct {
	layout     config.ForkLayout
	recentSlot types.Slot
	stateID    types.StateID

	blockRoots *merkle.Tree
	container  *merkle.Tree

	// fieldPosition is the block-roots leaf slot within the container.
	fieldPosition uint64
}

// NewFixtureState builds a state anchored at recentSlot with the full
// history window populated: block_roots[x mod W] holds the root of the
// block at slot x for every x in [recentSlot-W, recentSlot-1].
func NewFixtureState(layout config.ForkLayout, recentSlot types.Slot) (*FixtureState, error) {
	if uint64(recentSlot) < config.SlotsPerHistoricalRoot {
		return nil, fmt.Errorf("recent slot %d must be at least one full window", recentSlot)
	}

	blockRoots, err := merkle.NewTree(nil, config.BlockRootsDepth)
	if err != nil {
		return nil, err
	}
	for x := uint64(recentSlot) - config.SlotsPerHistoricalRoot; x < uint64(recentSlot); x++ {
		if err := blockRoots.SetLeaf(x%config.SlotsPerHistoricalRoot, BlockRootForSlot(types.Slot(x))); err != nil {
			return nil, err
		}
	}

	depth := layout.ContainerDepth()
	width := uint64(1) << uint(depth)
	fieldPosition := uint64(layout.BlockRootsGIndex) - width

	fields := make([]common.Hash, width)
	for i := range fields {
		fields[i] = taggedDigest("state-field", uint64(i))
	}
	fields[fieldPosition] = blockRoots.Root()

	container, err := merkle.NewTree(fields, depth)
	if err != nil {
		return nil, err
	}

	return &FixtureState{
		layout:        layout,
		recentSlot:    recentSlot,
		stateID:       types.StateID(container.Root().Hex()),
		blockRoots:    blockRoots,
		container:     container,
		fieldPosition: fieldPosition,
	}, nil
}

// Root returns the state root every proof from this fixture commits to.
func (f *FixtureState) Root() common.Hash {
	return f.container.Root()
}

// StateID returns the identifier this fixture answers for.
func (f *FixtureState) StateID() types.StateID {
	return f.stateID
}

// RecentSlot returns the slot the fixture state is anchored at.
func (f *FixtureState) RecentSlot() types.Slot {
	return f.recentSlot
}

// FetchStateRoot implements IProofProvider.
func (f *FixtureState) FetchStateRoot(_ context.Context, stateID types.StateID) (common.Hash, error) {
	if stateID != f.stateID {
		return common.Hash{}, fmt.Errorf("%w: unknown state %s", provider.ErrNotFound, stateID)
	}
	return f.container.Root(), nil
}

// FetchBranch implements IProofProvider by concatenating the vector-tree
// branch with the container-tree branch, leaf-up.
func (f *FixtureState) FetchBranch(_ context.Context, index merkle.GeneralizedIndex, stateID types.StateID) ([]common.Hash, error) {
	if stateID != f.stateID {
		return nil, fmt.Errorf("%w: unknown state %s", provider.ErrNotFound, stateID)
	}
	if index>>config.BlockRootsDepth != f.layout.BlockRootsGIndex {
		return nil, fmt.Errorf("%w: gindex %d is not inside the block-roots subtree", provider.ErrNotFound, index)
	}

	slotIndex := uint64(index) % config.SlotsPerHistoricalRoot

	inner, err := f.blockRoots.Branch(slotIndex)
	if err != nil {
		return nil, err
	}
	outer, err := f.container.Branch(f.fieldPosition)
	if err != nil {
		return nil, err
	}
	return append(inner, outer...), nil
}

// FetchBlockRoot implements IProofProvider. Only slots inside the
// retained window are known.
func (f *FixtureState) FetchBlockRoot(_ context.Context, slot types.Slot) (common.Hash, error) {
	if slot >= f.recentSlot || uint64(f.recentSlot)-uint64(slot) > config.SlotsPerHistoricalRoot {
		return common.Hash{}, fmt.Errorf("%w: slot %d outside retained window", provider.ErrNotFound, slot)
	}
	return BlockRootForSlot(slot), nil
}

// BlockRootForSlot returns the deterministic block root the fixture
// assigns to a slot. Distinct slots get distinct roots, including slots
// that share a buffer position.
func BlockRootForSlot(slot types.Slot) common.Hash {
	return taggedDigest("block-root", uint64(slot))
}

func taggedDigest(tag string, value uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write(buf[:])
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Compile-time check that FixtureState implements IProofProvider
var _ provider.IProofProvider = (*FixtureState)(nil)
