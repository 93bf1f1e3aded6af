package prover

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/testutil"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

func capellaLayout(t *testing.T) config.ForkLayout {
	layout, err := config.GetForkLayout(config.ForkCapella)
	require.NoError(t, err)
	return layout
}

func newFixtureProver(t *testing.T, fixture *testutil.FixtureState) *AncestryProver {
	p, err := NewAncestryProver(&ProverConfig{
		Provider: fixture,
		Layout:   capellaLayout(t),
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	return p
}

func TestNewAncestryProver(t *testing.T) {
	fixture, err := testutil.NewFixtureState(capellaLayout(t), 9000000)
	require.NoError(t, err)

	t.Run("Nil config", func(t *testing.T) {
		_, err := NewAncestryProver(nil)
		require.Error(t, err)
	})

	t.Run("Missing provider", func(t *testing.T) {
		_, err := NewAncestryProver(&ProverConfig{Layout: capellaLayout(t), Logger: zap.NewNop()})
		require.Error(t, err)
	})

	t.Run("Missing layout", func(t *testing.T) {
		_, err := NewAncestryProver(&ProverConfig{Provider: fixture, Logger: zap.NewNop()})
		require.Error(t, err)
	})

	t.Run("Missing logger", func(t *testing.T) {
		_, err := NewAncestryProver(&ProverConfig{Provider: fixture, Layout: capellaLayout(t)})
		require.Error(t, err)
	})
}

// TestComposedIndex pins the index math to known values for the capella
// layout: block_roots is field gindex 37, extended by 13 vector levels.
func TestComposedIndex(t *testing.T) {
	layout := capellaLayout(t)

	testCases := []struct {
		name       string
		targetSlot types.Slot
		expected   merkle.GeneralizedIndex
	}{
		{"Buffer position zero", 0, 303104},
		{"Buffer position zero at a window boundary", 8192, 303104},
		{"Mainnet slot 7879316", 7879316, 309908},
		{"Mainnet slot 8942024", 8942024, 307656},
		{"Last buffer position", 8191, 311295},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			index, err := ComposedIndex(layout, tc.targetSlot)
			require.NoError(t, err)
			require.Equal(t, tc.expected, index)
			require.Equal(t, 18, index.Depth())
		})
	}
}

// TestProveAndVerifyRoundTrip covers the happy path: a proof built from
// the fixture verifies against the fixture's state root, and its leaf is
// the target block's root.
func TestProveAndVerifyRoundTrip(t *testing.T) {
	const recentSlot = types.Slot(8942159)
	const targetSlot = types.Slot(8942024)

	fixture, err := testutil.NewFixtureState(capellaLayout(t), recentSlot)
	require.NoError(t, err)
	p := newFixtureProver(t, fixture)

	proof, err := p.Prove(context.Background(), targetSlot, recentSlot, fixture.StateID())
	require.NoError(t, err)
	require.Len(t, proof.Branch, 18)
	require.Equal(t, testutil.BlockRootForSlot(targetSlot), proof.Leaf)

	require.True(t, Verify(capellaLayout(t), proof, targetSlot, recentSlot, fixture.Root()))

	ok, err := p.VerifyAgainstProvider(context.Background(), proof, targetSlot, recentSlot, fixture.StateID())
	require.NoError(t, err)
	require.True(t, ok)
}

// TestVerifyRejectsTampering flips a single byte in every position of the
// proof and checks that each mutation is caught.
func TestVerifyRejectsTampering(t *testing.T) {
	const recentSlot = types.Slot(9000100)
	const targetSlot = types.Slot(9000000)

	layout := capellaLayout(t)
	fixture, err := testutil.NewFixtureState(layout, recentSlot)
	require.NoError(t, err)
	p := newFixtureProver(t, fixture)

	proof, err := p.Prove(context.Background(), targetSlot, recentSlot, fixture.StateID())
	require.NoError(t, err)
	root := fixture.Root()
	require.True(t, Verify(layout, proof, targetSlot, recentSlot, root))

	t.Run("Tampered leaf", func(t *testing.T) {
		mutated := proof.Clone()
		mutated.Leaf[7] ^= 0x01
		require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root))
	})

	t.Run("Tampered branch entry", func(t *testing.T) {
		for i := range proof.Branch {
			mutated := proof.Clone()
			mutated.Branch[i][31] ^= 0x01
			require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root), "entry %d", i)
		}
	})

	t.Run("Swapped branch entries", func(t *testing.T) {
		mutated := proof.Clone()
		mutated.Branch[0], mutated.Branch[1] = mutated.Branch[1], mutated.Branch[0]
		require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root))
	})

	t.Run("Tampered state root", func(t *testing.T) {
		wrongRoot := root
		wrongRoot[0] ^= 0x01
		require.False(t, Verify(layout, proof, targetSlot, recentSlot, wrongRoot))
	})

	t.Run("Wrong target slot", func(t *testing.T) {
		require.False(t, Verify(layout, proof, targetSlot+1, recentSlot, root))
	})
}

// TestVerifyRejectsBadShapes covers branch-length and nil-proof handling.
func TestVerifyRejectsBadShapes(t *testing.T) {
	const recentSlot = types.Slot(9000100)
	const targetSlot = types.Slot(9000000)

	layout := capellaLayout(t)
	fixture, err := testutil.NewFixtureState(layout, recentSlot)
	require.NoError(t, err)
	p := newFixtureProver(t, fixture)

	proof, err := p.Prove(context.Background(), targetSlot, recentSlot, fixture.StateID())
	require.NoError(t, err)
	root := fixture.Root()

	t.Run("Nil proof", func(t *testing.T) {
		require.False(t, Verify(layout, nil, targetSlot, recentSlot, root))
	})

	t.Run("Truncated branch", func(t *testing.T) {
		mutated := proof.Clone()
		mutated.Branch = mutated.Branch[:len(mutated.Branch)-1]
		require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root))
	})

	t.Run("Padded branch", func(t *testing.T) {
		mutated := proof.Clone()
		mutated.Branch = append(mutated.Branch, common.Hash{})
		require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root))
	})

	t.Run("Empty branch", func(t *testing.T) {
		mutated := proof.Clone()
		mutated.Branch = nil
		require.False(t, Verify(layout, mutated, targetSlot, recentSlot, root))
	})
}

// TestSlotRangeBoundaries checks the single-window precondition on both
// Prove and Verify at its exact edges.
func TestSlotRangeBoundaries(t *testing.T) {
	const recentSlot = types.Slot(9000100)
	const window = types.Slot(config.SlotsPerHistoricalRoot)

	layout := capellaLayout(t)
	fixture, err := testutil.NewFixtureState(layout, recentSlot)
	require.NoError(t, err)
	p := newFixtureProver(t, fixture)
	ctx := context.Background()

	t.Run("Target equals recent", func(t *testing.T) {
		_, err := p.Prove(ctx, recentSlot, recentSlot, fixture.StateID())
		require.ErrorIs(t, err, ErrSlotOutOfRange)
	})

	t.Run("Target after recent", func(t *testing.T) {
		_, err := p.Prove(ctx, recentSlot+1, recentSlot, fixture.StateID())
		require.ErrorIs(t, err, ErrSlotOutOfRange)
	})

	t.Run("Oldest provable slot", func(t *testing.T) {
		targetSlot := recentSlot - window
		proof, err := p.Prove(ctx, targetSlot, recentSlot, fixture.StateID())
		require.NoError(t, err)
		require.True(t, Verify(layout, proof, targetSlot, recentSlot, fixture.Root()))
	})

	t.Run("One slot past the window", func(t *testing.T) {
		targetSlot := recentSlot - window - 1
		_, err := p.Prove(ctx, targetSlot, recentSlot, fixture.StateID())
		require.ErrorIs(t, err, ErrSlotOutOfRange)

		// A structurally plausible proof must still be rejected.
		fake := &types.AncestryProof{Branch: make([]common.Hash, 18)}
		require.False(t, Verify(layout, fake, targetSlot, recentSlot, fixture.Root()))
	})
}

// TestBufferWraparound anchors two states one full window apart so their
// target slots share a buffer position, and checks the proofs do not
// cross-validate.
func TestBufferWraparound(t *testing.T) {
	const window = types.Slot(config.SlotsPerHistoricalRoot)
	const targetA = types.Slot(9000000)
	const recentA = types.Slot(9000100)
	const targetB = targetA + window
	const recentB = recentA + window

	layout := capellaLayout(t)

	fixtureA, err := testutil.NewFixtureState(layout, recentA)
	require.NoError(t, err)
	fixtureB, err := testutil.NewFixtureState(layout, recentB)
	require.NoError(t, err)

	// Same buffer position, same composed index.
	indexA, err := ComposedIndex(layout, targetA)
	require.NoError(t, err)
	indexB, err := ComposedIndex(layout, targetB)
	require.NoError(t, err)
	require.Equal(t, indexA, indexB)

	proofA, err := newFixtureProver(t, fixtureA).Prove(context.Background(), targetA, recentA, fixtureA.StateID())
	require.NoError(t, err)
	proofB, err := newFixtureProver(t, fixtureB).Prove(context.Background(), targetB, recentB, fixtureB.StateID())
	require.NoError(t, err)

	// The position is occupied by different blocks in the two states.
	require.NotEqual(t, proofA.Leaf, proofB.Leaf)
	require.True(t, Verify(layout, proofA, targetA, recentA, fixtureA.Root()))
	require.True(t, Verify(layout, proofB, targetB, recentB, fixtureB.Root()))

	// Each proof commits to its own anchor state only.
	require.False(t, Verify(layout, proofA, targetA, recentA, fixtureB.Root()))
	require.False(t, Verify(layout, proofB, targetB, recentB, fixtureA.Root()))
}

// faultyProvider wraps a FixtureState and overrides selected calls.
type faultyProvider struct {
	*testutil.FixtureState

	branchOverride func() ([]common.Hash, error)
	blockRootErr   error
}

func (f *faultyProvider) FetchBranch(ctx context.Context, index merkle.GeneralizedIndex, stateID types.StateID) ([]common.Hash, error) {
	if f.branchOverride != nil {
		return f.branchOverride()
	}
	return f.FixtureState.FetchBranch(ctx, index, stateID)
}

func (f *faultyProvider) FetchBlockRoot(ctx context.Context, slot types.Slot) (common.Hash, error) {
	if f.blockRootErr != nil {
		return common.Hash{}, f.blockRootErr
	}
	return f.FixtureState.FetchBlockRoot(ctx, slot)
}

// TestProvePropagatesProviderFailures checks error handling around the
// two provider fetches.
func TestProvePropagatesProviderFailures(t *testing.T) {
	const recentSlot = types.Slot(9000100)
	const targetSlot = types.Slot(9000000)

	layout := capellaLayout(t)
	fixture, err := testutil.NewFixtureState(layout, recentSlot)
	require.NoError(t, err)
	ctx := context.Background()

	newProver := func(t *testing.T, prov provider.IProofProvider) *AncestryProver {
		p, err := NewAncestryProver(&ProverConfig{Provider: prov, Layout: layout, Logger: zap.NewNop()})
		require.NoError(t, err)
		return p
	}

	t.Run("Branch fetch fails", func(t *testing.T) {
		prov := &faultyProvider{
			FixtureState:   fixture,
			branchOverride: func() ([]common.Hash, error) { return nil, fmt.Errorf("backend unavailable") },
		}
		_, err := newProver(t, prov).Prove(ctx, targetSlot, recentSlot, fixture.StateID())
		require.ErrorContains(t, err, "backend unavailable")
	})

	t.Run("Block root fetch fails", func(t *testing.T) {
		prov := &faultyProvider{
			FixtureState: fixture,
			blockRootErr: fmt.Errorf("%w: no such block", provider.ErrNotFound),
		}
		_, err := newProver(t, prov).Prove(ctx, targetSlot, recentSlot, fixture.StateID())
		require.ErrorIs(t, err, provider.ErrNotFound)
	})

	t.Run("Short branch from provider", func(t *testing.T) {
		prov := &faultyProvider{
			FixtureState:   fixture,
			branchOverride: func() ([]common.Hash, error) { return make([]common.Hash, 17), nil },
		}
		_, err := newProver(t, prov).Prove(ctx, targetSlot, recentSlot, fixture.StateID())
		require.ErrorIs(t, err, ErrMalformedBranch)
	})

	t.Run("Unknown state", func(t *testing.T) {
		_, err := newFixtureProver(t, fixture).Prove(ctx, targetSlot, recentSlot, "0xdeadbeef")
		require.ErrorIs(t, err, provider.ErrNotFound)
	})
}

// TestElectraLayout checks the prover against the post-electra container,
// whose block-roots field sits one level deeper.
func TestElectraLayout(t *testing.T) {
	const recentSlot = types.Slot(9000100)
	const targetSlot = types.Slot(9000000)

	layout, err := config.GetForkLayout(config.ForkElectra)
	require.NoError(t, err)

	fixture, err := testutil.NewFixtureState(layout, recentSlot)
	require.NoError(t, err)

	p, err := NewAncestryProver(&ProverConfig{Provider: fixture, Layout: layout, Logger: zap.NewNop()})
	require.NoError(t, err)

	proof, err := p.Prove(context.Background(), targetSlot, recentSlot, fixture.StateID())
	require.NoError(t, err)
	require.Len(t, proof.Branch, 19)

	require.True(t, Verify(layout, proof, targetSlot, recentSlot, fixture.Root()))

	// A capella-shaped verification of an electra proof must fail.
	require.False(t, Verify(capellaLayout(t), proof, targetSlot, recentSlot, fixture.Root()))
}
