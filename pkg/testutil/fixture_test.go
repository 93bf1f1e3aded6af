package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

func TestNewFixtureState(t *testing.T) {
	layout, err := config.GetForkLayout(config.ForkCapella)
	require.NoError(t, err)

	t.Run("Recent slot below one window", func(t *testing.T) {
		_, err := NewFixtureState(layout, 100)
		require.Error(t, err)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, err := NewFixtureState(layout, 9000100)
		require.NoError(t, err)
		b, err := NewFixtureState(layout, 9000100)
		require.NoError(t, err)
		require.Equal(t, a.Root(), b.Root())
		require.Equal(t, a.StateID(), b.StateID())
	})

	t.Run("Different anchors give different roots", func(t *testing.T) {
		a, err := NewFixtureState(layout, 9000100)
		require.NoError(t, err)
		b, err := NewFixtureState(layout, 9000101)
		require.NoError(t, err)
		require.NotEqual(t, a.Root(), b.Root())
	})
}

// TestFixtureBranchesFold checks that fixture branches reconstruct the
// fixture's own root, independent of the prover.
func TestFixtureBranchesFold(t *testing.T) {
	layout, err := config.GetForkLayout(config.ForkCapella)
	require.NoError(t, err)

	fixture, err := NewFixtureState(layout, 9000100)
	require.NoError(t, err)
	ctx := context.Background()

	for _, targetSlot := range []uint64{9000000, 9000099, 9000100 - config.SlotsPerHistoricalRoot} {
		slotIndex := targetSlot % config.SlotsPerHistoricalRoot
		index, err := merkle.Compose(layout.BlockRootsGIndex, config.BlockRootsDepth, slotIndex)
		require.NoError(t, err)

		branch, err := fixture.FetchBranch(ctx, index, fixture.StateID())
		require.NoError(t, err)
		require.Len(t, branch, index.Depth())

		root, err := merkle.RestoreRoot(BlockRootForSlot(types.Slot(targetSlot)), branch, index)
		require.NoError(t, err)
		require.Equal(t, fixture.Root(), root, "slot %d", targetSlot)
	}
}

func TestFixtureProviderContract(t *testing.T) {
	layout, err := config.GetForkLayout(config.ForkCapella)
	require.NoError(t, err)

	fixture, err := NewFixtureState(layout, 9000100)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Unknown state", func(t *testing.T) {
		_, err := fixture.FetchStateRoot(ctx, "0xother")
		require.ErrorIs(t, err, provider.ErrNotFound)

		_, err = fixture.FetchBranch(ctx, layout.BlockRootsGIndex<<config.BlockRootsDepth, "0xother")
		require.ErrorIs(t, err, provider.ErrNotFound)
	})

	t.Run("Index outside the block-roots subtree", func(t *testing.T) {
		_, err := fixture.FetchBranch(ctx, 2, fixture.StateID())
		require.ErrorIs(t, err, provider.ErrNotFound)
	})

	t.Run("Block roots inside the window", func(t *testing.T) {
		root, err := fixture.FetchBlockRoot(ctx, 9000000)
		require.NoError(t, err)
		require.Equal(t, BlockRootForSlot(9000000), root)

		_, err = fixture.FetchBlockRoot(ctx, 9000100)
		require.ErrorIs(t, err, provider.ErrNotFound)
	})
}
