package prover

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/config"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/provider"
	"github.com/Layr-Labs/ancestry-prover-go/pkg/types"
)

// ProverConfig holds the dependencies of an AncestryProver
type ProverConfig struct {
	// Provider supplies branches and block roots
	Provider provider.IProofProvider

	// Layout is the container layout of the targeted protocol version
	Layout config.ForkLayout

	// Logger for proof construction diagnostics
	Logger *zap.Logger
}

// AncestryProver builds proofs that a target block is an ancestor of a
// recent block, using the recent state's block-roots history buffer. The
// prover is stateless; a single instance is safe for concurrent use.
type AncestryProver struct {
	prov   provider.IProofProvider
	layout config.ForkLayout
	logger *zap.Logger
}

// NewAncestryProver creates a prover with dependency injection.
func NewAncestryProver(cfg *ProverConfig) (*AncestryProver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("proof provider is required")
	}
	if cfg.Layout.BlockRootsGIndex == 0 {
		return nil, fmt.Errorf("fork layout is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &AncestryProver{
		prov:   cfg.Provider,
		layout: cfg.Layout,
		logger: cfg.Logger,
	}, nil
}

// ComposedIndex computes the generalized index of a target slot's block
// root relative to the state root: the block-roots field index extended
// by the slot's position within the circular buffer.
func ComposedIndex(layout config.ForkLayout, targetSlot types.Slot) (merkle.GeneralizedIndex, error) {
	slotIndex := uint64(targetSlot) % config.SlotsPerHistoricalRoot
	return merkle.Compose(layout.BlockRootsGIndex, config.BlockRootsDepth, slotIndex)
}

// checkSlotRange enforces the single-window precondition: the target
// must strictly precede the anchor and lie at most W slots behind it.
func checkSlotRange(targetSlot, recentSlot types.Slot) error {
	if targetSlot >= recentSlot {
		return fmt.Errorf("%w: target slot %d does not precede recent slot %d",
			ErrSlotOutOfRange, targetSlot, recentSlot)
	}
	if uint64(recentSlot)-uint64(targetSlot) > config.SlotsPerHistoricalRoot {
		return fmt.Errorf("%w: target slot %d is more than %d slots behind recent slot %d",
			ErrSlotOutOfRange, targetSlot, config.SlotsPerHistoricalRoot, recentSlot)
	}
	return nil
}

// Prove constructs an ancestry proof for targetSlot anchored at the
// state identified by stateID, whose slot is recentSlot. Preconditions
// are checked before any provider call; the branch and the target block
// root are then fetched concurrently.
func (p *AncestryProver) Prove(ctx context.Context, targetSlot, recentSlot types.Slot, stateID types.StateID) (*types.AncestryProof, error) {
	if err := checkSlotRange(targetSlot, recentSlot); err != nil {
		return nil, err
	}

	index, err := ComposedIndex(p.layout, targetSlot)
	if err != nil {
		return nil, err
	}

	p.logger.Sugar().Debugw("Building ancestry proof",
		"target_slot", targetSlot,
		"recent_slot", recentSlot,
		"state_id", stateID,
		"gindex", uint64(index),
	)

	// The two fetches are independent; neither depends on the other's
	// result, only assembly needs both.
	var (
		wg        sync.WaitGroup
		branch    []common.Hash
		leaf      common.Hash
		branchErr error
		leafErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		branch, branchErr = p.prov.FetchBranch(ctx, index, stateID)
	}()
	go func() {
		defer wg.Done()
		leaf, leafErr = p.prov.FetchBlockRoot(ctx, targetSlot)
	}()
	wg.Wait()

	if branchErr != nil {
		return nil, branchErr
	}
	if leafErr != nil {
		return nil, leafErr
	}

	if len(branch) != index.Depth() {
		return nil, fmt.Errorf("%w: got %d entries, expected %d", ErrMalformedBranch, len(branch), index.Depth())
	}

	p.logger.Sugar().Infow("Ancestry proof built",
		"target_slot", targetSlot,
		"recent_slot", recentSlot,
		"branch_length", len(branch),
	)

	return &types.AncestryProof{Leaf: leaf, Branch: branch}, nil
}

// Verify checks an ancestry proof against an independently trusted state
// root. It is pure: no provider, no I/O, safe to call concurrently.
//
// The composed index is re-derived from the public slot inputs rather
// than taken from the proof; a forged index could make an unrelated
// branch validate against an unrelated leaf. Any shape or range problem
// yields false, never an error; establishing that expectedStateRoot is
// trustworthy is the caller's responsibility.
func Verify(layout config.ForkLayout, proof *types.AncestryProof, targetSlot, recentSlot types.Slot, expectedStateRoot common.Hash) bool {
	if proof == nil {
		return false
	}
	if checkSlotRange(targetSlot, recentSlot) != nil {
		return false
	}

	index, err := ComposedIndex(layout, targetSlot)
	if err != nil {
		return false
	}
	if len(proof.Branch) != index.Depth() {
		return false
	}

	return merkle.VerifyBranch(proof.Leaf, proof.Branch, index, expectedStateRoot)
}

// VerifyAgainstProvider is a convenience for callers that trust a
// provider to report the anchor state root: it fetches the root for
// stateID and runs the pure Verify against it. Unlike Verify it can
// fail, since it performs I/O.
func (p *AncestryProver) VerifyAgainstProvider(ctx context.Context, proof *types.AncestryProof, targetSlot, recentSlot types.Slot, stateID types.StateID) (bool, error) {
	stateRoot, err := p.prov.FetchStateRoot(ctx, stateID)
	if err != nil {
		return false, err
	}
	return Verify(p.layout, proof, targetSlot, recentSlot, stateRoot), nil
}
