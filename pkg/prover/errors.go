package prover

import "errors"

// Precondition and structural errors surfaced by Prove. Provider errors
// (transport, not-found) are propagated unchanged and are not listed here.
var (
	// ErrSlotOutOfRange means the target slot does not strictly precede
	// the recent slot, or lies outside the single retained history
	// window. Proving older ancestry requires chaining windows, which
	// this library does not do.
	ErrSlotOutOfRange = errors.New("prover: target slot outside the provable window")

	// ErrMalformedBranch means the provider returned a branch whose
	// length disagrees with the computed generalized index depth. This
	// is a provider contract violation; the branch is never padded or
	// truncated to fit.
	ErrMalformedBranch = errors.New("prover: branch length does not match index depth")
)
