package provider

import "errors"

// Provider errors. Transport failures are wrapped around these sentinels
// so callers can distinguish a missing state from a broken endpoint
// without depending on a concrete provider.
var (
	// ErrNotFound means the remote endpoint does not know the requested
	// state, block or slot.
	ErrNotFound = errors.New("provider: state or block not found")

	// ErrInvalidResponse means the endpoint answered but the body could
	// not be decoded into the expected shape.
	ErrInvalidResponse = errors.New("provider: invalid response")
)
