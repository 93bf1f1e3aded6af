package store

// IProofStore defines the interface for persisting built ancestry proofs
// together with their anchoring values. All implementations must be
// thread-safe.
//
// Proofs are immutable once saved. The store is an archive, not a cache:
// nothing in the proving path reads from it.
type IProofStore interface {
	// SaveProof persists a proof record indexed by its ID.
	// Overwrites any existing record with the same ID.
	SaveProof(record *ProofRecord) error

	// LoadProof retrieves a proof record by ID.
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadProof(id string) (*ProofRecord, error)

	// ListProofs returns all persisted records sorted by creation time (ascending).
	// Returns an empty slice if no records exist, error only on storage failure.
	ListProofs() ([]*ProofRecord, error)

	// DeleteProof removes a proof record by ID.
	// Idempotent - returns nil if the record doesn't exist.
	DeleteProof(id string) error

	// Close cleanly shuts down the store. Idempotent.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}
