package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/store"
)

// MemoryStore is an in-memory implementation of IProofStore, intended
// for testing and ephemeral use. All data is lost when the process
// exits. Thread-safe; records are deep-copied on the way in and out to
// prevent external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*store.ProofRecord
	closed  bool
}

// NewMemoryStore creates a new in-memory proof store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*store.ProofRecord),
	}
}

// SaveProof persists a proof record.
func (m *MemoryStore) SaveProof(record *store.ProofRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil ProofRecord")
	}
	if record.ID == "" {
		return fmt.Errorf("cannot save ProofRecord without an ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("proof store is closed")
	}

	m.records[record.ID] = copyRecord(record)
	return nil
}

// LoadProof retrieves a proof record by ID.
func (m *MemoryStore) LoadProof(id string) (*store.ProofRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("proof store is closed")
	}

	record, exists := m.records[id]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return copyRecord(record), nil
}

// ListProofs returns all records sorted by creation time.
func (m *MemoryStore) ListProofs() ([]*store.ProofRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("proof store is closed")
	}

	result := make([]*store.ProofRecord, 0, len(m.records))
	for _, record := range m.records {
		result = append(result, copyRecord(record))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteProof removes a record. Idempotent.
func (m *MemoryStore) DeleteProof(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("proof store is closed")
	}

	delete(m.records, id)
	return nil
}

// Close shuts down the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// HealthCheck verifies the store is operational.
func (m *MemoryStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("proof store is closed")
	}
	return nil
}

// copyRecord deep-copies a record, including the proof branch.
func copyRecord(record *store.ProofRecord) *store.ProofRecord {
	out := *record
	out.Proof = record.Proof.Clone()
	return &out
}

// Compile-time check that MemoryStore implements IProofStore
var _ store.IProofStore = (*MemoryStore)(nil)
