package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// maxBranchLength bounds deserialization. No SSZ tree this library deals
// with is deeper than 64 levels, so anything larger is rejected before
// allocation.
const maxBranchLength = 64

// Serialize encodes the proof for transport or storage: the 32-byte leaf
// followed by a big-endian uint32 branch length and the branch entries.
func (p *AncestryProof) Serialize() ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot serialize nil AncestryProof")
	}
	if len(p.Branch) > maxBranchLength {
		return nil, fmt.Errorf("branch length %d exceeds maximum %d", len(p.Branch), maxBranchLength)
	}

	out := make([]byte, 0, 32+4+32*len(p.Branch))
	out = append(out, p.Leaf[:]...)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Branch)))
	out = append(out, lenBuf[:]...)

	for _, entry := range p.Branch {
		out = append(out, entry[:]...)
	}
	return out, nil
}

// DeserializeAncestryProof decodes a proof produced by Serialize.
// Trailing bytes are rejected: the encoding is exact.
func DeserializeAncestryProof(data []byte) (*AncestryProof, error) {
	if len(data) < 32+4 {
		return nil, fmt.Errorf("proof data too short: %d bytes", len(data))
	}

	var proof AncestryProof
	copy(proof.Leaf[:], data[:32])

	branchLen := binary.BigEndian.Uint32(data[32:36])
	if branchLen > maxBranchLength {
		return nil, fmt.Errorf("branch length %d exceeds maximum %d", branchLen, maxBranchLength)
	}

	rest := data[36:]
	if len(rest) != int(branchLen)*32 {
		return nil, fmt.Errorf("expected %d branch bytes, got %d", int(branchLen)*32, len(rest))
	}

	proof.Branch = make([]common.Hash, branchLen)
	for i := range proof.Branch {
		copy(proof.Branch[i][:], rest[i*32:(i+1)*32])
	}
	return &proof, nil
}
