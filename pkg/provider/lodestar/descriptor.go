package lodestar

import (
	"fmt"

	"github.com/Layr-Labs/ancestry-prover-go/pkg/merkle"
)

// Lodestar's proof endpoint takes a "compact multiproof descriptor": a
// depth-first, left-first walk of the proof tree packed into a bitstring,
// where a 0 bit means descend into both children and a 1 bit marks a
// terminal node whose 32-byte value appears in the response. Terminal
// nodes are the requested leaves plus the witness subtree roots; the
// response lists their values in the same depth-first order.

// ComputeDescriptor builds the descriptor for a single generalized
// index. The result is MSB-first bit-packed and zero-padded to a whole
// number of bytes; a proof of depth d produces 2d+1 bits.
func ComputeDescriptor(index merkle.GeneralizedIndex) ([]byte, error) {
	if index == 0 {
		return nil, merkle.ErrInvalidIndex
	}

	bits := descriptorBits(1, index, nil)

	descriptor := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			descriptor[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return descriptor, nil
}

// TerminalGIndices returns the generalized indices of the proof's
// terminal nodes in depth-first order, i.e. the order their values
// appear in the compact response.
func TerminalGIndices(index merkle.GeneralizedIndex) []merkle.GeneralizedIndex {
	return terminalNodes(1, index, nil)
}

// descriptorBits walks the proof tree for target, appending one bit per
// visited node.
func descriptorBits(node, target merkle.GeneralizedIndex, bits []bool) []bool {
	if node == target || !isAncestor(node, target) {
		return append(bits, true)
	}
	bits = append(bits, false)
	bits = descriptorBits(node<<1, target, bits)
	return descriptorBits(node<<1|1, target, bits)
}

// terminalNodes mirrors descriptorBits but records the gindex of every
// terminal node instead of the shape bit.
func terminalNodes(node, target merkle.GeneralizedIndex, out []merkle.GeneralizedIndex) []merkle.GeneralizedIndex {
	if node == target || !isAncestor(node, target) {
		return append(out, node)
	}
	out = terminalNodes(node<<1, target, out)
	return terminalNodes(node<<1|1, target, out)
}

// isAncestor reports whether node lies on the path from the root to
// target (target itself excluded).
func isAncestor(node, target merkle.GeneralizedIndex) bool {
	nd, td := node.Depth(), target.Depth()
	if nd >= td {
		return false
	}
	return target>>uint(td-nd) == node
}

// branchFromTerminals extracts the leaf-up sibling branch for target
// from the terminal nodes of its own compact proof. values must be in
// depth-first terminal order.
func branchFromTerminals(target merkle.GeneralizedIndex, terminals []merkle.GeneralizedIndex, values [][]byte) (leaf []byte, branch [][]byte, err error) {
	if len(terminals) != len(values) {
		return nil, nil, fmt.Errorf("descriptor names %d terminal nodes, response carries %d", len(terminals), len(values))
	}

	byGIndex := make(map[merkle.GeneralizedIndex][]byte, len(terminals))
	for i, g := range terminals {
		byGIndex[g] = values[i]
	}

	leaf, ok := byGIndex[target]
	if !ok {
		return nil, nil, fmt.Errorf("target gindex %d missing from proof", target)
	}

	depth := target.Depth()
	branch = make([][]byte, 0, depth)
	for level := 0; level < depth; level++ {
		sibling := (target >> uint(level)).Sibling()
		value, ok := byGIndex[sibling]
		if !ok {
			return nil, nil, fmt.Errorf("witness gindex %d missing from proof", sibling)
		}
		branch = append(branch, value)
	}
	return leaf, branch, nil
}
