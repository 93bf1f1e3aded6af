package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tree is a fixed-depth binary merkle tree over 32-byte leaves. Unlike a
// dynamically sized tree, missing leaves are zero chunks, matching SSZ
// vector merkleization. Branch generation walks the stored levels, so the
// tree trades memory for O(depth) proofs.
type Tree struct {
	depth int

	// levels[0] holds the padded leaves, levels[depth] holds the root.
	levels [][]common.Hash
}

// NewTree builds a tree of the given depth from the supplied leaves.
// The leaf vector is padded with zero chunks up to 2^depth entries.
func NewTree(leaves []common.Hash, depth int) (*Tree, error) {
	if depth < 0 || depth > 32 {
		return nil, fmt.Errorf("merkle: unsupported tree depth %d", depth)
	}
	width := 1 << uint(depth)
	if len(leaves) > width {
		return nil, fmt.Errorf("merkle: %d leaves exceed tree of depth %d", len(leaves), depth)
	}

	levels := make([][]common.Hash, depth+1)
	levels[0] = make([]common.Hash, width)
	copy(levels[0], leaves)

	for d := 0; d < depth; d++ {
		prev := levels[d]
		next := make([]common.Hash, len(prev)/2)
		for i := range next {
			next[i] = HashPair(prev[2*i], prev[2*i+1])
		}
		levels[d+1] = next
	}

	return &Tree{depth: depth, levels: levels}, nil
}

// Root returns the tree's root digest.
func (t *Tree) Root() common.Hash {
	return t.levels[t.depth][0]
}

// Depth returns the number of levels between leaves and root.
func (t *Tree) Depth() int {
	return t.depth
}

// Leaf returns the (possibly zero-padded) leaf at the given position.
func (t *Tree) Leaf(position uint64) (common.Hash, error) {
	if position >= uint64(len(t.levels[0])) {
		return common.Hash{}, fmt.Errorf("merkle: leaf position %d out of bounds for depth %d", position, t.depth)
	}
	return t.levels[0][position], nil
}

// SetLeaf overwrites the leaf at the given position and recomputes the
// affected path up to the root.
func (t *Tree) SetLeaf(position uint64, value common.Hash) error {
	if position >= uint64(len(t.levels[0])) {
		return fmt.Errorf("merkle: leaf position %d out of bounds for depth %d", position, t.depth)
	}
	t.levels[0][position] = value
	idx := position
	for d := 0; d < t.depth; d++ {
		idx /= 2
		t.levels[d+1][idx] = HashPair(t.levels[d][2*idx], t.levels[d][2*idx+1])
	}
	return nil
}

// Branch collects the sibling digests proving the leaf at the given
// position, ordered from the leaf's immediate sibling up to the level
// just below the root.
func (t *Tree) Branch(position uint64) ([]common.Hash, error) {
	if position >= uint64(len(t.levels[0])) {
		return nil, fmt.Errorf("merkle: leaf position %d out of bounds for depth %d", position, t.depth)
	}

	branch := make([]common.Hash, 0, t.depth)
	idx := position
	for d := 0; d < t.depth; d++ {
		branch = append(branch, t.levels[d][idx^1])
		idx /= 2
	}
	return branch, nil
}
