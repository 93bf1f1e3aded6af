package merkle

import (
	"crypto/sha256"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidIndex is returned when a generalized index is internally
// inconsistent (zero, or an inner index that does not fit the subtree depth).
var ErrInvalidIndex = fmt.Errorf("merkle: invalid generalized index")

// Direction indicates on which side of the accumulated node a branch
// sibling sits at a given tree level.
type Direction int

const (
	// LeftSibling means the branch entry hashes in on the left.
	LeftSibling Direction = iota
	// RightSibling means the branch entry hashes in on the right.
	RightSibling
)

// GeneralizedIndex encodes a root-to-leaf path in a binary SSZ tree.
// Index 1 is the root; node k has children 2k and 2k+1. The bit pattern
// below the leading bit spells the path, most-significant bit first.
type GeneralizedIndex uint64

// HashPair combines two 32-byte digests into one using SHA-256, the SSZ
// tree hash. Order-sensitive: HashPair(a, b) != HashPair(b, a) in general.
func HashPair(left, right common.Hash) common.Hash {
	var data [64]byte
	copy(data[:32], left[:])
	copy(data[32:], right[:])
	return common.Hash(sha256.Sum256(data[:]))
}

// Depth returns the number of tree levels between the root and this index.
// Depth of the root (index 1) is 0. A branch proving this index must
// contain exactly Depth() sibling digests.
func (g GeneralizedIndex) Depth() int {
	return bits.Len64(uint64(g)) - 1
}

// DirectionAtLevel reports whether the branch sibling at the given level
// is on the left or the right of the accumulated node. Levels count from
// the leaf upward: level 0 is the leaf's immediate sibling. The direction
// is bit `level` of the index: a zero bit means the path node is a left
// child, so its sibling hashes in on the right.
func (g GeneralizedIndex) DirectionAtLevel(level int) Direction {
	if (g>>uint(level))&1 == 0 {
		return RightSibling
	}
	return LeftSibling
}

// Sibling returns the generalized index of this node's sibling.
func (g GeneralizedIndex) Sibling() GeneralizedIndex {
	return g ^ 1
}

// Parent returns the generalized index of this node's parent.
func (g GeneralizedIndex) Parent() GeneralizedIndex {
	return g >> 1
}

// Compose nests an inner subtree index inside an outer field index.
// outer is the generalized index of the subtree's root within the
// enclosing container; innerIndex addresses a leaf within a subtree of
// exactly innerDepth levels. The resulting index addresses the leaf
// relative to the container root.
func Compose(outer GeneralizedIndex, innerDepth int, innerIndex uint64) (GeneralizedIndex, error) {
	if outer == 0 {
		return 0, fmt.Errorf("%w: outer index must be >= 1", ErrInvalidIndex)
	}
	if innerDepth < 0 || innerDepth >= 64 {
		return 0, fmt.Errorf("%w: inner depth %d out of range", ErrInvalidIndex, innerDepth)
	}
	if outer.Depth()+innerDepth > 63 {
		return 0, fmt.Errorf("%w: composed index of outer %d and depth %d overflows", ErrInvalidIndex, outer, innerDepth)
	}
	if innerIndex >= 1<<uint(innerDepth) {
		return 0, fmt.Errorf("%w: inner index %d exceeds subtree of depth %d", ErrInvalidIndex, innerIndex, innerDepth)
	}
	return outer<<uint(innerDepth) | GeneralizedIndex(innerIndex), nil
}

// RestoreRoot folds a sibling branch into the root digest it commits to.
// The branch is ordered from the leaf's immediate sibling up to the level
// just below the root and must contain exactly index.Depth() entries.
func RestoreRoot(leaf common.Hash, branch []common.Hash, index GeneralizedIndex) (common.Hash, error) {
	if index == 0 {
		return common.Hash{}, ErrInvalidIndex
	}
	depth := index.Depth()
	if len(branch) != depth {
		return common.Hash{}, fmt.Errorf("merkle: branch has %d entries, index depth is %d", len(branch), depth)
	}

	acc := leaf
	for level := 0; level < depth; level++ {
		if index.DirectionAtLevel(level) == RightSibling {
			acc = HashPair(acc, branch[level])
		} else {
			acc = HashPair(branch[level], acc)
		}
	}
	return acc, nil
}

// VerifyBranch checks that leaf sits at the given generalized index under
// root. Any shape mismatch yields false, never an error.
func VerifyBranch(leaf common.Hash, branch []common.Hash, index GeneralizedIndex, root common.Hash) bool {
	computed, err := RestoreRoot(leaf, branch, index)
	if err != nil {
		return false
	}
	return computed == root
}
