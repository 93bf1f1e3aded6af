package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func BenchmarkHashPair(b *testing.B) {
	left := common.HexToHash("0x01")
	right := common.HexToHash("0x02")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HashPair(left, right)
	}
}

// BenchmarkRestoreRoot measures a fold at the depth used for block-roots
// proofs (13 vector levels plus 5 container levels).
func BenchmarkRestoreRoot(b *testing.B) {
	const depth = 18
	index := GeneralizedIndex(1)<<depth | 4552

	leaf := common.HexToHash("0x01")
	branch := make([]common.Hash, depth)
	for i := range branch {
		branch[i] = common.BigToHash(common.Big1)
		branch[i][0] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RestoreRoot(leaf, branch, index); err != nil {
			b.Fatal(err)
		}
	}
}
