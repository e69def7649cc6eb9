package merkle

import (
	"errors"

	"github.com/veilmix/privpool/internal/poseidon"
	"github.com/veilmix/privpool/pkg/field"
)

// ErrIndexOutOfRange is returned by GetPath when the requested leaf index
// was never inserted.
var ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

// GetPath reconstructs the sibling path for the leaf at index, given the
// full ordered list of inserted leaves. This is a client/test helper, not
// part of the on-chain deposit/withdraw path, which never needs to walk the
// whole leaf set.
func GetPath(leaves [][field.Size]byte, zeros [Depth][field.Size]byte, index uint64) (Path, error) {
	if index >= uint64(len(leaves)) {
		return Path{}, ErrIndexOutOfRange
	}

	// level holds the current level's node values, leaves first, padded
	// conceptually with zeros[level] beyond what was inserted.
	level := make([][field.Size]byte, len(leaves))
	copy(level, leaves)

	var path Path
	path.LeafPosition = index
	idx := index

	for d := 0; d < Depth; d++ {
		siblingIdx := idx ^ 1
		var sibling [field.Size]byte
		if int(siblingIdx) < len(level) {
			sibling = level[siblingIdx]
		} else {
			sibling = zeros[d]
		}
		path.Siblings[d] = sibling
		path.PathBits[d] = idx%2 == 1

		level = nextLevel(level, zeros[d])
		idx /= 2
	}

	return path, nil
}

func nextLevel(level [][field.Size]byte, zero [field.Size]byte) [][field.Size]byte {
	next := make([][field.Size]byte, (len(level)+1)/2)
	for i := range next {
		left := zero
		if 2*i < len(level) {
			left = level[2*i]
		}
		right := zero
		if 2*i+1 < len(level) {
			right = level[2*i+1]
		}
		next[i] = poseidon.H2(left, right)
	}
	return next
}
