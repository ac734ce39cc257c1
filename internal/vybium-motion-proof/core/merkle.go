package core

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// MerkleTree commits to the rows of a constraint matrix. One leaf per row,
// built from the Tip5 row digest bytes; inner nodes use SHA3-256.
type MerkleTree struct {
	root   []byte
	leaves [][]byte
	levels [][][]byte
}

// ProofNode is a single sibling hash on a Merkle authentication path
type ProofNode struct {
	Hash    []byte
	IsRight bool // true if the sibling is the right child
}

// NewMerkleTree creates a new Merkle tree from the given leaf data
func NewMerkleTree(data [][]byte) (*MerkleTree, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot create Merkle tree with empty data")
	}

	leaves := make([][]byte, len(data))
	for i, item := range data {
		leaves[i] = computeHash(item)
	}

	levels := [][][]byte{leaves}
	currentLevel := leaves

	for len(currentLevel) > 1 {
		nextLevel := make([][]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			var digest []byte
			if i+1 < len(currentLevel) {
				digest = computeHash(append(append([]byte(nil), currentLevel[i]...), currentLevel[i+1]...))
			} else {
				// Odd node count: pair the last node with itself
				digest = computeHash(append(append([]byte(nil), currentLevel[i]...), currentLevel[i]...))
			}
			nextLevel = append(nextLevel, digest)
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &MerkleTree{
		root:   currentLevel[0],
		leaves: leaves,
		levels: levels,
	}, nil
}

// Root returns the Merkle root
func (mt *MerkleTree) Root() []byte {
	return append([]byte(nil), mt.root...)
}

// NumLeaves returns the number of committed leaves
func (mt *MerkleTree) NumLeaves() int {
	return len(mt.leaves)
}

// AuthenticationPath generates the sibling path for the given leaf index
func (mt *MerkleTree) AuthenticationPath(index int) ([]ProofNode, error) {
	if index < 0 || index >= len(mt.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(mt.leaves))
	}

	var path []ProofNode
	currentIndex := index

	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		var siblingIndex int
		var isRight bool
		if currentIndex%2 == 0 {
			siblingIndex = currentIndex + 1
			isRight = true
		} else {
			siblingIndex = currentIndex - 1
			isRight = false
		}

		if siblingIndex < len(currentLevel) {
			path = append(path, ProofNode{
				Hash:    append([]byte(nil), currentLevel[siblingIndex]...),
				IsRight: isRight,
			})
		} else {
			// Odd node pairs with itself
			path = append(path, ProofNode{
				Hash:    append([]byte(nil), currentLevel[currentIndex]...),
				IsRight: true,
			})
		}

		currentIndex /= 2
	}

	return path, nil
}

// VerifyPath checks a leaf against a root using its authentication path
func VerifyPath(root []byte, leaf []byte, path []ProofNode) bool {
	digest := computeHash(leaf)

	for _, node := range path {
		if node.IsRight {
			digest = computeHash(append(append([]byte(nil), digest...), node.Hash...))
		} else {
			digest = computeHash(append(append([]byte(nil), node.Hash...), digest...))
		}
	}

	return bytes.Equal(digest, root)
}

func computeHash(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}
