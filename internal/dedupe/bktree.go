package dedupe

import "math/bits"

// hamming is the metric the tree is built on: differing bit count between
// two 64-bit perceptual hashes.
func hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// bkTree indexes perceptual hashes for radius queries. Lookups only
// descend branches whose edge distance can still satisfy the triangle
// inequality, so a query touches a small slice of the tree instead of
// every hash.
type bkTree struct {
	root *bkNode
}

type bkNode struct {
	hash     uint64
	indices  []int
	children map[int]*bkNode
}

// insert adds a record index under its hash. Identical hashes collect on
// one node.
func (t *bkTree) insert(hash uint64, idx int) {
	if t.root == nil {
		t.root = &bkNode{hash: hash, indices: []int{idx}}
		return
	}

	node := t.root
	for {
		d := hamming(hash, node.hash)
		if d == 0 {
			node.indices = append(node.indices, idx)
			return
		}
		if node.children == nil {
			node.children = make(map[int]*bkNode)
		}
		child, ok := node.children[d]
		if !ok {
			node.children[d] = &bkNode{hash: hash, indices: []int{idx}}
			return
		}
		node = child
	}
}

// within returns the indices of all hashes at most radius bits away from
// hash, query point included.
func (t *bkTree) within(hash uint64, radius int) []int {
	if t.root == nil {
		return nil
	}

	var out []int
	stack := []*bkNode{t.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := hamming(hash, node.hash)
		if d <= radius {
			out = append(out, node.indices...)
		}

		lo, hi := d-radius, d+radius
		for edge, child := range node.children {
			if edge >= lo && edge <= hi {
				stack = append(stack, child)
			}
		}
	}
	return out
}
