// Package index implements the incremental interval-overlap index the
// detector queries after every insertion.
//
// The structure is a treap (randomized balanced BST) keyed by
// (start, end, insertion sequence), with every node augmented by the
// maximum end instant in its subtree. Insertion is O(log n) expected and
// an overlap query is O(log n + k) expected, k being the number of
// overlaps found. In-order traversal order doubles as the deterministic
// report order: start, then end, then insertion order.
package index

import (
	"math/rand"
	"time"

	"calclash/internal/model"
)

type node struct {
	ev  model.Event
	seq uint64 // insertion order, breaks ties between identical intervals

	priority uint64
	maxEnd   time.Time // max End over this subtree

	left, right *node
}

// Index is an insert-only interval collection. It is owned by a single
// goroutine (the detector) and performs no internal locking.
type Index struct {
	root *node
	size int
	seq  uint64
	rng  *rand.Rand
}

// New creates an empty index.
func New() *Index {
	return &Index{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Len returns the number of inserted events.
func (ix *Index) Len() int {
	return ix.size
}

// Insert adds an event's interval to the index. Events are never removed
// or mutated afterward. Returns model.ErrMalformed (wrapped) if the
// event's interval is inverted; the index is left unchanged in that case.
func (ix *Index) Insert(ev model.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	ix.seq++
	n := &node{
		ev:       ev,
		seq:      ix.seq,
		priority: ix.rng.Uint64(),
		maxEnd:   ev.End,
	}
	ix.root = insert(ix.root, n)
	ix.size++
	return nil
}

// Overlapping returns every inserted event whose interval shares at least
// one instant with [start, end], bounds inclusive. Results are ordered by
// start, then end, then insertion order. Querying an unchanged index
// repeatedly yields the same result.
func (ix *Index) Overlapping(start, end time.Time) []model.Event {
	var out []model.Event
	collect(ix.root, start, end, &out)
	return out
}

// less orders nodes by (start, end, seq).
func less(a, b *node) bool {
	if !a.ev.Start.Equal(b.ev.Start) {
		return a.ev.Start.Before(b.ev.Start)
	}
	if !a.ev.End.Equal(b.ev.End) {
		return a.ev.End.Before(b.ev.End)
	}
	return a.seq < b.seq
}

func insert(root, n *node) *node {
	if root == nil {
		return n
	}
	if less(n, root) {
		root.left = insert(root.left, n)
		if root.left.priority > root.priority {
			root = rotateRight(root)
		}
	} else {
		root.right = insert(root.right, n)
		if root.right.priority > root.priority {
			root = rotateLeft(root)
		}
	}
	pull(root)
	return root
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	pull(n)
	pull(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	pull(n)
	pull(r)
	return r
}

// pull recomputes the subtree max-end augmentation for n.
func pull(n *node) {
	n.maxEnd = n.ev.End
	if n.left != nil && n.left.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.right.maxEnd
	}
}

// collect appends, in-order, every event in the subtree overlapping
// [start, end]. The left subtree is pruned when its max end precedes the
// query start; the right subtree is pruned when this node's start already
// exceeds the query end, since right-side starts are no smaller.
func collect(n *node, start, end time.Time, out *[]model.Event) {
	if n == nil || n.maxEnd.Before(start) {
		return
	}

	collect(n.left, start, end, out)

	if n.ev.Start.After(end) {
		return
	}
	if !n.ev.End.Before(start) {
		*out = append(*out, n.ev)
	}
	collect(n.right, start, end, out)
}
