// Package avl provides a generic ordered map backed by an AVL tree.
//
// The tree keeps keys unique and totally ordered by an injected comparator.
// Besides point lookups it answers neighbour queries (Find) and ordered
// traversals starting at an arbitrary key, which is what the ticket store
// needs to drain expiry buckets in time order.
//
// A Tree is not safe for concurrent use. Callers serialize access.
package avl

import (
	"cmp"
	"errors"
)

// ErrDuplicateKey is returned by Add when the key is already present.
var ErrDuplicateKey = errors.New("avl: duplicate key")

// Stop can be returned from an iteration callback to end the traversal.
// The iteration methods return it unchanged so callers can tell a clean
// stop from a real failure with errors.Is.
var Stop = errors.New("avl: stop iteration")

// Compare returns a negative number when a < b, zero when a == b and a
// positive number when a > b.
type Compare[K any] func(a, b K) int

// Entry is a key/value pair returned by neighbour queries.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Tree is an ordered map from K to V.
type Tree[K, V any] struct {
	root    *node[K, V]
	size    int
	compare Compare[K]
}

// New creates an empty tree ordered by cmp.Compare.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc creates an empty tree ordered by compare.
func NewFunc[K, V any](compare Compare[K]) *Tree[K, V] {
	if compare == nil {
		panic("avl: nil comparator")
	}
	return &Tree[K, V]{compare: compare}
}

// Len returns the number of stored keys.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// IsEmpty reports whether the tree holds no keys.
func (t *Tree[K, V]) IsEmpty() bool {
	return t.size == 0
}

// Add inserts key with value. It fails with ErrDuplicateKey when the key
// already exists, in which case the tree is left untouched.
func (t *Tree[K, V]) Add(key K, value V) error {
	if t.Has(key) {
		return ErrDuplicateKey
	}
	t.root = t.insert(t.root, key, value, insertKeep, nil)
	t.size++
	return nil
}

// Put inserts key with value only if the key is absent. It returns the value
// now associated with key and whether an insert took place.
func (t *Tree[K, V]) Put(key K, value V) (V, bool) {
	if n := t.lookup(key); n != nil {
		return n.value, false
	}
	t.root = t.insert(t.root, key, value, insertKeep, nil)
	t.size++
	return value, true
}

// Set inserts key with value, overwriting both key and value when an equal
// key is already stored.
func (t *Tree[K, V]) Set(key K, value V) {
	var replaced bool
	t.root = t.insert(t.root, key, value, insertReplace, &replaced)
	if !replaced {
		t.size++
	}
}

// Remove deletes key. Removing an absent key is a no-op and returns false.
func (t *Tree[K, V]) Remove(key K) bool {
	var removed bool
	t.root = t.delete(t.root, key, &removed)
	if removed {
		t.size--
	}
	return removed
}

// Clear drops every key.
func (t *Tree[K, V]) Clear() {
	t.root = nil
	t.size = 0
}

// Get returns the value stored for key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	if n := t.lookup(key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is stored.
func (t *Tree[K, V]) Has(key K) bool {
	return t.lookup(key) != nil
}

// Min returns the smallest key.
func (t *Tree[K, V]) Min() (K, bool) {
	if t.root == nil {
		var zero K
		return zero, false
	}
	return t.root.leftmost().key, true
}

// Max returns the largest key.
func (t *Tree[K, V]) Max() (K, bool) {
	if t.root == nil {
		var zero K
		return zero, false
	}
	return t.root.rightmost().key, true
}

// Find returns the in-order predecessor of key, the entry stored under key
// and the in-order successor of key. Any of the three is nil when absent.
// key does not need to be stored for prev and next to be reported.
func (t *Tree[K, V]) Find(key K) (prev, current, next *Entry[K, V]) {
	var lo, hi *node[K, V]
	n := t.root
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			hi = n
			n = n.left
		case c > 0:
			lo = n
			n = n.right
		default:
			current = n.entry()
			if n.left != nil {
				lo = n.left.rightmost()
			}
			if n.right != nil {
				hi = n.right.leftmost()
			}
			n = nil
		}
	}
	return lo.entry(), current, hi.entry()
}

func (t *Tree[K, V]) lookup(key K) *node[K, V] {
	n := t.root
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}
