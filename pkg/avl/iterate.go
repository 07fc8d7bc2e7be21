package avl

import "iter"

// IterateForward visits entries in ascending key order, starting at the
// first key >= start. A nil return from fn continues the traversal; any
// other value stops it and is returned.
func (t *Tree[K, V]) IterateForward(start K, fn func(key K, value V) error) error {
	return t.ascend(t.root, start, fn)
}

// IterateReverse visits entries in descending key order, starting at the
// first key <= start. Callback semantics match IterateForward.
func (t *Tree[K, V]) IterateReverse(start K, fn func(key K, value V) error) error {
	return t.descend(t.root, start, fn)
}

// All yields every entry in ascending key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		inorder(t.root, func(n *node[K, V]) bool {
			return yield(n.key, n.value)
		})
	}
}

// Keys returns all keys in ascending order.
func (t *Tree[K, V]) Keys() []K {
	keys := make([]K, 0, t.size)
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}

func (t *Tree[K, V]) ascend(n *node[K, V], start K, fn func(K, V) error) error {
	for n != nil {
		c := t.compare(start, n.key)
		if c > 0 {
			n = n.right
			continue
		}
		if c < 0 {
			if err := t.ascend(n.left, start, fn); err != nil {
				return err
			}
		}
		if err := fn(n.key, n.value); err != nil {
			return err
		}
		return eachAscending(n.right, fn)
	}
	return nil
}

func (t *Tree[K, V]) descend(n *node[K, V], start K, fn func(K, V) error) error {
	for n != nil {
		c := t.compare(start, n.key)
		if c < 0 {
			n = n.left
			continue
		}
		if c > 0 {
			if err := t.descend(n.right, start, fn); err != nil {
				return err
			}
		}
		if err := fn(n.key, n.value); err != nil {
			return err
		}
		return eachDescending(n.left, fn)
	}
	return nil
}

func eachAscending[K, V any](n *node[K, V], fn func(K, V) error) error {
	if n == nil {
		return nil
	}
	if err := eachAscending(n.left, fn); err != nil {
		return err
	}
	if err := fn(n.key, n.value); err != nil {
		return err
	}
	return eachAscending(n.right, fn)
}

func eachDescending[K, V any](n *node[K, V], fn func(K, V) error) error {
	if n == nil {
		return nil
	}
	if err := eachDescending(n.right, fn); err != nil {
		return err
	}
	if err := fn(n.key, n.value); err != nil {
		return err
	}
	return eachDescending(n.left, fn)
}

func inorder[K, V any](n *node[K, V], visit func(*node[K, V]) bool) bool {
	if n == nil {
		return true
	}
	return inorder(n.left, visit) && visit(n) && inorder(n.right, visit)
}
