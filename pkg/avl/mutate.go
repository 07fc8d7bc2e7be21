package avl

type insertPolicy int

const (
	// insertKeep leaves an existing entry untouched.
	insertKeep insertPolicy = iota
	// insertReplace overwrites key and value of an existing entry.
	insertReplace
)

func (t *Tree[K, V]) insert(n *node[K, V], key K, value V, policy insertPolicy, replaced *bool) *node[K, V] {
	if n == nil {
		return &node[K, V]{key: key, value: value}
	}

	c := t.compare(key, n.key)
	switch {
	case c < 0:
		n.left = t.insert(n.left, key, value, policy, replaced)
	case c > 0:
		n.right = t.insert(n.right, key, value, policy, replaced)
	default:
		if policy == insertReplace {
			n.key = key
			n.value = value
			if replaced != nil {
				*replaced = true
			}
		}
		return n
	}

	n.fix()

	switch n.balance() {
	case 2:
		if t.compare(key, n.left.key) < 0 {
			return n.rotateRight()
		}
		n.left = n.left.rotateLeft()
		return n.rotateRight()
	case -2:
		if t.compare(key, n.right.key) > 0 {
			return n.rotateLeft()
		}
		n.right = n.right.rotateRight()
		return n.rotateLeft()
	}
	return n
}

func (t *Tree[K, V]) delete(n *node[K, V], key K, removed *bool) *node[K, V] {
	if n == nil {
		return nil
	}

	c := t.compare(key, n.key)
	switch {
	case c < 0:
		n.left = t.delete(n.left, key, removed)
	case c > 0:
		n.right = t.delete(n.right, key, removed)
	default:
		*removed = true
		switch {
		case n.left == nil && n.right == nil:
			return nil
		case n.left == nil:
			return n.right
		case n.right == nil:
			return n.left
		}
		succ := n.right.leftmost()
		n.key = succ.key
		n.value = succ.value
		n.right = t.delete(n.right, succ.key, removed)
	}

	n.fix()

	switch b := n.balance(); {
	case b > 1:
		if n.left.balance() < 0 {
			n.left = n.left.rotateLeft()
		}
		return n.rotateRight()
	case b < -1:
		if n.right.balance() > 0 {
			n.right = n.right.rotateRight()
		}
		return n.rotateLeft()
	}
	return n
}
