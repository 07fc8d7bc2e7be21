package avl

type node[K, V any] struct {
	key    K
	value  V
	left   *node[K, V]
	right  *node[K, V]
	height int
}

// height of a nil subtree is -1, of a leaf 0.
func height[K, V any](n *node[K, V]) int {
	if n == nil {
		return -1
	}
	return n.height
}

func (n *node[K, V]) fix() {
	n.height = max(height(n.left), height(n.right)) + 1
}

func (n *node[K, V]) balance() int {
	return height(n.left) - height(n.right)
}

func (n *node[K, V]) entry() *Entry[K, V] {
	if n == nil {
		return nil
	}
	return &Entry[K, V]{Key: n.key, Value: n.value}
}

func (n *node[K, V]) leftmost() *node[K, V] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func (n *node[K, V]) rightmost() *node[K, V] {
	for n.right != nil {
		n = n.right
	}
	return n
}

// rotateRight lifts the left child into n's place.
//
//	    n             l
//	   / \           / \
//	  l   c   ->    a   n
//	 / \               / \
//	a   b             b   c
func (n *node[K, V]) rotateRight() *node[K, V] {
	l := n.left
	n.left = l.right
	l.right = n
	n.fix()
	l.fix()
	return l
}

// rotateLeft lifts the right child into n's place.
//
//	  n                 r
//	 / \               / \
//	a   r      ->     n   c
//	   / \           / \
//	  b   c         a   b
func (n *node[K, V]) rotateLeft() *node[K, V] {
	r := n.right
	n.right = r.left
	r.left = n
	n.fix()
	r.fix()
	return r
}
