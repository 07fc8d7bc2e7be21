package memory

import (
	"errors"
	"fmt"
	"math"

	"github.com/yndnr/tokgate/pkg/avl"
)

// IDSet is a set of ticket IDs sharing one expiry instant.
type IDSet map[string]struct{}

// Items returns the IDs in no particular order.
func (s IDSet) Items() []string {
	items := make([]string, 0, len(s))
	for id := range s {
		items = append(items, id)
	}
	return items
}

// ExpiryIndex orders ticket IDs by expiry (Unix milliseconds).
//
// It is a secondary, non-owning index: buckets hold identifiers only.
// ExpiryIndex is not safe for concurrent use; TicketStore serializes access.
type ExpiryIndex struct {
	tree *avl.Tree[int64, IDSet]
	size int
}

// NewExpiryIndex creates an empty expiry index.
func NewExpiryIndex() *ExpiryIndex {
	return &ExpiryIndex{tree: avl.New[int64, IDSet]()}
}

// Add files id under the bucket at expiresAt, creating the bucket if needed.
func (x *ExpiryIndex) Add(expiresAt int64, id string) {
	set, _ := x.tree.Put(expiresAt, IDSet{})
	if _, ok := set[id]; !ok {
		set[id] = struct{}{}
		x.size++
	}
}

// Remove unfiles id from the bucket at expiresAt. Empty buckets are dropped.
// It reports whether id was present.
func (x *ExpiryIndex) Remove(expiresAt int64, id string) bool {
	set, ok := x.tree.Get(expiresAt)
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	x.size--
	if len(set) == 0 {
		x.tree.Remove(expiresAt)
	}
	return true
}

// Contains reports whether id is filed under expiresAt.
func (x *ExpiryIndex) Contains(expiresAt int64, id string) bool {
	set, ok := x.tree.Get(expiresAt)
	if !ok {
		return false
	}
	_, ok = set[id]
	return ok
}

// TakeDue detaches every bucket whose key is <= now and returns them in
// ascending expiry order. The scan stops at the first bucket in the future.
// If the traversal fails, the buckets collected before the failure are
// still detached and returned alongside the error.
func (x *ExpiryIndex) TakeDue(now int64) ([]Bucket, error) {
	var due []Bucket
	err := x.tree.IterateForward(math.MinInt64, func(at int64, ids IDSet) error {
		if at > now {
			return avl.Stop
		}
		due = append(due, Bucket{ExpiresAt: at, IDs: ids})
		return nil
	})
	if errors.Is(err, avl.Stop) {
		err = nil
	}

	for _, b := range due {
		x.tree.Remove(b.ExpiresAt)
		x.size -= len(b.IDs)
	}
	if err != nil {
		return due, fmt.Errorf("scan expiry index: %w", err)
	}
	return due, nil
}

// Next returns the earliest expiry in the index.
func (x *ExpiryIndex) Next() (int64, bool) {
	return x.tree.Min()
}

// Buckets returns the number of distinct expiry instants.
func (x *ExpiryIndex) Buckets() int {
	return x.tree.Len()
}

// Len returns the number of filed IDs across all buckets.
func (x *ExpiryIndex) Len() int {
	return x.size
}

// Bucket is one detached expiry bucket.
type Bucket struct {
	ExpiresAt int64
	IDs       IDSet
}
