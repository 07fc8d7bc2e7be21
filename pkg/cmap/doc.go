// Package cmap provides a sharded concurrent map keyed by string.
//
// Each shard has its own RWMutex, so unrelated keys rarely contend. The
// server keeps its live connections here, keyed by connection ID.
//
//	m := cmap.New[*conn]()
//	m.Set(id, c)
//	c, ok := m.Pop(id)
package cmap
