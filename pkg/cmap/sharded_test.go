package cmap

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}

	if New[int]().ShardCount() != DefaultShardCount {
		t.Error("New() did not use DefaultShardCount")
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if v, ok := m.Get("a"); !ok || v != 3 {
		t.Errorf("Get(a) = (%d, %v), want (3, true)", v, ok)
	}
	if !m.Has("b") || m.Has("c") {
		t.Error("Has mismatch")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("a")
	m.Delete("missing")
	if _, ok := m.Get("a"); ok {
		t.Error("Get(a) after Delete succeeded")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Fatal("SetIfAbsent on empty map returned false")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("SetIfAbsent on existing key returned true")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("value = %q, want first", v)
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("k", 7)

	v, ok := m.Pop("k")
	if !ok || v != 7 {
		t.Fatalf("Pop = (%d, %v), want (7, true)", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop succeeded")
	}
}

func TestRangeKeys(t *testing.T) {
	m := NewWithShards[int](4)
	for i := 0; i < 50; i++ {
		m.Set(strconv.Itoa(i), i)
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 49*50/2 {
		t.Errorf("Range sum = %d", sum)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 5
	})
	if visited != 5 {
		t.Errorf("Range visited %d entries after stop, want 5", visited)
	}

	keys := m.Keys()
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	if len(keys) != 50 || keys[0] != "0" || keys[49] != "49" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestDrain(t *testing.T) {
	m := New[int]()
	for i := 0; i < 20; i++ {
		m.Set(strconv.Itoa(i), i)
	}

	got := m.Drain()
	if len(got) != 20 {
		t.Errorf("Drain returned %d values, want 20", len(got))
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Drain = %d", m.Count())
	}
	if len(m.Drain()) != 0 {
		t.Error("second Drain returned values")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	const goroutines, ops = 50, 500

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				key := strconv.Itoa(base*ops + j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != goroutines*ops {
		t.Errorf("Count() = %d, want %d", m.Count(), goroutines*ops)
	}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				m.Pop(strconv.Itoa(base*ops + j))
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != 0 {
		t.Errorf("Count() after concurrent Pop = %d", m.Count())
	}
}
