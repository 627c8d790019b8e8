package pnbtree_test

import (
	"sort"
	"testing"

	"github.com/go-pnbst/pnbtree"
)

func intLess(a, b int) bool { return a < b }

func TestPutIfAbsentAndContains(t *testing.T) {
	m := pnbtree.New[int, string](intLess)

	if _, present := m.PutIfAbsent(5, "a"); present {
		t.Fatalf("expected 5 to be absent on first insert")
	}
	if !m.Contains(5) {
		t.Fatalf("expected Contains(5) to be true after insert")
	}
	prior, present := m.PutIfAbsent(5, "b")
	if !present || prior != "a" {
		t.Fatalf("expected second PutIfAbsent(5, ...) to report prior=%q present=true, got prior=%q present=%v", "a", prior, present)
	}
	if !m.Contains(5) {
		t.Fatalf("expected Contains(5) to remain true")
	}

	got := m.RangeScan(5, 5)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected map to contain exactly {5: a}, got %v", got)
	}
}

func TestInsertDuplicatesAndRangeScan(t *testing.T) {
	m := pnbtree.New[int, int](intLess)

	keys := []int{3, 1, 4, 1, 5, 9, 2, 6}
	var results []int
	for _, k := range keys {
		prior, present := m.PutIfAbsent(k, k)
		if present {
			results = append(results, prior)
		} else {
			results = append(results, -1)
		}
	}

	// The second occurrence of 1 should report the first 1's value.
	firstOneIdx, secondOneIdx := -1, -1
	for i, k := range keys {
		if k == 1 {
			if firstOneIdx == -1 {
				firstOneIdx = i
			} else {
				secondOneIdx = i
			}
		}
	}
	if results[secondOneIdx] != keys[firstOneIdx] {
		t.Fatalf("expected second insert of 1 to report prior value %d, got %d", keys[firstOneIdx], results[secondOneIdx])
	}

	got := m.RangeScan(2, 5)
	want := []int{2, 3, 4, 5}
	if !equalInts(got, want) {
		t.Fatalf("RangeScan(2, 5) = %v, want %v", got, want)
	}
}

func TestRemove(t *testing.T) {
	m := pnbtree.New[int, string](intLess)
	m.PutIfAbsent(10, "ten")
	m.PutIfAbsent(20, "twenty")
	m.PutIfAbsent(30, "thirty")

	prior, present := m.Remove(20)
	if !present || prior != "twenty" {
		t.Fatalf("Remove(20) = (%q, %v), want (%q, true)", prior, present, "twenty")
	}
	if m.Contains(20) {
		t.Fatalf("expected Contains(20) to be false after removal")
	}

	got := m.RangeScan(0, 100)
	want := []string{"ten", "thirty"}
	if !equalStrings(got, want) {
		t.Fatalf("RangeScan(0, 100) = %v, want %v", got, want)
	}
}

func TestRemoveAbsentKeyIsNoop(t *testing.T) {
	m := pnbtree.New[int, string](intLess)
	m.PutIfAbsent(1, "one")

	prior, present := m.Remove(42)
	if present {
		t.Fatalf("Remove(42) reported present=true for a key never inserted, prior=%q", prior)
	}

	got := m.RangeScan(0, 1000)
	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("expected the tree to be unchanged after removing an absent key, got %v", got)
	}
}

func TestRangeScanEmptyMap(t *testing.T) {
	m := pnbtree.New[int, int](intLess)
	got := m.RangeScan(0, 100)
	if len(got) != 0 {
		t.Fatalf("expected empty RangeScan on an empty map, got %v", got)
	}
}

func TestRangeScanOrdering(t *testing.T) {
	m := pnbtree.New[int, int](intLess)
	values := []int{50, 10, 40, 20, 30, 5, 45}
	for _, v := range values {
		m.PutIfAbsent(v, v)
	}
	got := m.RangeScan(0, 1000)
	want := append([]int(nil), values...)
	sort.Ints(want)
	if !equalInts(got, want) {
		t.Fatalf("RangeScan ordering = %v, want %v", got, want)
	}
}

func TestRangeScanInvalidBoundsPanics(t *testing.T) {
	m := pnbtree.New[int, int](intLess)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected RangeScan(5, 1) to panic")
		}
	}()
	m.RangeScan(5, 1)
}

func TestNilKeyPanics(t *testing.T) {
	m := pnbtree.New[*int, int](func(a, b *int) bool { return *a < *b })
	defer func() {
		if recover() == nil {
			t.Fatalf("expected PutIfAbsent(nil, ...) to panic")
		}
	}()
	m.PutIfAbsent(nil, 1)
}

func TestStringKeys(t *testing.T) {
	m := pnbtree.New[string, int](func(a, b string) bool { return a < b })
	words := map[string]int{"pear": 3, "apple": 1, "banana": 2, "cherry": 4}
	for w, v := range words {
		m.PutIfAbsent(w, v)
	}
	got := m.RangeScan("a", "z")
	want := []int{1, 2, 4, 3}
	if !equalInts(got, want) {
		t.Fatalf("RangeScan over string keys = %v, want %v", got, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
