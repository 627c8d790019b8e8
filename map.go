// Package pnbtree provides Map, a concurrent, lock-free ordered map backed
// by a leaf-oriented binary search tree. Point operations (Contains,
// PutIfAbsent, Remove) are lock-free; RangeScan is wait-free after a single
// increment of the map's version counter and observes a consistent
// snapshot of the tree taken at the moment it is called.
//
// The algorithm is the Persistent Non-Blocking Binary Search Tree of
// Fatourou, Ruppert, and Papavasileiou ("Persistent Non-Blocking Binary
// Search Trees Supporting Wait-Free Range Queries"). Multi-word updates are
// linearized through a descriptor published on the node whose child
// pointer is about to change; any thread that observes an in-progress
// descriptor helps it toward completion, which is what keeps the algorithm
// lock-free without ever blocking a reader.
package pnbtree

import (
	"errors"
	"reflect"
	"sync"

	"github.com/go-pnbst/pnbtree/gatomic"
)

// ErrNilKey is the panic value used when a nil key reaches the map. Nil is
// reserved for the internal sentinel; it is not a legal user key.
var ErrNilKey = errors.New("pnbtree: nil key")

// ErrInvalidRange is the panic value used when RangeScan's bounds are
// given in the wrong order.
var ErrInvalidRange = errors.New("pnbtree: invalid range: a must sort at or before b")

// maxTrackedScans bounds the number of concurrently in-flight RangeScan
// calls whose view the map records by sequence number for the optional
// Retire hook. A scan that can't find a free slot is still counted (see
// activeScanCount) but its exact view goes untracked, which only ever
// makes tryRetire more conservative: it still knows a scan is in flight,
// it just can't rule n out by sequence number, so it skips retiring n.
const maxTrackedScans = 64

// Map is a concurrent ordered map of K to V. The zero value is not usable;
// construct one with New or NewWithRetire.
type Map[K, V any] struct {
	less func(a, b K) bool

	root    *Node[K, V]
	dummy   *Descriptor[K, V]
	counter gatomic.Int64

	retire          func(*Node[K, V])
	activeScanCount gatomic.Int64
	activeSeq       [maxTrackedScans]gatomic.Int64

	scanBufs sync.Pool
}

// New returns an empty Map ordered by less. Retirement of superseded nodes
// is left entirely to the garbage collector.
func New[K, V any](less func(a, b K) bool) *Map[K, V] {
	return NewWithRetire[K, V](less, nil)
}

// NewWithRetire is like New but additionally calls retire for nodes that
// become unreachable from root. Each such node is checked once, when the
// descriptor that removes it commits, and is passed to retire only if the
// map's bookkeeping then indicates no in-flight RangeScan could still need
// to walk through it; a node that fails that check is not offered to retire
// again. retire may be nil, in which case this is equivalent to New.
//
// The map makes no stronger promise than that: a node is retired no
// earlier than it becomes safe by this best-effort measure, but nothing
// here performs hazard-pointer or epoch bookkeeping beyond the coarse
// low-water mark described in package gatomic's callers. Safe memory
// reclamation in the general case is explicitly outside the algorithm's
// scope; retire is a narrow, optional collaborator for callers that want
// one.
func NewWithRetire[K, V any](less func(a, b K) bool, retire func(*Node[K, V])) *Map[K, V] {
	m := &Map[K, V]{less: less, retire: retire}
	m.dummy = &Descriptor[K, V]{}
	m.dummy.state.Store(int32(stateAbort))

	d1 := m.newSentinelInternal(m.newSentinelLeaf(), m.newSentinelLeaf())
	d2 := m.newSentinelInternal(m.newSentinelLeaf(), m.newSentinelLeaf())
	m.root = m.newSentinelInternal(d1, d2)
	return m
}

func (m *Map[K, V]) newSentinelLeaf() *Node[K, V] {
	n := &Node[K, V]{}
	n.info.Store(m.dummy)
	return n
}

func (m *Map[K, V]) newSentinelInternal(left, right *Node[K, V]) *Node[K, V] {
	n := &Node[K, V]{}
	n.left.Store(left)
	n.right.Store(right)
	n.info.Store(m.dummy)
	return n
}

// goLeft reports whether key belongs in the left subtree rooted below a
// node whose routing key is nodeKey. A nil nodeKey is the sentinel, treated
// as smaller than every real key, so it always routes left.
func (m *Map[K, V]) goLeft(key K, nodeKey *K) bool {
	return nodeKey == nil || m.less(key, *nodeKey)
}

// equal reports whether a and b compare equal under less.
func (m *Map[K, V]) equal(a, b K) bool {
	return !m.less(a, b) && !m.less(b, a)
}

func keyPtr[K any](k K) *K {
	return &k
}

// isNilKey reports whether key is a nil interface, pointer, slice, map,
// channel, or function value. For non-nilable K (ints, strings, structs,
// ...) it always reports false.
//
// any(key) == nil would only catch a literal untyped nil: boxing a typed
// nil pointer (or slice, map, chan, func) into an any still produces a
// non-nil interface, since the interface's type word is set even though
// its data word is nil. reflect.Value.IsNil is the standard library's own
// answer to this (text/template's isTrue uses the same Kind switch), so
// it is used here instead of an any comparison.
func isNilKey[K any](key K) bool {
	v := reflect.ValueOf(key)
	if !v.IsValid() {
		// key's static type is itself an interface (e.g. K == any or K ==
		// error) and its dynamic value is the untyped nil: boxing it into
		// the any parameter above carried no type word at all.
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

func (m *Map[K, V]) getScanBuf() *valueStack[V] {
	if v := m.scanBufs.Get(); v != nil {
		buf := v.(*valueStack[V])
		buf.reset()
		return buf
	}
	return newValueStack[V]()
}

func (m *Map[K, V]) putScanBuf(buf *valueStack[V]) {
	m.scanBufs.Put(buf)
}
