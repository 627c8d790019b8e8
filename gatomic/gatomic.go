// Package gatomic provides small generic wrappers around sync/atomic's
// pointer and word-sized primitives. It exists so that code built around a
// single-word CAS protocol — a descriptor published by one CAS, a state
// word advanced by another — can be written against named, typed fields
// instead of a grab-bag of unsafe.Pointer conversions.
package gatomic

import "sync/atomic"

// Pointer is an atomically updatable reference to a *T. The zero value
// holds a nil pointer and is ready to use.
type Pointer[T any] struct {
	p atomic.Pointer[T]
}

// Load returns the current value.
func (x *Pointer[T]) Load() *T {
	return x.p.Load()
}

// Store sets the current value.
func (x *Pointer[T]) Store(v *T) {
	x.p.Store(v)
}

// CompareAndSwap performs the standard single-word CAS: it sets the value
// to new only if the current value equals old, and reports whether it did.
func (x *Pointer[T]) CompareAndSwap(old, new *T) bool {
	return x.p.CompareAndSwap(old, new)
}

// Int32 is an atomically updatable 32-bit word, typically used to hold a
// small enum (a descriptor's state, an RDCSS-style committed flag).
type Int32 struct {
	v atomic.Int32
}

// Load returns the current value.
func (x *Int32) Load() int32 {
	return x.v.Load()
}

// Store sets the current value.
func (x *Int32) Store(v int32) {
	x.v.Store(v)
}

// CompareAndSwap sets the value to new only if the current value equals
// old, and reports whether it did.
func (x *Int32) CompareAndSwap(old, new int32) bool {
	return x.v.CompareAndSwap(old, new)
}

// Int64 is an atomically updatable 64-bit word, used here for the map's
// version counter and for the retirement low-water mark.
type Int64 struct {
	v atomic.Int64
}

// Load returns the current value.
func (x *Int64) Load() int64 {
	return x.v.Load()
}

// Store sets the current value.
func (x *Int64) Store(v int64) {
	x.v.Store(v)
}

// Add adds delta to the current value and returns the new value.
func (x *Int64) Add(delta int64) int64 {
	return x.v.Add(delta)
}

// CompareAndSwap sets the value to new only if the current value equals
// old, and reports whether it did.
func (x *Int64) CompareAndSwap(old, new int64) bool {
	return x.v.CompareAndSwap(old, new)
}
