package kafka

import "sync/atomic"

// refCount is the reference-counted handle primitive spec.md §4.A
// describes: every Topic and Toppar embeds one. keep increments the count;
// drop decrements it and reports whether the caller's drop was the one that
// took it to zero, so the embedder can run its own teardown exactly once.
//
// Embed refCount by value and initialize the owning object with count 1 (the
// reference returned to its creator); every additional keep must be paired
// with a drop.
type refCount struct {
	n int32
}

// keep increments the reference count. It never fails.
func (r *refCount) keep() {
	atomic.AddInt32(&r.n, 1)
}

// drop decrements the reference count and reports true if it reached zero,
// meaning the caller is responsible for destroying the object. Dropping
// past zero is a programmer error and panics rather than corrupting the
// count silently.
func (r *refCount) drop() bool {
	n := atomic.AddInt32(&r.n, -1)
	invariant(n >= 0, "refcount dropped below zero", "")
	return n == 0
}

// count returns the current reference count. Intended for tests; racy
// reads are fine since it never backs a decision, only an assertion.
func (r *refCount) count() int32 {
	return atomic.LoadInt32(&r.n)
}
