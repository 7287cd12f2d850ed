// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import "sync/atomic"

const (
	// MaxThreads is the upper bound on threads a hazard registry can track.
	MaxThreads = 128

	// RetiredThreshold bounds the retired row: a reclamation scan runs
	// when a thread's row holds RetiredThreshold+1 nodes. A thread holds
	// at most RetiredThreshold+1 retired nodes between scans, so
	// un-reclaimed memory is bounded by
	// O(threads × RetiredThreshold) nodes per registry.
	RetiredThreshold = 64
)

// hazardRecord is the per-thread state of a registry. Each record is
// written only by its owning thread; the slot field is read by every
// thread during scans. Records are padded so neighbouring threads do
// not share a cache line.
type hazardRecord[T any] struct {
	// slot is the node the owning thread is about to dereference,
	// or nil. Publishing here suppresses reclamation of the node.
	slot atomic.Pointer[T]
	_    padPtr

	// retired holds nodes unlinked by the owner but not yet released.
	// end is the next free position. Owner-only; no synchronization.
	retired [RetiredThreshold + 1]*T
	end     int
	_       pad
}

// Hazards is a hazard-pointer registry for nodes of type T.
//
// A registry gives each participating thread the ability to publish
// "I am about to dereference P" so that no other thread releases P
// while the publication stands, and to schedule unlinked nodes for
// deferred release once no publication references them.
//
// Each queue that reclaims memory owns one registry; registries do not
// share state, so a thread id is scoped to a single registry.
type Hazards[T any] struct {
	records []hazardRecord[T]
	release func(*T)
}

// NewHazards creates a registry for the given number of threads.
// release is invoked for every node whose reclamation is decided; a nil
// release drops the reference and leaves the node to the collector.
// Panics if threads is outside [1, MaxThreads].
func NewHazards[T any](threads int, release func(*T)) *Hazards[T] {
	if threads < 1 || threads > MaxThreads {
		panic("ubq: threads must be in [1, MaxThreads]")
	}
	return &Hazards[T]{
		records: make([]hazardRecord[T], threads),
		release: release,
	}
}

// Threads returns the number of thread slots in the registry.
func (h *Hazards[T]) Threads() int {
	return len(h.records)
}

// Handle binds the given thread id to its registry record and returns
// the handle through which that thread performs every hazard operation.
// Ids must be unique among live threads; a thread's id is stable for
// its lifetime. Panics if thread is outside [0, Threads()).
func (h *Hazards[T]) Handle(thread int) *HazardHandle[T] {
	if thread < 0 || thread >= len(h.records) {
		panic("ubq: thread id out of range")
	}
	return &HazardHandle[T]{owner: h, rec: &h.records[thread]}
}

// hazarded reports whether any thread currently publishes p.
func (h *Hazards[T]) hazarded(p *T) bool {
	for i := range h.records {
		if h.records[i].slot.Load() == p {
			return true
		}
	}
	return false
}

// Finalize releases every retired node and clears all hazard slots.
// The caller guarantees quiescence: no queue operation may be in
// flight and no handle may be used afterwards. This is best-effort
// cleanup of what individual threads did not reclaim before stopping.
func (h *Hazards[T]) Finalize() {
	for i := range h.records {
		rec := &h.records[i]
		rec.slot.Store(nil)
		for j := 0; j < rec.end; j++ {
			if p := rec.retired[j]; p != nil && h.release != nil {
				h.release(p)
			}
			rec.retired[j] = nil
		}
		rec.end = 0
	}
}

// HazardHandle is a thread's view of a registry. A handle must only be
// used by the thread it was issued to.
type HazardHandle[T any] struct {
	owner *Hazards[T]
	rec   *hazardRecord[T]
}

// Protect loads the current value of atom, publishes it in the
// thread's hazard slot, and reloads atom until both loads agree. On
// return the published pointer equals *atom at some instant, so any
// thread that retires it after that instant will observe the hazard
// and keep the node alive.
//
// The publication uses a sequentially consistent store, which orders
// it before the validating reload as reclamation scans require.
func (hh *HazardHandle[T]) Protect(atom *atomic.Pointer[T]) *T {
	for {
		p := atom.Load()
		hh.rec.slot.Store(p)
		if atom.Load() == p {
			return p
		}
	}
}

// Clear withdraws the thread's publication. The previously protected
// node must not be dereferenced after Clear returns.
func (hh *HazardHandle[T]) Clear() {
	hh.rec.slot.Store(nil)
}

// Retire schedules p for release once no hazard slot references it.
// p must already be unlinked from the data structure and must not be
// retired twice. When the retired row fills, Retire runs a scan.
func (hh *HazardHandle[T]) Retire(p *T) {
	rec := hh.rec
	rec.retired[rec.end] = p
	rec.end++
	if rec.end == len(rec.retired) {
		hh.scan()
	}
}

// scan walks the owner's retired row. Entries referenced by some
// hazard slot survive and are compacted to the front of the row;
// everything else is released. The row tail is nilled so a later
// Finalize cannot release an entry twice.
func (hh *HazardHandle[T]) scan() {
	rec := hh.rec
	end := 0
	for i := range rec.retired {
		p := rec.retired[i]
		rec.retired[i] = nil
		if p == nil {
			continue
		}
		if hh.owner.hazarded(p) {
			rec.retired[end] = p
			end++
			continue
		}
		if hh.owner.release != nil {
			hh.owner.release(p)
		}
	}
	rec.end = end
}
