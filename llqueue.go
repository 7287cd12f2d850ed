// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// LLQueue is a lock-free Michael–Scott list queue with one value per
// node and hazard-pointer reclamation.
//
// The variant claims the current sentinel by exchanging its item with
// Empty before advancing head: each node's item is returned when the
// node is next in line, and the winning exchange makes that node the
// new sentinel. A consumer whose exchange reads Empty lost the claim
// to a concurrent consumer and re-protects the new head. This shape
// makes each sentinel single-consumer without a CAS on the next link.
//
// Linearization points: a push linearizes at the successful
// CAS(tail.next, nil → n); a pop linearizes at the exchange that
// claims the sentinel's item.
type LLQueue struct {
	_    pad
	head atomic.Pointer[llNode]
	_    padPtr
	tail atomic.Pointer[llNode]
	_    padPtr
	hp   *Hazards[llNode]
	pool sync.Pool
}

type llNode struct {
	next atomic.Pointer[llNode]
	item atomix.Uint64
}

// NewLL creates a lock-free list queue for the given number of
// participating threads. Panics if threads is outside [1, MaxThreads].
func NewLL(threads int) *LLQueue {
	q := &LLQueue{}
	q.pool.New = func() any { return new(llNode) }
	q.hp = NewHazards(threads, q.releaseNode)
	// The initial sentinel's item only needs to be non-Empty so the
	// first claim succeeds; Taken is reserved and never a payload.
	s := q.newNode(Taken)
	q.head.Store(s)
	q.tail.Store(s)
	return q
}

func (q *LLQueue) newNode(v Value) *llNode {
	n := q.pool.Get().(*llNode)
	n.next.Store(nil)
	n.item.StoreRelaxed(uint64(v))
	return n
}

func (q *LLQueue) releaseNode(n *llNode) {
	n.next.Store(nil)
	q.pool.Put(n)
}

// Register binds thread to its hazard slot and returns the
// per-goroutine surface. Panics if thread is outside [0, threads).
func (q *LLQueue) Register(thread int) Queue {
	return &llHandle{q: q, hp: q.hp.Handle(thread)}
}

// Close releases every node still linked and finalizes the hazard
// registry. Caller guarantees quiescence.
func (q *LLQueue) Close() {
	n := q.head.Load()
	for n != nil {
		next := n.next.Load()
		q.releaseNode(n)
		n = next
	}
	q.head.Store(nil)
	q.tail.Store(nil)
	q.hp.Finalize()
}

// llHandle is a thread's view of an LLQueue.
type llHandle struct {
	q  *LLQueue
	hp *HazardHandle[llNode]
}

// Push appends v.
//
// The queue tail is advanced by a best-effort store after the winning
// CAS on tail.next; until it lands, other pushers spin on a stale tail
// whose next is taken. The hazard on tail keeps the dereference of a
// concurrently retired node valid.
func (h *llHandle) Push(v Value) {
	n := h.q.newNode(v)
	sw := spin.Wait{}
	for {
		tail := h.hp.Protect(&h.q.tail)
		if tail.next.CompareAndSwap(nil, n) {
			break
		}
		sw.Once()
	}
	h.q.tail.Store(n)
	h.hp.Clear()
}

// Pop removes and returns the oldest value, or Empty.
//
// A concurrent pop may advance head between Protect and the exchange;
// the hazard guarantees the old sentinel is not reclaimed, so the
// exchange still addresses live memory. Reading Empty from the
// exchange means the sentinel was already claimed: re-protect and
// retry.
func (h *llHandle) Pop() Value {
	sw := spin.Wait{}
	for {
		head := h.hp.Protect(&h.q.head)
		next := head.next.Load()
		if next == nil {
			h.hp.Clear()
			return Empty
		}
		if old := swapValue(&head.item, Empty); old != Empty {
			// Claim won: the successor holds the value in line and
			// becomes the new sentinel.
			v := Value(next.item.LoadAcquire())
			h.q.head.Store(next)
			h.hp.Clear()
			h.hp.Retire(head)
			return v
		}
		sw.Once()
	}
}

// IsEmpty reports whether the sentinel had no successor. Snapshot only.
func (h *llHandle) IsEmpty() bool {
	head := h.hp.Protect(&h.q.head)
	empty := head.next.Load() == nil
	h.hp.Clear()
	return empty
}
