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

// BLQueue is a lock-free batched queue: a linked list of slot arrays
// with hazard-pointer reclamation. Per-operation cost amortizes over
// the batch slots of a node.
//
// Producers and consumers claim slot indices with fetch-add on the
// node's pushIdx/popIdx; both counters only grow. A slot walks the
// state machine Empty → value → Taken, with the shortcut Empty → Taken
// when a consumer wins a slot before its producer arrives — the
// poisoned slot tells the producer to abandon it and claim a fresh
// index. Once pushIdx reaches the batch size the node is closed: no
// further values land in it, and a successor is installed at most once
// via CAS on the queue tail.
//
// Linearization points: a push linearizes at the successful slot CAS
// (or, on the new-node path, at the tail CAS); a pop linearizes at the
// exchange that observes a non-Empty value.
//
// Lock-free, not wait-free: a producer can be pushed through
// arbitrarily many abandoned slots, but in every contention round some
// thread makes progress.
type BLQueue struct {
	_     pad
	head  atomic.Pointer[blNode]
	_     padPtr
	tail  atomic.Pointer[blNode]
	_     padPtr
	batch int64 // slots per node, power of 2
	hp    *Hazards[blNode]
	pool  sync.Pool
}

type blNode struct {
	next    atomic.Pointer[blNode]
	_       padPtr
	pushIdx atomix.Int64
	_       padShort
	popIdx  atomix.Int64
	_       padShort
	buffer  []atomix.Uint64
}

// NewBL creates a batched lock-free queue for the given number of
// participating threads with batch slots per node. batch rounds up to
// the next power of 2. Panics if batch < 2 or threads is outside
// [1, MaxThreads].
func NewBL(threads, batch int) *BLQueue {
	if batch < 2 {
		panic("ubq: batch size must be >= 2")
	}
	q := &BLQueue{batch: int64(roundToPow2(batch))}
	q.pool.New = func() any {
		return &blNode{buffer: make([]atomix.Uint64, q.batch)}
	}
	q.hp = NewHazards(threads, q.releaseNode)
	n := q.newNode()
	q.head.Store(n)
	q.tail.Store(n)
	return q
}

// newNode returns a node with all slots Empty and both counters zero.
// Pool nodes were reset on release.
func (q *BLQueue) newNode() *blNode {
	return q.pool.Get().(*blNode)
}

func (q *BLQueue) releaseNode(n *blNode) {
	n.next.Store(nil)
	n.pushIdx.StoreRelaxed(0)
	n.popIdx.StoreRelaxed(0)
	for i := range n.buffer {
		n.buffer[i].StoreRelaxed(uint64(Empty))
	}
	q.pool.Put(n)
}

// Register binds thread to its hazard slot and returns the
// per-goroutine surface. Panics if thread is outside [0, threads).
func (q *BLQueue) Register(thread int) Queue {
	return &blHandle{q: q, hp: q.hp.Handle(thread)}
}

// Close releases every node still linked and finalizes the hazard
// registry. Caller guarantees quiescence.
func (q *BLQueue) Close() {
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

// blHandle is a thread's view of a BLQueue.
type blHandle struct {
	q  *BLQueue
	hp *HazardHandle[blNode]
}

// Push appends v.
//
// A slot CAS failure means the claimed slot was poisoned Taken by a
// racing consumer; the value has not been placed and the producer
// restarts with a fresh index. On a closed tail, the successor is
// installed by CAS on the queue tail first and the next link is
// published second, so a consumer can briefly reach a closed node
// whose next is still nil.
func (h *blHandle) Push(v Value) {
	sw := spin.Wait{}
	for {
		tail := h.hp.Protect(&h.q.tail)
		idx := tail.pushIdx.AddAcqRel(1) - 1

		if idx < h.q.batch {
			if tail.buffer[idx].CompareAndSwapAcqRel(uint64(Empty), uint64(v)) {
				h.hp.Clear()
				return
			}
		} else {
			if tail.next.Load() != nil {
				// Another producer already extended; chase the new tail.
				continue
			}
			n := h.q.newNode()
			n.buffer[0].StoreRelaxed(uint64(v))
			n.pushIdx.StoreRelaxed(1)
			if h.q.tail.CompareAndSwap(tail, n) {
				tail.next.Store(n)
				h.hp.Clear()
				return
			}
			h.q.releaseNode(n)
		}
		sw.Once()
	}
}

// Pop removes and returns the oldest value, or Empty.
//
// The exchange stamps Taken into the claimed slot. A non-Empty result
// is the value; an Empty result means the producer has not arrived and
// the now-poisoned slot will make it abandon. On a closed head the
// consumer helps advance the queue head and retires the old node; a
// closed head with next still nil is an empty observation (the
// successor link trails the tail CAS).
func (h *blHandle) Pop() Value {
	sw := spin.Wait{}
	for {
		head := h.hp.Protect(&h.q.head)
		idx := head.popIdx.AddAcqRel(1) - 1

		if idx < h.q.batch {
			if old := swapValue(&head.buffer[idx], Taken); old != Empty {
				h.hp.Clear()
				return old
			}
		} else {
			next := head.next.Load()
			if next == nil {
				h.hp.Clear()
				return Empty
			}
			if h.q.head.CompareAndSwap(head, next) {
				h.hp.Retire(head)
			}
		}
		sw.Once()
	}
}

// IsEmpty reports whether the head node was exhausted with no
// successor. Snapshot only: the successor link trails the tail CAS,
// so a brief false positive during node rollover is a legal empty
// observation.
func (h *blHandle) IsEmpty() bool {
	head := h.hp.Protect(&h.q.head)
	empty := head.popIdx.LoadAcquire() >= head.pushIdx.LoadAcquire() &&
		head.next.Load() == nil
	h.hp.Clear()
	return empty
}
