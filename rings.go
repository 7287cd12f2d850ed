// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// RingsQueue is a linked list of fixed-capacity ring buffers. A push
// lock serializes producers, a pop lock serializes consumers, and the
// single producer runs in parallel with the single consumer on the
// same ring.
//
// Per-node pushIdx and popIdx increase monotonically (they are not
// taken modulo until a slot is addressed). They are atomic because
// they cross the lock boundary: the producer publishes pushIdx which
// the consumer reads without the push lock, and vice versa. On every
// node 0 ≤ popIdx ≤ pushIdx ≤ popIdx+ringSize holds.
type RingsQueue struct {
	pushMu sync.Mutex
	tail   *ringsNode
	_      pad
	popMu  sync.Mutex
	head   *ringsNode
	_      pad
	ring   int64 // slots per node, power of 2
	pool   sync.Pool
}

type ringsNode struct {
	next    atomic.Pointer[ringsNode]
	pushIdx atomix.Int64
	_       padShort
	popIdx  atomix.Int64
	_       padShort
	buffer  []Value
}

// NewRings creates a linked-rings queue with ringSize slots per node.
// ringSize rounds up to the next power of 2. Panics if ringSize < 2.
func NewRings(ringSize int) *RingsQueue {
	if ringSize < 2 {
		panic("ubq: ring size must be >= 2")
	}
	ring := int64(roundToPow2(ringSize))
	q := &RingsQueue{ring: ring}
	q.pool.New = func() any {
		return &ringsNode{buffer: make([]Value, ring)}
	}
	n := q.newNode()
	q.head = n
	q.tail = n
	return q
}

func (q *RingsQueue) newNode() *ringsNode {
	n := q.pool.Get().(*ringsNode)
	n.next.Store(nil)
	n.pushIdx.StoreRelaxed(0)
	n.popIdx.StoreRelaxed(0)
	return n
}

// Push deposits v into the tail ring, or links a fresh ring when the
// tail is full. Producer only (push lock).
//
// The slot write is plain; the AddAcqRel on pushIdx publishes it to
// the consumer, which pairs with the LoadAcquire in Pop.
func (q *RingsQueue) Push(v Value) {
	q.pushMu.Lock()
	t := q.tail
	if t.pushIdx.LoadRelaxed()-t.popIdx.LoadAcquire() < q.ring {
		idx := t.pushIdx.LoadRelaxed()
		t.buffer[idx&(q.ring-1)] = v
		t.pushIdx.AddAcqRel(1)
	} else {
		n := q.newNode()
		n.buffer[0] = v
		n.pushIdx.StoreRelaxed(1)
		t.next.Store(n)
		q.tail = n
	}
	q.pushMu.Unlock()
}

// Pop takes the oldest value, advancing to the next ring when the head
// ring is exhausted and a successor exists. Consumer only (pop lock).
// An exhausted head with no successor yields Empty.
func (q *RingsQueue) Pop() Value {
	q.popMu.Lock()
	h := q.head

	// popIdx is stable here: only the pop-lock holder writes it.
	popIdx := h.popIdx.LoadRelaxed()

	if popIdx == h.pushIdx.LoadAcquire() {
		if next := h.next.Load(); next != nil {
			q.head = next
			q.releaseNode(h)
			h = next
			popIdx = h.popIdx.LoadRelaxed()
		}
	}

	if popIdx == h.pushIdx.LoadAcquire() {
		q.popMu.Unlock()
		return Empty
	}

	v := h.buffer[popIdx&(q.ring-1)]
	h.popIdx.AddAcqRel(1)
	q.popMu.Unlock()
	return v
}

// IsEmpty reports whether the head ring is exhausted with no successor.
func (q *RingsQueue) IsEmpty() bool {
	q.popMu.Lock()
	h := q.head
	empty := h.popIdx.LoadRelaxed() == h.pushIdx.LoadAcquire() &&
		h.next.Load() == nil
	q.popMu.Unlock()
	return empty
}

// Register returns the queue itself: the locked design has no
// per-thread state.
func (q *RingsQueue) Register(int) Queue {
	return q
}

// releaseNode returns an exhausted ring to the pool. The pop lock
// serializes callers; the producer never holds a reference to a node
// the consumer has moved past.
func (q *RingsQueue) releaseNode(n *ringsNode) {
	n.next.Store(nil)
	n.pushIdx.StoreRelaxed(0)
	n.popIdx.StoreRelaxed(0)
	q.pool.Put(n)
}

// Close releases every ring still linked. Caller guarantees quiescence.
func (q *RingsQueue) Close() {
	n := q.head
	for n != nil {
		next := n.next.Load()
		q.releaseNode(n)
		n = next
	}
	q.head = nil
	q.tail = nil
}
