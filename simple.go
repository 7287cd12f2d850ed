// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import (
	"sync"
	"sync/atomic"
)

// SimpleQueue is the two-lock Michael–Scott queue: a singly-linked list
// with a permanent sentinel at the front, a tail lock serializing
// pushers and a head lock serializing poppers. One pusher and one
// popper run in parallel; the next link is atomic because it crosses
// the two lock domains.
//
// Memory reclamation is trivial here: the head lock serializes readers
// of a popped sentinel, so it goes back to the node pool immediately.
type SimpleQueue struct {
	headMu sync.Mutex
	head   *simpleNode
	_      pad
	tailMu sync.Mutex
	tail   *simpleNode
	_      pad
	pool   sync.Pool
}

type simpleNode struct {
	next atomic.Pointer[simpleNode]
	item Value
}

// NewSimple creates a two-lock queue with its initial sentinel.
func NewSimple() *SimpleQueue {
	q := &SimpleQueue{}
	q.pool.New = func() any { return new(simpleNode) }
	s := q.newNode(Empty)
	q.head = s
	q.tail = s
	return q
}

func (q *SimpleQueue) newNode(v Value) *simpleNode {
	n := q.pool.Get().(*simpleNode)
	n.next.Store(nil)
	n.item = v
	return n
}

// Push appends v. Wait-free relative to other pushers once the tail
// lock is held.
func (q *SimpleQueue) Push(v Value) {
	n := q.newNode(v)
	q.tailMu.Lock()
	q.tail.next.Store(n)
	q.tail = n
	q.tailMu.Unlock()
}

// Pop removes and returns the oldest value, or Empty if only the
// sentinel remains. The promoted node becomes the new sentinel; its
// item is no longer meaningful.
func (q *SimpleQueue) Pop() Value {
	q.headMu.Lock()
	begin := q.head.next.Load()
	if begin == nil {
		q.headMu.Unlock()
		return Empty
	}
	v := begin.item
	old := q.head
	q.head = begin
	old.next.Store(nil)
	q.pool.Put(old)
	q.headMu.Unlock()
	return v
}

// IsEmpty reports whether the list holds only the sentinel.
func (q *SimpleQueue) IsEmpty() bool {
	q.headMu.Lock()
	empty := q.head.next.Load() == nil
	q.headMu.Unlock()
	return empty
}

// Register returns the queue itself: the locked design has no
// per-thread state.
func (q *SimpleQueue) Register(int) Queue {
	return q
}

// Close releases every node still linked, sentinel included.
// Caller guarantees quiescence.
func (q *SimpleQueue) Close() {
	n := q.head
	for n != nil {
		next := n.next.Load()
		n.next.Store(nil)
		q.pool.Put(n)
		n = next
	}
	q.head = nil
	q.tail = nil
}
