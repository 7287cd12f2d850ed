// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

// Queue is the per-goroutine surface shared by every variant.
//
// Push appends a value; queues are unbounded, so Push always succeeds.
// Pop removes the oldest value, or returns [Empty] when the queue held
// no value at a linearizable instant. IsEmpty is a snapshot only —
// concurrent operations may invalidate it immediately, and it is never
// a precondition for Pop.
//
// The payload must be distinct from both sentinels: neither [Empty]
// nor [Taken] may be pushed. Violating this is a contract violation
// with undefined behavior, not a detected error.
//
// Example:
//
//	q := ubq.NewLL(2)
//	h := q.Register(0)
//
//	h.Push(42)
//	if v := h.Pop(); v != ubq.Empty {
//	    fmt.Println(v)
//	}
type Queue interface {
	// Push appends v in FIFO order. v must not equal Empty or Taken.
	Push(v Value)

	// Pop removes and returns the oldest value, or Empty if the queue
	// was empty at the linearization point of the call.
	Pop() Value

	// IsEmpty reports a snapshot of whether the queue held no value.
	IsEmpty() bool
}

// Shared is a queue shared between goroutines.
//
// Each participating goroutine obtains its own Queue via Register,
// passing a thread id unique within this queue in [0, threads). For
// the lock-free variants the id indexes the hazard-pointer registry;
// the returned handle is bound to that slot and must only be used by
// the registering goroutine. The locked variants have no per-thread
// state and return themselves.
//
// Close releases every node still linked and finalizes the hazard
// registry. The caller guarantees quiescence: no Push, Pop, IsEmpty
// or Register may be in flight, and no handle may be used afterwards.
//
// Example:
//
//	q := ubq.NewBL(workers, 1024)
//	defer q.Close()
//
//	for w := range workers {
//	    go func(h ubq.Queue) {
//	        h.Push(...)
//	    }(q.Register(w))
//	}
type Shared interface {
	// Register binds the calling goroutine to a thread id and returns
	// its per-goroutine queue surface. Must be called once per
	// goroutine before any queue operation on the lock-free variants.
	Register(thread int) Queue

	// Close frees all nodes still linked. Caller guarantees quiescence.
	Close()
}

// NonBlocking adapts a Queue to the Enqueue/Dequeue error surface so
// it composes with iox retry loops.
//
// Enqueue never fails: the queues are unbounded. Dequeue returns
// [ErrWouldBlock] instead of the Empty sentinel, so a consumer can
// drive an iox.Backoff loop without inspecting sentinel values:
//
//	nb := ubq.NonBlocking{Q: h}
//	backoff := iox.Backoff{}
//	for {
//	    v, err := nb.Dequeue()
//	    if err != nil {
//	        backoff.Wait()
//	        continue
//	    }
//	    backoff.Reset()
//	    process(v)
//	}
type NonBlocking struct {
	Q Queue
}

// Enqueue appends v. The queues are unbounded; the returned error is
// always nil and exists to satisfy producer-shaped call sites.
func (nb NonBlocking) Enqueue(v Value) error {
	nb.Q.Push(v)
	return nil
}

// Dequeue removes and returns the oldest value.
// Returns (0, ErrWouldBlock) if the queue was empty.
func (nb NonBlocking) Dequeue() (Value, error) {
	v := nb.Q.Pop()
	if v == Empty {
		return 0, ErrWouldBlock
	}
	return v, nil
}
