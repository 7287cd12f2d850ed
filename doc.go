// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ubq provides unbounded multi-producer multi-consumer FIFO
// queues of scalar values, together with the hazard-pointer primitive
// that lets the lock-free variants reclaim nodes without risking
// use-after-reuse.
//
// Four designs with the same surface allow their correctness,
// throughput, and contention behavior to be compared:
//
//   - SimpleQueue: two-lock (head/tail) Michael–Scott list queue
//   - RingsQueue: push-lock/pop-lock linked list of fixed-size rings
//   - LLQueue: lock-free one-value-per-node list, hazard pointers
//   - BLQueue: lock-free batched queue of slot arrays, hazard pointers
//
// # Quick Start
//
// Direct constructors:
//
//	q := ubq.NewSimple()        // two-lock
//	q := ubq.NewRings(1024)     // linked rings, 1024 slots per ring
//	q := ubq.NewLL(8)           // lock-free list, 8 threads
//	q := ubq.NewBL(8, 1024)     // lock-free batched, 1024 slots per node
//
// Builder API selects the design from declared constraints:
//
//	q := ubq.New(8).Locked().Build()                            // → SimpleQueue
//	q := ubq.New(2).SingleProducer().SingleConsumer().Build()   // → RingsQueue
//	q := ubq.New(8).Batched(1024).Build()                       // → BLQueue
//	q := ubq.New(8).Build()                                     // → LLQueue
//
// # Basic Usage
//
// Every goroutine that touches a queue registers once with a thread id
// unique within that queue and uses the returned handle:
//
//	q := ubq.NewBL(2, 1024)
//	defer q.Close()
//
//	h := q.Register(0)
//	h.Push(42)
//	v := h.Pop()          // 42
//	v = h.Pop()           // ubq.Empty
//
// For the locked variants Register returns the queue itself; the call
// is kept so all four designs run under one harness.
//
// # Values and Sentinels
//
// Payloads are 64-bit scalars. Two patterns are reserved: [Empty] is
// what Pop returns on an empty queue, and [Taken] is internal to
// BLQueue slot arrays and the initial LLQueue sentinel. Callers pick
// payloads distinct from both.
// An empty Pop is not an error, and Pop never waits: consumers that
// want to block compose the [NonBlocking] adapter with an iox.Backoff
// retry loop.
//
// # Memory Reclamation
//
// The lock-free variants unlink nodes while other threads may still
// hold references to them. [Hazards] implements hazard pointers: a
// thread publishes the node it is about to dereference, retired nodes
// park in a per-thread row, and a scan releases only nodes no thread
// publishes. Released nodes return to a per-queue sync.Pool, so a
// premature release would surface as slot reuse under a live
// reference — the exact failure hazard pointers exist to prevent.
// Un-reclaimed memory is bounded by O(threads × RetiredThreshold)
// nodes per queue.
//
// # Progress
//
// SimpleQueue and RingsQueue block only on their mutexes. LLQueue and
// BLQueue never block: threads spin on contention retries with
// spin.Wait. Both are lock-free, not wait-free — in every contention
// round at least one thread makes progress, but an individual producer
// on BLQueue can be pushed through arbitrarily many abandoned slots.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before established through
// atomix memory orderings and reports false positives on the atomix
// slot and counter protocols here. Tests incompatible with race
// detection are skipped via [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for scalar atomics
// with explicit memory ordering, [code.hybscloud.com/spin] for CPU
// pause instructions in retry loops, and [code.hybscloud.com/iox] for
// the semantic error surface of the non-blocking adapter.
package ubq
