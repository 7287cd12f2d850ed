// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import "unsafe"

// Default node capacities used by the builder. Constructors accept
// explicit sizes; both round up to the next power of 2.
const (
	DefaultRingSize  = 1024
	DefaultBatchSize = 1024
)

// Options configures queue creation and variant selection.
type Options struct {
	// Producer/Consumer constraints and synchronization strategy
	singleProducer bool
	singleConsumer bool
	locked         bool

	// Batch size per node (selects BLQueue when set)
	batch int

	// Number of participating threads (lock-free variants)
	threads int
}

// Builder creates queues with fluent configuration.
//
// The builder selects the queue design from the declared constraints:
//
//	Locked()                        → SimpleQueue (two-lock list)
//	SingleProducer+SingleConsumer   → RingsQueue (linked rings)
//	Batched(n)                      → BLQueue (lock-free slot arrays)
//	default                         → LLQueue (lock-free list)
//
// Example:
//
//	// Lock-free batched queue for 8 goroutines
//	q := ubq.New(8).Batched(1024).Build()
//
//	// One producer goroutine, one consumer goroutine
//	q := ubq.New(2).SingleProducer().SingleConsumer().Build()
type Builder struct {
	opts Options
}

// New creates a queue builder for the given number of participating
// threads. The lock-free variants size their hazard-pointer registry
// from it; thread ids passed to Register must fall in [0, threads).
//
// Panics if threads is outside [1, MaxThreads].
func New(threads int) *Builder {
	if threads < 1 || threads > MaxThreads {
		panic("ubq: threads must be in [1, MaxThreads]")
	}
	return &Builder{opts: Options{threads: threads}}
}

// Locked selects the two-lock SimpleQueue. Pushers serialize on the
// tail lock and poppers on the head lock; producers and consumers
// still run in parallel with each other.
func (b *Builder) Locked() *Builder {
	b.opts.locked = true
	return b
}

// SingleProducer declares that only one goroutine will push.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will pop.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Batched selects the lock-free BLQueue with n slots per node.
// n rounds up to the next power of 2. Panics if n < 2.
func (b *Builder) Batched(n int) *Builder {
	if n < 2 {
		panic("ubq: batch size must be >= 2")
	}
	b.opts.batch = n
	return b
}

// Build creates the queue selected by the configured constraints.
//
// Panics on contradictory constraints: Locked combined with Batched,
// or Batched with a single-producer/single-consumer declaration (a
// batched node buys nothing without multi-threaded contention on it).
func (b *Builder) Build() Shared {
	if b.opts.locked && b.opts.batch != 0 {
		panic("ubq: Locked and Batched are mutually exclusive")
	}
	switch {
	case b.opts.locked:
		return NewSimple()
	case b.opts.singleProducer && b.opts.singleConsumer:
		if b.opts.batch != 0 {
			panic("ubq: Batched requires multi-producer or multi-consumer access")
		}
		return NewRings(DefaultRingSize)
	case b.opts.batch != 0:
		return NewBL(b.opts.threads, b.opts.batch)
	default:
		return NewLL(b.opts.threads)
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
