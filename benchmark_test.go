// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package ubq_test

import (
	"runtime"
	"testing"

	lfring "github.com/LENSHOOD/go-lock-free-ring-buffer"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/ubq"
)

// benchThreads bounds parallel benchmark goroutines to the hazard
// registry capacity.
func benchThreads() int {
	n := runtime.GOMAXPROCS(0)
	if n > ubq.MaxThreads {
		n = ubq.MaxThreads
	}
	return n
}

// benchPingPong measures uncontended push/pop pairs on one goroutine.
func benchPingPong(b *testing.B, q ubq.Shared) {
	defer q.Close()
	h := q.Register(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Push(ubq.Value(i + 1))
		if h.Pop() == ubq.Empty {
			b.Fatal("unexpected empty pop")
		}
	}
}

func BenchmarkSimpleQueuePingPong(b *testing.B) {
	benchPingPong(b, ubq.NewSimple())
}

func BenchmarkRingsQueuePingPong(b *testing.B) {
	benchPingPong(b, ubq.NewRings(ubq.DefaultRingSize))
}

func BenchmarkLLQueuePingPong(b *testing.B) {
	benchPingPong(b, ubq.NewLL(1))
}

func BenchmarkBLQueuePingPong(b *testing.B) {
	benchPingPong(b, ubq.NewBL(1, ubq.DefaultBatchSize))
}

// benchContended measures mixed push/pop with every P competing on the
// same queue. Each RunParallel goroutine registers its own thread id.
func benchContended(b *testing.B, q ubq.Shared) {
	defer q.Close()
	var ids atomix.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		h := q.Register(int(ids.Add(1) - 1))
		i := ubq.Value(1)
		for pb.Next() {
			h.Push(i)
			h.Pop()
			i++
		}
	})
}

func BenchmarkSimpleQueueContended(b *testing.B) {
	benchContended(b, ubq.NewSimple())
}

func BenchmarkLLQueueContended(b *testing.B) {
	benchContended(b, ubq.NewLL(benchThreads()))
}

func BenchmarkBLQueueContended(b *testing.B) {
	benchContended(b, ubq.NewBL(benchThreads(), ubq.DefaultBatchSize))
}

// BenchmarkBaselineRingContended runs the same mixed workload on the
// LENSHOOD bounded MPMC ring buffer as an ecosystem reference point.
// Offer can fail on a full ring and Poll on an empty one; failed
// attempts retry, mirroring how the unbounded queues spin internally.
func BenchmarkBaselineRingContended(b *testing.B) {
	rb := lfring.New[uint64](lfring.NodeBased, uint64(ubq.DefaultBatchSize))
	b.RunParallel(func(pb *testing.PB) {
		i := uint64(1)
		for pb.Next() {
			for !rb.Offer(i) {
			}
			for {
				if _, ok := rb.Poll(); ok {
					break
				}
			}
			i++
		}
	})
}
