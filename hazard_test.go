// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/ubq"
)

type testNode struct {
	id int
}

// releaseRecorder collects every pointer the registry releases.
// The hazard tests are single-goroutine, so a plain slice suffices.
type releaseRecorder struct {
	released []*testNode
}

func (r *releaseRecorder) release(p *testNode) {
	r.released = append(r.released, p)
}

func (r *releaseRecorder) contains(p *testNode) bool {
	for _, q := range r.released {
		if q == p {
			return true
		}
	}
	return false
}

// fill retires count fresh nodes through h.
func fill(h *ubq.HazardHandle[testNode], count int) {
	for range count {
		h.Retire(&testNode{})
	}
}

// TestHazardProtectReturnsCurrent checks Protect returns the pointer
// the cell holds, for a non-nil cell and after the cell is set to nil.
func TestHazardProtectReturnsCurrent(t *testing.T) {
	rec := &releaseRecorder{}
	hz := ubq.NewHazards(2, rec.release)
	h := hz.Handle(0)

	n := &testNode{id: 1}
	var atom atomic.Pointer[testNode]
	atom.Store(n)

	require.Same(t, n, h.Protect(&atom))
	h.Clear()

	atom.Store(nil)
	require.Nil(t, h.Protect(&atom))
	h.Clear()
}

// TestHazardScanThreshold checks that no release happens before the
// retired row fills and that the full row is released by the scan when
// nothing is hazarded.
func TestHazardScanThreshold(t *testing.T) {
	rec := &releaseRecorder{}
	hz := ubq.NewHazards(1, rec.release)
	h := hz.Handle(0)

	fill(h, ubq.RetiredThreshold)
	require.Empty(t, rec.released, "scan must not run below threshold")

	h.Retire(&testNode{})
	require.Len(t, rec.released, ubq.RetiredThreshold+1)
}

// TestHazardSuppressRelease is the retire-vs-protect scenario: thread
// A retires a node thread B publishes; A's scan keeps it until B
// clears, then A's next scan releases it exactly once.
func TestHazardSuppressRelease(t *testing.T) {
	rec := &releaseRecorder{}
	hz := ubq.NewHazards(2, rec.release)
	a := hz.Handle(0)
	b := hz.Handle(1)

	n := &testNode{id: 42}
	var atom atomic.Pointer[testNode]
	atom.Store(n)
	require.Same(t, n, b.Protect(&atom))

	// A retires n and fills its row to force a scan.
	a.Retire(n)
	fill(a, ubq.RetiredThreshold)
	require.False(t, rec.contains(n), "hazarded node must survive the scan")
	require.Len(t, rec.released, ubq.RetiredThreshold, "unhazarded entries release")

	// B drops protection; A's next scan reclaims n.
	b.Clear()
	fill(a, ubq.RetiredThreshold)
	require.True(t, rec.contains(n))

	count := 0
	for _, p := range rec.released {
		if p == n {
			count++
		}
	}
	require.Equal(t, 1, count, "a node releases exactly once")
}

// TestHazardSurvivorCompaction checks survivors stay in the row across
// scans and are not lost or duplicated.
func TestHazardSurvivorCompaction(t *testing.T) {
	rec := &releaseRecorder{}
	hz := ubq.NewHazards(2, rec.release)
	a := hz.Handle(0)
	b := hz.Handle(1)

	kept := &testNode{id: 7}
	var atom atomic.Pointer[testNode]
	atom.Store(kept)
	b.Protect(&atom)

	// Three scans with the hazard standing: kept must never release.
	a.Retire(kept)
	for range 3 {
		fill(a, ubq.RetiredThreshold+1)
	}
	require.False(t, rec.contains(kept))

	b.Clear()
	fill(a, ubq.RetiredThreshold+1)
	require.True(t, rec.contains(kept))
}

// TestHazardFinalize checks finalize releases whatever the threads did
// not reclaim, including entries below the scan threshold.
func TestHazardFinalize(t *testing.T) {
	rec := &releaseRecorder{}
	hz := ubq.NewHazards(2, rec.release)
	a := hz.Handle(0)

	nodes := []*testNode{{id: 1}, {id: 2}, {id: 3}}
	for _, n := range nodes {
		a.Retire(n)
	}
	require.Empty(t, rec.released)

	hz.Finalize()
	require.Len(t, rec.released, len(nodes))
	for _, n := range nodes {
		require.True(t, rec.contains(n))
	}
}

// TestHazardRegistryContract checks registration bounds.
func TestHazardRegistryContract(t *testing.T) {
	require.Panics(t, func() { ubq.NewHazards[testNode](0, nil) })
	require.Panics(t, func() { ubq.NewHazards[testNode](ubq.MaxThreads+1, nil) })

	hz := ubq.NewHazards[testNode](2, nil)
	require.Equal(t, 2, hz.Threads())
	require.Panics(t, func() { hz.Handle(-1) })
	require.Panics(t, func() { hz.Handle(2) })
	require.NotNil(t, hz.Handle(0))
}

// TestHazardNilRelease checks a registry without a release sink scans
// without panicking (nodes are left to the collector).
func TestHazardNilRelease(t *testing.T) {
	hz := ubq.NewHazards[testNode](1, nil)
	h := hz.Handle(0)
	fill(h, ubq.RetiredThreshold+1)
	hz.Finalize()
}
