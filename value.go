// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ubq

import "code.hybscloud.com/atomix"

// Value is the scalar payload type carried by every queue in this package.
//
// Two bit patterns are reserved and must never be pushed:
//
//   - [Empty] is returned by Pop when the queue held no value at the
//     observed instant. It is also the initial content of a BLQueue slot.
//   - [Taken] marks a BLQueue slot that a consumer visited before any
//     producer deposited a value. It never surfaces to callers.
//
// Any other 64-bit pattern is a valid payload.
type Value uint64

const (
	// Empty means "no value present / queue was empty when observed".
	Empty Value = 0

	// Taken marks a slot claimed by a consumer ahead of its producer.
	// Internal to BLQueue slot arrays and the initial LLQueue
	// sentinel; Pop never returns it.
	Taken Value = ^Value(0)
)

// swapValue atomically exchanges the content of slot with v and returns
// the previous content. atomix exposes compare-and-swap rather than a
// plain exchange, so the swap retries on interference; in this package
// a slot has at most one concurrent writer of a different value (other
// writers store the same Empty), which bounds the loop to two
// iterations.
func swapValue(slot *atomix.Uint64, v Value) Value {
	for {
		old := slot.LoadAcquire()
		if slot.CompareAndSwapAcqRel(old, uint64(v)) {
			return Value(old)
		}
	}
}
