// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package ubq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent tests of the atomix-ordered
// protocols, which trigger false positives because the detector cannot
// track synchronization established through cross-variable memory
// orderings.
const RaceEnabled = true
