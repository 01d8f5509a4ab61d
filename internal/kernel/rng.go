// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"math/rand/v2"
)

//go:embed shaders/rand.wgsl
var shaderRand string

// MWC is the host form of the kernels' multiply-with-carry generator. Each
// virtual thread owns one; the host and device draw identical sequences.
type MWC struct {
	Z, W uint32
}

// Uint32 advances the generator.
func (m *MWC) Uint32() uint32 {
	m.Z = 36969*(m.Z&65535) + (m.Z >> 16)
	m.W = 18000*(m.W&65535) + (m.W >> 16)
	return (m.Z << 16) + m.W
}

// Float01 returns a value in [0, 1].
func (m *MWC) Float01() float32 {
	return float32(m.Uint32()) * 2.3283064365386963e-10
}

// Float11 returns a value in [-1, 1].
func (m *MWC) Float11() float32 {
	return m.Float01()*2 - 1
}

// Seeds returns n generator states drawn from src. Both lags are non-zero
// so no generator is stuck at zero.
func Seeds(src *rand.Rand, n int) []uint32 {
	out := make([]uint32, 2*n)
	for i := range out {
		v := src.Uint32()
		for v == 0 {
			v = src.Uint32()
		}
		out[i] = v
	}
	return out
}
