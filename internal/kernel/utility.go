// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/flame/internal/gpudata"
)

//go:embed shaders/zeroize.wgsl
var shaderZeroize string

//go:embed shaders/sum.wgsl
var shaderSum string

// Entry points of the fixed programs.
const (
	EntryZeroize = "zeroize"
	EntrySum     = "sum_hist"
)

// utilityBlock is the work-group shape of the 1D-in-2D utility kernels.
var utilityBlock = [2]int{16, 16}

// maxRowLen bounds the width of 1D-in-2D grids.
const maxRowLen = 4096

// Zeroize returns the program clearing a buffer of 32-bit words.
//
// Bindings: 0 ZeroParams, 1 the buffer.
func Zeroize() *Program {
	b := NewBuilder()
	b.Add(SlotStructs, wgslZeroParams)
	b.Add(SlotEntry, shaderZeroize)
	return &Program{
		Entry:  EntryZeroize,
		Source: b.String(),
		Bindings: []Binding{
			{Name: "params", Kind: BindUniform},
			{Name: "buf", Kind: BindStorage},
		},
		Workgroup: utilityBlock,
		Host:      hostZeroize,
	}
}

// Sum returns the program adding one histogram into another.
//
// Bindings: 0 SumParams, 1 destination, 2 source.
func Sum() *Program {
	b := NewBuilder()
	b.Add(SlotStructs, wgslSumParams)
	b.Add(SlotEntry, shaderSum)
	return &Program{
		Entry:  EntrySum,
		Source: b.String(),
		Bindings: []Binding{
			{Name: "params", Kind: BindUniform},
			{Name: "dst", Kind: BindStorage},
			{Name: "src", Kind: BindStorage},
		},
		Workgroup: utilityBlock,
		Host:      hostSum,
	}
}

// Linear1D returns the row length and padded grid covering n items with a
// 1D-in-2D launch.
func Linear1D(n int) (rowLen int, grid [2]int) {
	rowLen = min(max(n, 1), maxRowLen)
	rows := (max(n, 1) + rowLen - 1) / rowLen
	return rowLen, EvenGrid([2]int{rowLen, rows}, utilityBlock)
}

// ZeroizeParams returns the parameters and grid clearing w*h bytes.
func ZeroizeParams(w, h int) (gpudata.ZeroParams, [2]int) {
	words := gpudata.Words(w * h)
	rowLen, grid := Linear1D(words)
	return gpudata.ZeroParams{Words: uint32(words), RowLen: uint32(rowLen)}, grid
}

// SumParams returns the parameters and grid adding buckets histogram
// entries.
func SumParams(buckets int, clearSrc bool) (gpudata.SumParams, [2]int) {
	rowLen, grid := Linear1D(buckets)
	p := gpudata.SumParams{Count: uint32(buckets), RowLen: uint32(rowLen)}
	if clearSrc {
		p.Clear = 1
	}
	return p, grid
}

func hostZeroize(l *Launch) error {
	var zp gpudata.ZeroParams
	if err := l.uniform(0, &zp); err != nil {
		return err
	}
	buf, err := l.words(1)
	if err != nil {
		return err
	}
	if int(zp.Words) > len(buf) {
		return fmt.Errorf("kernel: zeroize %d words of a %d word buffer", zp.Words, len(buf))
	}
	clear(buf[:zp.Words])
	return nil
}

func hostSum(l *Launch) error {
	var sp gpudata.SumParams
	if err := l.uniform(0, &sp); err != nil {
		return err
	}
	dst, err := l.words(1)
	if err != nil {
		return err
	}
	src, err := l.words(2)
	if err != nil {
		return err
	}
	n := int(sp.Count)
	if n*4 > len(dst) || n*4 > len(src) {
		return fmt.Errorf("kernel: sum of %d buckets exceeds buffers", n)
	}
	for i := range n * 4 {
		dst[i] = u32bits(f32(dst[i]) + f32(src[i]))
	}
	if sp.Clear != 0 {
		clear(src[:n*4])
	}
	return nil
}
