// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/internal/parallel"
)

// ErrArgMissing is returned by host kernels launched with an unbound
// argument.
var ErrArgMissing = errors.New("kernel: argument not bound")

// BindKind is the resource type of one kernel argument.
type BindKind uint8

const (
	// BindUniform is a read-only uniform buffer.
	BindUniform BindKind = iota
	// BindStorageRead is a read-only storage buffer.
	BindStorageRead
	// BindStorage is a read-write storage buffer.
	BindStorage
	// BindTexture is a 2D float texture read with textureLoad.
	BindTexture
)

// String returns the WGSL address space of the binding.
func (k BindKind) String() string {
	switch k {
	case BindUniform:
		return "uniform"
	case BindStorageRead:
		return "storage, read"
	case BindStorage:
		return "storage, read_write"
	case BindTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// Binding declares argument Index of a program, @group(0) @binding(Index).
type Binding struct {
	Name string
	Kind BindKind
}

// Program is a compute program with one entry point.
type Program struct {
	Entry    string
	Source   string
	Bindings []Binding
	// Workgroup is the @workgroup_size of the entry point.
	Workgroup [2]int
	// Host executes the program on the CPU.
	Host HostFunc
}

// BindingIndex returns the index of the binding called name.
func (p *Program) BindingIndex(name string) (int, bool) {
	for i, b := range p.Bindings {
		if b.Name == name {
			return i, true
		}
	}
	return -1, false
}

// NumberedSource returns the source with line numbers, for build logs.
func (p *Program) NumberedSource() string {
	lines := strings.Split(p.Source, "\n")
	var sb strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&sb, "%4d  %s\n", i+1, l)
	}
	return sb.String()
}

// EvenGrid rounds every dimension of n up to a multiple of block.
func EvenGrid(n, block [2]int) [2]int {
	var g [2]int
	for i := range g {
		b := max(block[i], 1)
		g[i] = (max(n[i], 0) + b - 1) / b * b
	}
	return g
}

// =============================================================================
// Host execution
// =============================================================================

// HostFunc executes a program launch on the CPU.
type HostFunc func(l *Launch) error

// Image is a host-resident 2D RGBA float image.
type Image struct {
	W, H int
	Pix  []float32
}

// Arg is one bound argument of a host launch. Buffers are 32-bit words.
type Arg struct {
	Words []uint32
	Image *Image
}

// Launch describes one host kernel launch.
type Launch struct {
	Grid  [2]int
	Block [2]int
	Args  []Arg
	Pool  *parallel.WorkerPool
}

// Groups returns the number of work-groups in each direction.
func (l *Launch) Groups() [2]int {
	return [2]int{l.Grid[0] / max(l.Block[0], 1), l.Grid[1] / max(l.Block[1], 1)}
}

// ForGroups runs fn for each work-group, concurrently when a pool is set.
func (l *Launch) ForGroups(fn func(gx, gy int)) {
	g := l.Groups()
	n := g[0] * g[1]
	run := func(i int) { fn(i%g[0], i/g[0]) }
	if l.Pool == nil {
		for i := range n {
			run(i)
		}
		return
	}
	l.Pool.For(n, run)
}

func (l *Launch) words(i int) ([]uint32, error) {
	if i >= len(l.Args) || l.Args[i].Words == nil {
		return nil, fmt.Errorf("%w: binding %d", ErrArgMissing, i)
	}
	return l.Args[i].Words, nil
}

func (l *Launch) image(i int) (*Image, error) {
	if i >= len(l.Args) || l.Args[i].Image == nil {
		return nil, fmt.Errorf("%w: binding %d", ErrArgMissing, i)
	}
	return l.Args[i].Image, nil
}

// uniform decodes binding i into v.
func (l *Launch) uniform(i int, v any) error {
	w, err := l.words(i)
	if err != nil {
		return err
	}
	b := make([]byte, 0, len(w)*4)
	for _, x := range w {
		b = binary.LittleEndian.AppendUint32(b, x)
	}
	return gpudata.Decode(b, v)
}

func f32(w uint32) float32 { return math32.Float32frombits(w) }

func u32bits(f float32) uint32 { return math32.Float32bits(f) }

// loadVec4 reads bucket i of a vec4<f32> buffer.
func loadVec4(w []uint32, i int) [4]float32 {
	j := i * 4
	return [4]float32{f32(w[j]), f32(w[j+1]), f32(w[j+2]), f32(w[j+3])}
}

func storeVec4(w []uint32, i int, v [4]float32) {
	j := i * 4
	w[j], w[j+1], w[j+2], w[j+3] = u32bits(v[0]), u32bits(v[1]), u32bits(v[2]), u32bits(v[3])
}

// toU32 converts like WGSL u32(f32): saturating, NaN to zero.
func toU32(v float32) uint32 {
	switch {
	case !(v > 0):
		return 0
	case v >= 4294967295:
		return 4294967295
	default:
		return uint32(v)
	}
}
