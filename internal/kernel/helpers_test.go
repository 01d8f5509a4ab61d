// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"encoding/binary"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/filter"
	"github.com/gogpu/flame/internal/gpudata"
)

// bytesToWords converts a little-endian encoding to 32-bit words.
func bytesToWords(b []byte) []uint32 {
	w := make([]uint32, (len(b)+3)/4)
	for i := range w {
		var chunk [4]byte
		copy(chunk[:], b[i*4:])
		w[i] = binary.LittleEndian.Uint32(chunk[:])
	}
	return w
}

func recordArg(v any) Arg {
	return Arg{Words: bytesToWords(gpudata.Encode(v))}
}

func vec4s(vs ...[4]float32) []uint32 {
	w := make([]uint32, 4*len(vs))
	for i, v := range vs {
		storeVec4(w, i, v)
	}
	return w
}

// iterRig binds every buffer of an iteration launch for the host executor.
type iterRig struct {
	f    *flame.Flame
	plan *iterPlan
	cm   gpudata.CoordMap
	l    Launch
}

func newIterRig(t *testing.T, f *flame.Flame, groups [2]int, lock bool) *iterRig {
	t.Helper()
	if _, err := NewGenerator(testRegistry).Iterate(f, IterOptions{Lock: lock}); err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	layout := Pack(f)
	sp := filter.NewSpatial(f.SpatialFilterRadius, f.Supersample)
	cm := gpudata.NewCoordMap(f, sp)
	threads := groups[0] * BlockX * groups[1] * BlockY

	params := Values(f)
	if len(params) == 0 {
		params = []float32{0}
	}
	args := make([]Arg, len(iterBindings))
	args[IterFlame] = recordArg(gpudata.NewFlameData(f))
	args[IterXforms] = recordArg(gpudata.Xforms(f))
	args[IterParams] = recordArg(params)
	args[IterDist] = Arg{Words: gpudata.Distribution(f)}
	args[IterCoordMap] = recordArg(cm)
	args[IterPalette] = Arg{Image: &Image{W: flame.PaletteSize, H: 1, Pix: f.Palette.Float32()}}
	args[IterSeeds] = Arg{Words: Seeds(rand.New(rand.NewPCG(1, 2)), threads)}
	args[IterPoints] = Arg{Words: make([]uint32, threads*8)}
	args[IterState] = Arg{Words: make([]uint32, max(threads*layout.StateStride, 1))}
	args[IterHist] = Arg{Words: make([]uint32, int(cm.RasW*cm.RasH)*4)}

	return &iterRig{
		f:    f,
		plan: newIterPlan(f, layout, IterOptions{Lock: lock}),
		cm:   cm,
		l: Launch{
			Grid:  [2]int{groups[0] * BlockX, groups[1] * BlockY},
			Block: [2]int{BlockX, BlockY},
			Args:  args,
		},
	}
}

func (r *iterRig) run(t *testing.T, iters uint32, fuse bool) {
	t.Helper()
	ip := gpudata.IterParams{
		ItersPerThread: iters,
		FuseCount:      uint32(r.f.Fuse),
		XformCount:     uint32(len(r.f.Xforms)),
		HistW:          r.cm.RasW,
		HistH:          r.cm.RasH,
		StateStride:    uint32(r.plan.stride),
	}
	if fuse {
		ip.Fuse = 1
	}
	if r.f.HasXaos() {
		ip.Xaos = 1
	}
	r.l.Args[IterIter] = recordArg(ip)
	if err := r.plan.run(&r.l); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func (r *iterRig) hist() []uint32 { return r.l.Args[IterHist].Words }
