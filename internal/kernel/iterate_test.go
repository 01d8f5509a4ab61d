// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/funcs"
	"github.com/gogpu/flame/variation"
)

var testRegistry = funcs.New()

func sierpinski() *flame.Flame {
	f := flame.New(40, 30)
	for _, c := range [][2]float64{{-0.5, -0.5}, {0.5, -0.5}, {0, 0.5}} {
		x := flame.NewXform(variation.Must("linear", 1))
		x.Affine = flame.Affine{A: 0.5, E: 0.5, C: c[0], F: c[1]}
		f.Add(x)
	}
	f.Fuse = 4
	return f
}

func TestIterateSource(t *testing.T) {
	f := sierpinski()
	if err := f.Xforms[1].AddVariation(variation.Must("julian", 0.5)); err != nil {
		t.Fatal(err)
	}
	f.Final = flame.NewXform(variation.Must("spherical", 1))

	p, err := NewGenerator(testRegistry).Iterate(f, IterOptions{})
	if err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	if p.Entry != EntryIterate {
		t.Errorf("Entry = %q", p.Entry)
	}
	if p.Workgroup != [2]int{BlockX, BlockY} {
		t.Errorf("Workgroup = %v", p.Workgroup)
	}
	for _, want := range []string{
		"fn xform_0(", "fn xform_1(", "fn xform_2(", "fn xform_3(",
		"fn apply_xform(", "fn choose_xform(", "fn init_state(",
		"const JULIAN_POWER_1: u32", "const FINAL_INDEX: u32 = 3u;",
		"row_xf[lid.y]", "fn zeps(", "hist[bi] = hist[bi] + v;",
		"dist[0u * GRAIN + r]",
		"@compute @workgroup_size(32, 8, 1)",
	} {
		if !strings.Contains(p.Source, want) {
			t.Errorf("source lacks %q", want)
		}
	}
	if strings.Contains(p.Source, "atomicCompareExchangeWeak") {
		t.Error("unlocked program uses atomics")
	}
	if n := strings.Count(p.Source, "workgroupBarrier();"); n != 3 {
		t.Errorf("workgroupBarrier count = %d, want 3", n)
	}
	if i := strings.Index(p.Source, "// ---- header ----"); i != 0 {
		t.Errorf("source does not start with the header slot")
	}
	if len(p.Bindings) != IterHist+1 || p.Bindings[IterHist].Name != "hist" {
		t.Errorf("Bindings = %v", p.Bindings)
	}
}

func TestIterateSourceVariants(t *testing.T) {
	f := sierpinski()
	f.Xforms[0].Xaos = []float64{0, 1, 1}
	f.CamPitch = 0.3
	f.CamDepthBlur = 0.2
	f.Palette.Mode = flame.PaletteLinear

	p, err := NewGenerator(testRegistry).Iterate(f, IterOptions{Lock: true})
	if err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	for _, want := range []string{
		"array<atomic<u32>>",
		"atomicCompareExchangeWeak",
		"dist[last_xf * GRAIN + r]",
		"flame.blur_coef",
		"mix(e0, e1",
	} {
		if !strings.Contains(p.Source, want) {
			t.Errorf("source lacks %q", want)
		}
	}
	if strings.Contains(p.Source, "flame.cam00") {
		t.Error("pitch-only projection reads yaw terms")
	}
}

func TestIterateNoXforms(t *testing.T) {
	_, err := NewGenerator(testRegistry).Iterate(flame.New(10, 10), IterOptions{})
	if !errors.Is(err, flame.ErrNoXforms) {
		t.Errorf("Iterate() error = %v, want ErrNoXforms", err)
	}
}

func TestIterateDuplicateVariation(t *testing.T) {
	f := sierpinski()
	x := f.Xforms[1]
	x.Variations = append(x.Variations, variation.Must("julian", 1), variation.Must("julian", 0.5))
	if _, err := NewGenerator(testRegistry).Iterate(f, IterOptions{}); !errors.Is(err, flame.ErrDuplicateVariation) {
		t.Errorf("Iterate() error = %v, want ErrDuplicateVariation", err)
	}
}

func TestEveryHelperRequested(t *testing.T) {
	used := map[string]bool{"zeps": true}
	for _, name := range variation.Names() {
		s, _, _ := variation.Lookup(name)
		hs, err := testRegistry.Resolve(s.Helpers...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, h := range hs {
			used[h.Name] = true
		}
	}
	for _, n := range testRegistry.Names() {
		if !used[n] {
			t.Errorf("helper %s is requested by no variation", n)
		}
	}
}

// dc_linear at the fixed point (0.5, 0) writes color 0.75; the transform's
// DirectColor decides whether it replaces the blended coordinate.
func TestIterateDirectColor(t *testing.T) {
	meanRed := func(direct float64) float32 {
		f := flame.New(40, 30)
		f.Palette = *flame.NewPalette(flame.RGBA{A: 1}, flame.RGBA{R: 1, G: 1, B: 1, A: 1})
		x := flame.NewXform(variation.Must("dc_linear", 1))
		x.Affine = flame.Affine{C: 0.5}
		x.Color, x.ColorSpeed = 0, 0.5
		x.DirectColor = direct
		f.Add(x)
		f.Fuse = 30
		r := newIterRig(t, f, [2]int{1, 1}, false)
		r.run(t, 8, true)
		var red, alpha float32
		hist := r.hist()
		for i := range len(hist) / 4 {
			b := loadVec4(hist, i)
			red += b[0]
			alpha += b[3]
		}
		if alpha == 0 {
			t.Fatal("nothing accumulated")
		}
		return red / alpha
	}
	if got := meanRed(1); math32.Abs(got-0.75) > 0.01 {
		t.Errorf("direct color 1: mean red = %v, want 0.75", got)
	}
	if got := meanRed(0); got > 0.01 {
		t.Errorf("direct color 0: mean red = %v, want the coordinate pulled to 0", got)
	}
}

func TestIterateSourceDirectColor(t *testing.T) {
	f := sierpinski()
	p, err := NewGenerator(testRegistry).Iterate(f, IterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Source, "let out_color = temp_color;") {
		t.Error("out_color is mutable without a direct color variation")
	}
	if err := f.Xforms[0].AddVariation(variation.Must("dc_linear", 1)); err != nil {
		t.Fatal(err)
	}
	p, err = NewGenerator(testRegistry).Iterate(f, IterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Source, "var out_color = temp_color;") || !strings.Contains(p.Source, "out_color = fmod(") {
		t.Error("dc_linear does not write out_color")
	}
}

func TestPrecalcLinesZeroUnused(t *testing.T) {
	lines := precalcLines(variation.NeedAngles, "")
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"let pre_sumsq = v_in.x * v_in.x",
		"let pre_sqrt = sqrt(pre_sumsq);",
		"let pre_sina = v_in.x / zeps(pre_sqrt);",
		"let pre_atanxy = 0.0;",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("precalc lacks %q:\n%s", want, joined)
		}
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{1, "1.0"},
		{0.5, "0.5"},
		{variation.Eps, "1.1920929e-07"},
	}
	for _, tt := range tests {
		if got := wgslFloat(tt.in); got != tt.want {
			t.Errorf("wgslFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// A transform without regular variations maps every point to the origin,
// so every sample lands in the center bucket.
func TestIterateCenterPixel(t *testing.T) {
	f := flame.New(40, 30)
	f.Add(flame.NewXform())
	f.Fuse = 2
	r := newIterRig(t, f, [2]int{2, 1}, false)
	const iters = 6
	r.run(t, iters, true)

	cx, cy, ok := r.cm.Raster(0, 0)
	if !ok {
		t.Fatal("origin is off the raster")
	}
	center := int(cy*r.cm.RasW + cx)
	hist := r.hist()
	for i := range len(hist) / 4 {
		b := loadVec4(hist, i)
		if i == center {
			continue
		}
		if b != [4]float32{} {
			t.Fatalf("bucket %d = %v, want empty", i, b)
		}
	}
	got := loadVec4(hist, center)[3]
	want := float32(2 * GroupSize * iters)
	if math32.Abs(got-want) > want*1e-4 {
		t.Errorf("center alpha = %v, want %v", got, want)
	}
}

// Two launches continuing one another accumulate exactly what one long
// launch does.
func TestIterateContinuation(t *testing.T) {
	f := sierpinski()
	if err := f.Xforms[2].AddVariation(variation.Must("pre_echo", 1)); err != nil {
		t.Fatal(err)
	}

	a := newIterRig(t, f, [2]int{1, 1}, false)
	a.run(t, 7, true)
	a.run(t, 5, false)

	b := newIterRig(t, f, [2]int{1, 1}, false)
	b.run(t, 12, true)

	for _, idx := range []int{IterHist, IterSeeds, IterPoints, IterState} {
		if !slices.Equal(a.l.Args[idx].Words, b.l.Args[idx].Words) {
			t.Errorf("binding %s differs between continued and single launch", iterBindings[idx].Name)
		}
	}
}

// Every thread of a row applies the transform its row leader chose.
func TestIterateRowUniform(t *testing.T) {
	f := sierpinski()
	r := newIterRig(t, f, [2]int{2, 1}, false)
	type key struct{ group, step, row int }
	seen := make(map[key]uint32)
	calls := make(map[int]int)
	distinct := make(map[uint32]bool)
	r.plan.selectHook = func(group, thread int, xf uint32) {
		step := calls[group] / GroupSize
		calls[group]++
		k := key{group, step, thread / BlockX}
		if prev, ok := seen[k]; ok && prev != xf {
			t.Errorf("group %d step %d row %d: thread %d chose %d, row chose %d", group, step, k.row, thread, xf, prev)
		}
		seen[k] = xf
		distinct[xf] = true
	}
	r.run(t, 10, true)
	if len(distinct) < 2 {
		t.Errorf("only %d distinct transforms chosen", len(distinct))
	}
}

// Points escaping to infinity are replaced by fresh random points.
func TestIterateBadPointsReseed(t *testing.T) {
	f := flame.New(40, 30)
	x := flame.NewXform(variation.Must("linear", 1))
	x.Affine = flame.Affine{C: 1e12, E: 1}
	f.Add(x)
	r := newIterRig(t, f, [2]int{1, 1}, true)
	r.run(t, 3, true)

	pts := r.l.Args[IterPoints].Words
	for i := range GroupSize {
		px, py := f32(pts[i*8]), f32(pts[i*8+1])
		if badVal(px) || badVal(py) || math32.Abs(px) > 1 || math32.Abs(py) > 1 {
			t.Fatalf("point %d = (%v, %v), want a fresh point in [-1, 1]", i, px, py)
		}
	}
}

func TestBadVal(t *testing.T) {
	tests := []struct {
		v    float32
		want bool
	}{
		{0, false},
		{1e9, false},
		{-2e10, true},
		{math32.Inf(1), true},
		{math32.NaN(), true},
	}
	for _, tt := range tests {
		if got := badVal(tt.v); got != tt.want {
			t.Errorf("badVal(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestAtomicAddF32(t *testing.T) {
	w := u32bits(1.5)
	atomicAddF32(&w, 2.25)
	if got := f32(w); got != 3.75 {
		t.Errorf("atomicAddF32 = %v, want 3.75", got)
	}
}
