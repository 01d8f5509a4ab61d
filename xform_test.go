package flame

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/flame/variation"
)

func TestXformOrdered(t *testing.T) {
	x := NewXform(
		variation.Must("post_linear", 1),
		variation.Must("spherical", 1),
		variation.Must("pre_blur", 1),
		variation.Must("linear", 1),
	)
	var got []string
	for _, v := range x.Ordered() {
		got = append(got, v.Name())
	}
	want := []string{"pre_blur", "spherical", "linear", "post_linear"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ordered() = %v, want %v", got, want)
		}
	}
}

func TestAddVariationLimits(t *testing.T) {
	x := NewXform(variation.Must("linear", 1))
	if err := x.AddVariation(variation.Must("linear", 2)); !errors.Is(err, ErrDuplicateVariation) {
		t.Errorf("AddVariation(dup) = %v, want ErrDuplicateVariation", err)
	}
	if err := x.AddVariation(nil); !errors.Is(err, ErrNilVariation) {
		t.Errorf("AddVariation(nil) = %v, want ErrNilVariation", err)
	}
	if err := x.AddVariation(variation.Must("pre_linear", 2)); err != nil {
		t.Errorf("AddVariation(pre_linear) = %v, want nil", err)
	}
	names := []string{"sinusoidal", "spherical", "swirl", "horseshoe", "polar", "disc"}
	for _, n := range names {
		_ = x.AddVariation(variation.Must(n, 1))
	}
	if err := x.AddVariation(variation.Must("heart", 1)); !errors.Is(err, ErrTooManyVariations) {
		t.Errorf("AddVariation(9th) = %v, want ErrTooManyVariations", err)
	}
}

func TestVizAdjusted(t *testing.T) {
	tests := []struct {
		opacity, want float64
	}{
		{1, 1},
		{0, 0},
		{0.5, 0.1},
	}
	for _, tt := range tests {
		x := NewXform()
		x.Opacity = tt.opacity
		if got := x.VizAdjusted(); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("VizAdjusted(%v) = %v, want %v", tt.opacity, got, tt.want)
		}
	}
}

func TestXformDefaults(t *testing.T) {
	x := NewXform()
	if x.HasPost() {
		t.Error("HasPost() = true for identity post")
	}
	x.Post = Translate(1, 0)
	if !x.HasPost() {
		t.Error("HasPost() = false after translate")
	}
	if x.XaosTo(5) != 1 {
		t.Errorf("XaosTo(missing) = %v, want 1", x.XaosTo(5))
	}
	x.Color, x.ColorSpeed = 0.8, 0.25
	sc, om := x.ColorCaches()
	if sc != 0.2 || om != 0.75 {
		t.Errorf("ColorCaches() = %v, %v, want 0.2, 0.75", sc, om)
	}
}

func TestPalette(t *testing.T) {
	p := NewPalette(Black, White)
	if p.Entries[0] != Black || p.Entries[PaletteSize-1] != White {
		t.Fatalf("NewPalette endpoints = %v, %v", p.Entries[0], p.Entries[PaletteSize-1])
	}
	if got := p.Lookup(0.5); got != p.Entries[128] {
		t.Errorf("step Lookup(0.5) = %v, want entry 128", got)
	}
	if got := p.Lookup(2); got != White {
		t.Errorf("Lookup(2) = %v, want clamp to last entry", got)
	}
	p.Mode = PaletteLinear
	mid := p.Lookup(100.5 / PaletteSize)
	want := p.Entries[100].Lerp(p.Entries[101], 0.5)
	if math.Abs(mid.R-want.R) > 1e-9 {
		t.Errorf("linear Lookup = %v, want %v", mid, want)
	}
	if n := len(p.Float32()); n != PaletteSize*4 {
		t.Errorf("Float32() len = %d, want %d", n, PaletteSize*4)
	}
	if PaletteLinear.String() != "linear" || PaletteStep.String() != "step" {
		t.Error("PaletteMode.String() mismatch")
	}
}
