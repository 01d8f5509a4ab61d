// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/flame/internal/color"
	"github.com/gogpu/flame/internal/gpudata"
)

func TestFinalVariantEntry(t *testing.T) {
	tests := []struct {
		v    FinalVariant
		want string
	}{
		{FinalVariant{Channels: 3}, "final_accum_late_rgb"},
		{FinalVariant{Channels: 3, EarlyClip: true}, "final_accum_early_rgb"},
		{FinalVariant{Channels: 4}, "final_accum_late_rgba"},
		{FinalVariant{Channels: 4, Transparent: true}, "final_accum_late_rgba_trans"},
		{FinalVariant{Channels: 4, Transparent: true, EarlyClip: true}, "final_accum_early_rgba_trans"},
	}
	for _, tt := range tests {
		if got := tt.v.Entry(); got != tt.want {
			t.Errorf("%+v.Entry() = %q, want %q", tt.v, got, tt.want)
		}
		p, err := FinalAccum(tt.v)
		if err != nil {
			t.Fatalf("FinalAccum(%+v) error = %v", tt.v, err)
		}
		if !strings.Contains(p.Source, "fn "+tt.want+"(") {
			t.Errorf("source lacks entry %s", tt.want)
		}
	}
}

func TestFinalVariantInvalid(t *testing.T) {
	for _, v := range []FinalVariant{{Channels: 2}, {Channels: 3, Transparent: true}} {
		if _, err := FinalAccum(v); !errors.Is(err, ErrBadVariant) {
			t.Errorf("FinalAccum(%+v) error = %v, want ErrBadVariant", v, err)
		}
	}
}

func testFinalParams() gpudata.FinalParams {
	return gpudata.FinalParams{
		InvGamma: 0.25, LinRange: 0.01, Vibrancy: 1, HighPow: 1,
		BgR: 0.2, BgG: 0.1, BgB: 0,
		SuperW: 2, SuperH: 1, OutW: 2, OutH: 1,
		Supersample: 1, FilterWidth: 1,
	}
}

func TestFinalAccumHost(t *testing.T) {
	fp := testFinalParams()
	buckets := [][4]float32{{0.5, 0.25, 0.1, 2}, {0, 0, 0, 0}}
	tests := []struct {
		v FinalVariant
	}{
		{FinalVariant{Channels: 4}},
		{FinalVariant{Channels: 4, Transparent: true}},
		{FinalVariant{Channels: 3}},
		{FinalVariant{Channels: 3, EarlyClip: true}},
	}
	for _, tt := range tests {
		p, err := FinalAccum(tt.v)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]uint32, 2*tt.v.Channels)
		l := &Launch{
			Grid: [2]int{16, 16}, Block: p.Workgroup,
			Args: []Arg{recordArg(fp), {Words: vec4s(buckets...)}, {Words: []uint32{u32bits(1)}}, {Words: out}},
		}
		if err := p.Host(l); err != nil {
			t.Fatalf("%s: Host() error = %v", tt.v.Entry(), err)
		}
		tone := ToneOf(fp, tt.v.Transparent)
		for i, b := range buckets {
			want := color.ColorF32{R: b[0], G: b[1], B: b[2], A: b[3]}
			if !tt.v.EarlyClip {
				want = tone.Apply(want)
			}
			wantCh := []float32{want.R, want.G, want.B, want.A}[:tt.v.Channels]
			for c, wv := range wantCh {
				if got := f32(out[i*tt.v.Channels+c]); got != wv {
					t.Errorf("%s pixel %d channel %d = %v, want %v", tt.v.Entry(), i, c, got, wv)
				}
			}
		}
	}
}

func TestGammaCorrectHost(t *testing.T) {
	fp := testFinalParams()
	accum := vec4s([4]float32{0.5, 0.25, 0.1, 2}, [4]float32{})
	p := GammaCorrect(false)
	l := &Launch{Grid: [2]int{16, 16}, Block: p.Workgroup, Args: []Arg{recordArg(fp), {Words: accum}}}
	if err := p.Host(l); err != nil {
		t.Fatalf("Host() error = %v", err)
	}
	// An empty opaque bucket shows the background.
	if got := loadVec4(accum, 1); got != [4]float32{0.2, 0.1, 0, 1} {
		t.Errorf("empty bucket = %v, want background", got)
	}
	if got := loadVec4(accum, 0); got[3] != 1 {
		t.Errorf("opaque alpha = %v, want 1", got[3])
	}
}
