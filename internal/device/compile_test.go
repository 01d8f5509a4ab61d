// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"testing"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/funcs"
	"github.com/gogpu/flame/internal/kernel"
	"github.com/gogpu/flame/variation"
)

func compileFlame(extra ...*variation.Instance) *flame.Flame {
	f := flame.New(32, 24)
	f.Add(
		flame.NewXform(variation.Must("linear", 1)),
		flame.NewXform(extra...),
	)
	return f
}

func mustCompile(t *testing.T, p *kernel.Program) {
	t.Helper()
	if _, err := CompileSPIRV(p); err != nil {
		t.Fatalf("CompileSPIRV(%s) error = %v\n%s", p.Entry, err, p.NumberedSource())
	}
}

func TestCompileIterateVariations(t *testing.T) {
	gen := kernel.NewGenerator(funcs.New())
	for _, name := range variation.Names() {
		names := []string{name}
		if spec, _, _ := variation.Lookup(name); spec.Phase == variation.PhaseRegular {
			names = append(names, variation.PhasePre.Prefix()+name, variation.PhasePost.Prefix()+name)
		}
		for _, n := range names {
			t.Run(n, func(t *testing.T) {
				p, err := gen.Iterate(compileFlame(variation.Must(n, 0.5)), kernel.IterOptions{})
				if err != nil {
					t.Fatal(err)
				}
				mustCompile(t, p)
			})
		}
	}
}

func TestCompileIterateFeatures(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *flame.Flame)
		lock   bool
	}{
		{"plain", func(*flame.Flame) {}, false},
		{"lock", func(*flame.Flame) {}, true},
		{"xaos", func(f *flame.Flame) { f.Xforms[0].Xaos = []float64{0, 2} }, false},
		{"final", func(f *flame.Flame) {
			f.Final = flame.NewXform(variation.Must("spherical", 1))
			f.Final.Opacity = 0.5
		}, false},
		{"post affine", func(f *flame.Flame) { f.Xforms[1].Post.C = 0.25 }, false},
		{"linear palette", func(f *flame.Flame) { f.Palette.Mode = flame.PaletteLinear }, false},
		{"step palette", func(f *flame.Flame) { f.Palette.Mode = flame.PaletteStep }, true},
		{"z", func(f *flame.Flame) { f.CamZPos = 0.5 }, false},
		{"pitch", func(f *flame.Flame) { f.CamPitch = 0.3 }, false},
		{"yaw", func(f *flame.Flame) { f.CamYaw = 0.2 }, false},
		{"blur", func(f *flame.Flame) {
			f.CamPitch = 0.3
			f.CamDepthBlur = 0.4
		}, false},
		{"everything", func(f *flame.Flame) {
			f.Xforms[0].Xaos = []float64{1, 0.5}
			f.Xforms[1].Post.F = -0.1
			f.Final = flame.NewXform(variation.Must("julian", 1))
			f.Palette.Mode = flame.PaletteLinear
			f.CamYaw = 0.2
			f.CamDepthBlur = 0.1
		}, true},
	}
	gen := kernel.NewGenerator(funcs.New())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := compileFlame(variation.Must("swirl", 1), variation.Must("pre_blur", 0.2))
			tt.modify(f)
			p, err := gen.Iterate(f, kernel.IterOptions{Lock: tt.lock})
			if err != nil {
				t.Fatal(err)
			}
			mustCompile(t, p)
		})
	}
}

func TestCompileUtilityPrograms(t *testing.T) {
	progs := []*kernel.Program{
		kernel.Zeroize(),
		kernel.Sum(),
		kernel.LogScale(),
		kernel.GaussianDE(),
		kernel.GammaCorrect(false),
		kernel.GammaCorrect(true),
	}
	for _, ch := range []int{3, 4} {
		for _, trans := range []bool{false, true} {
			for _, early := range []bool{false, true} {
				v := kernel.FinalVariant{Channels: ch, Transparent: trans, EarlyClip: early}
				if v.Validate() != nil {
					continue
				}
				p, err := kernel.FinalAccum(v)
				if err != nil {
					t.Fatalf("FinalAccum(%+v) error = %v", v, err)
				}
				progs = append(progs, p)
			}
		}
	}
	if len(progs) != 6+6 {
		t.Fatalf("built %d programs, want 12", len(progs))
	}
	for _, p := range progs {
		t.Run(p.Entry, func(t *testing.T) {
			mustCompile(t, p)
		})
	}
}
