// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/flame/internal/color"
	"github.com/gogpu/flame/internal/gpudata"
)

//go:embed shaders/tone.wgsl
var shaderTone string

//go:embed shaders/gamma.wgsl
var shaderGamma string

//go:embed shaders/final_accum.wgsl
var shaderFinalAccum string

// EntryGamma is the entry point of the early clip gamma program.
const EntryGamma = "gamma_correct"

// ErrBadVariant is returned for a final accumulation variant that cannot
// be built.
var ErrBadVariant = errors.New("kernel: invalid final accumulation variant")

// FinalVariant selects one final accumulation program.
type FinalVariant struct {
	// Channels is 3 (RGB) or 4 (RGBA).
	Channels int
	// Transparent keeps alpha instead of compositing over the background.
	// It requires 4 channels.
	Transparent bool
	// EarlyClip tone maps the accumulator before filtering; otherwise
	// filtered values are tone mapped.
	EarlyClip bool
}

// Validate reports whether v describes a buildable program.
func (v FinalVariant) Validate() error {
	if v.Channels != 3 && v.Channels != 4 {
		return fmt.Errorf("%w: %d channels", ErrBadVariant, v.Channels)
	}
	if v.Transparent && v.Channels != 4 {
		return fmt.Errorf("%w: transparency needs an alpha channel", ErrBadVariant)
	}
	return nil
}

// Entry returns the entry point name, e.g. final_accum_late_rgba_trans.
func (v FinalVariant) Entry() string {
	clip := "late"
	if v.EarlyClip {
		clip = "early"
	}
	ch := "rgb"
	if v.Channels == 4 {
		ch = "rgba"
		if v.Transparent {
			ch = "rgba_trans"
		}
	}
	return "final_accum_" + clip + "_" + ch
}

func toneHeader(b *Builder, transparent bool) {
	b.Addf(SlotHeader, "const TRANSPARENT: bool = %t;", transparent)
	b.Add(SlotStructs, wgslFinalParams)
	b.Add(SlotHelpers, shaderTone)
}

// GammaCorrect returns the early clip program tone mapping the accumulator
// in place.
//
// Bindings: 0 FinalParams, 1 accumulator.
func GammaCorrect(transparent bool) *Program {
	b := NewBuilder()
	toneHeader(b, transparent)
	b.Add(SlotEntry, shaderGamma)
	return &Program{
		Entry:  EntryGamma,
		Source: b.String(),
		Bindings: []Binding{
			{Name: "params", Kind: BindUniform},
			{Name: "accum", Kind: BindStorage},
		},
		Workgroup: [2]int{16, 16},
		Host: func(l *Launch) error {
			return hostGamma(l, transparent)
		},
	}
}

// FinalAccum returns the program filtering the accumulator into the output
// image, v.Channels floats per pixel.
//
// Bindings: 0 FinalParams, 1 accumulator, 2 filter coefficients, 3 output.
func FinalAccum(v FinalVariant) (*Program, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	b := NewBuilder()
	toneHeader(b, v.Transparent)
	b.Addf(SlotHeader, "const CHANNELS: u32 = %du;", v.Channels)
	b.Addf(SlotHeader, "const EARLY_CLIP: bool = %t;", v.EarlyClip)
	b.Add(SlotEntry, strings.Replace(shaderFinalAccum, "fn final_accum(", "fn "+v.Entry()+"(", 1))
	return &Program{
		Entry:  v.Entry(),
		Source: b.String(),
		Bindings: []Binding{
			{Name: "params", Kind: BindUniform},
			{Name: "accum", Kind: BindStorageRead},
			{Name: "coefs", Kind: BindStorageRead},
			{Name: "out", Kind: BindStorage},
		},
		Workgroup: [2]int{16, 16},
		Host: func(l *Launch) error {
			return hostFinal(l, v)
		},
	}, nil
}

// ToneOf returns the host tone mapping of fp.
func ToneOf(fp gpudata.FinalParams, transparent bool) color.Tone {
	return color.Tone{
		InvGamma:    fp.InvGamma,
		LinRange:    fp.LinRange,
		Vibrancy:    fp.Vibrancy,
		HighPow:     fp.HighPow,
		Background:  color.ColorF32{R: fp.BgR, G: fp.BgG, B: fp.BgB, A: 1},
		Transparent: transparent,
	}
}

func hostGamma(l *Launch, transparent bool) error {
	var fp gpudata.FinalParams
	if err := l.uniform(0, &fp); err != nil {
		return err
	}
	accum, err := l.words(1)
	if err != nil {
		return err
	}
	n := int(fp.SuperW) * int(fp.SuperH)
	if len(accum) < n*4 {
		return fmt.Errorf("kernel: gamma: %d buckets exceed accumulator", n)
	}
	t := ToneOf(fp, transparent)
	for i := range n {
		c := loadVec4(accum, i)
		o := t.Apply(color.ColorF32{R: c[0], G: c[1], B: c[2], A: c[3]})
		storeVec4(accum, i, [4]float32{o.R, o.G, o.B, o.A})
	}
	return nil
}

func hostFinal(l *Launch, v FinalVariant) error {
	var fp gpudata.FinalParams
	if err := l.uniform(0, &fp); err != nil {
		return err
	}
	accum, err := l.words(1)
	if err != nil {
		return err
	}
	coefs, err := l.words(2)
	if err != nil {
		return err
	}
	out, err := l.words(3)
	if err != nil {
		return err
	}
	ow, oh := int(fp.OutW), int(fp.OutH)
	sw, fw, ss := int(fp.SuperW), int(fp.FilterWidth), int(fp.Supersample)
	switch {
	case len(out) < ow*oh*v.Channels:
		return fmt.Errorf("kernel: final: output holds %d values, need %d", len(out), ow*oh*v.Channels)
	case len(coefs) < fw*fw:
		return fmt.Errorf("kernel: final: %d coefficients for width %d", len(coefs), fw)
	case ow > 0 && oh > 0 && len(accum) < ((oh-1)*ss+fw)*sw*4:
		return fmt.Errorf("kernel: final: accumulator too small")
	}
	t := ToneOf(fp, v.Transparent)
	for y := range oh {
		for x := range ow {
			var sum color.ColorF32
			for j := range fw {
				row := (y*ss+j)*sw + x*ss
				for i := range fw {
					c := loadVec4(accum, row+i)
					k := f32(coefs[j*fw+i])
					sum = sum.Add(color.ColorF32{R: c[0], G: c[1], B: c[2], A: c[3]}.Scale(k))
				}
			}
			if !v.EarlyClip {
				sum = t.Apply(sum)
			}
			o := (y*ow + x) * v.Channels
			out[o] = u32bits(sum.R)
			out[o+1] = u32bits(sum.G)
			out[o+2] = u32bits(sum.B)
			if v.Channels == 4 {
				out[o+3] = u32bits(sum.A)
			}
		}
	}
	return nil
}
