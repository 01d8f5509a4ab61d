// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"github.com/gogpu/flame"
	"github.com/gogpu/flame/variation"
)

// ParamSlot is one packed scalar: a parameter or a per-thread state value
// of a variation instance.
type ParamSlot struct {
	// Const is the WGSL constant naming the slot, e.g. JULIAN_POWER_1.
	Const  string
	Name   string
	Xform  int
	Offset int
}

// ParamLayout is the packing of a flame's variation parameters and state.
// It is valid only for programs built from a flame with the same signature.
type ParamLayout struct {
	Params []ParamSlot
	// State slots are offsets within one thread's state block.
	State       []ParamSlot
	StateStride int
}

// Pack computes the parameter layout of f. Transforms are packed in order,
// the final transform last, each instance contributing one contiguous
// range in execution order.
func Pack(f *flame.Flame) ParamLayout {
	var l ParamLayout
	for xi, x := range f.AllXforms() {
		for _, v := range x.Ordered() {
			for _, name := range v.ParamNames() {
				l.Params = append(l.Params, ParamSlot{
					Const:  variation.SlotName(name, xi),
					Name:   name,
					Xform:  xi,
					Offset: len(l.Params),
				})
			}
			for _, name := range v.StateNames() {
				l.State = append(l.State, ParamSlot{
					Const:  variation.StateSlotName(name, xi),
					Name:   name,
					Xform:  xi,
					Offset: len(l.State),
				})
			}
		}
	}
	l.StateStride = len(l.State)
	return l
}

// Values returns the parameter values of f in the order of Pack(f).
func Values(f *flame.Flame) []float32 {
	var out []float32
	for _, x := range f.AllXforms() {
		for _, v := range x.Ordered() {
			for _, p := range v.Values() {
				out = append(out, float32(p))
			}
		}
	}
	return out
}
