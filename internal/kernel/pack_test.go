// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"testing"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/variation"
)

func packFlame() *flame.Flame {
	f := flame.New(32, 32)
	f.Add(
		flame.NewXform(variation.Must("julian", 1), variation.Must("linear", 0.5)),
		flame.NewXform(variation.Must("curl", 1), variation.Must("post_echo", 1)),
	)
	f.Final = flame.NewXform(variation.Must("julian", 1).With("julian_power", 3))
	return f
}

func TestPackSlots(t *testing.T) {
	f := packFlame()
	l := Pack(f)

	want := 0
	for _, x := range f.AllXforms() {
		for _, v := range x.Ordered() {
			want += len(v.Spec().Params)
		}
	}
	if len(l.Params) != want {
		t.Fatalf("len(Params) = %d, want %d", len(l.Params), want)
	}
	seen := make(map[string]bool)
	for i, s := range l.Params {
		if s.Offset != i {
			t.Errorf("slot %s offset = %d, want %d", s.Const, s.Offset, i)
		}
		if seen[s.Const] {
			t.Errorf("duplicate constant %s", s.Const)
		}
		seen[s.Const] = true
	}
	if !seen["JULIAN_POWER_0"] || !seen["JULIAN_POWER_2"] || !seen["CURL_C1_1"] {
		t.Errorf("missing expected constants: %v", seen)
	}
	if l.StateStride != 2 || l.State[0].Const != "ST_POST_ECHO_X_1" {
		t.Errorf("State = %+v, stride %d", l.State, l.StateStride)
	}
}

func TestPackValues(t *testing.T) {
	f := packFlame()
	l := Pack(f)
	vals := Values(f)
	if len(vals) != len(l.Params) {
		t.Fatalf("len(Values) = %d, want %d", len(vals), len(l.Params))
	}
	for i, s := range l.Params {
		if s.Const == "JULIAN_POWER_2" && vals[i] != 3 {
			t.Errorf("JULIAN_POWER_2 = %v, want 3", vals[i])
		}
	}
}
