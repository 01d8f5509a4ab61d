// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"strings"
	"testing"
)

func TestBuilderSlotOrder(t *testing.T) {
	b := NewBuilder()
	b.Add(SlotEntry, "fn main() {}")
	b.Add(SlotHeader, "const A: u32 = 1u;")
	b.Addf(SlotStructs, "struct S { x: %s }", "f32")

	src := b.String()
	h := strings.Index(src, "const A")
	s := strings.Index(src, "struct S")
	e := strings.Index(src, "fn main")
	if h < 0 || s < 0 || e < 0 || h >= s || s >= e {
		t.Errorf("slots out of order:\n%s", src)
	}
	if strings.Contains(src, "// ---- xforms ----") {
		t.Error("empty slot emitted a banner")
	}
}

func TestBuilderOnce(t *testing.T) {
	b := NewBuilder()
	if !b.Once(SlotHelpers, "zeps", "fn zeps() {}") {
		t.Fatal("first Once returned false")
	}
	if b.Once(SlotHelpers, "zeps", "fn zeps() {}") {
		t.Error("second Once returned true")
	}
	if !b.Has("zeps") || b.Has("sqr") {
		t.Error("Has reports wrong keys")
	}
	if n := len(b.Chunks(SlotHelpers)); n != 1 {
		t.Errorf("helpers chunks = %d, want 1", n)
	}
}

func TestSlotString(t *testing.T) {
	if got := SlotXforms.String(); got != "xforms" {
		t.Errorf("SlotXforms.String() = %q", got)
	}
	if got := Slot(42).String(); got != "Slot(42)" {
		t.Errorf("Slot(42).String() = %q", got)
	}
}

func TestEvenGrid(t *testing.T) {
	tests := []struct {
		n, block, want [2]int
	}{
		{[2]int{1, 1}, [2]int{16, 16}, [2]int{16, 16}},
		{[2]int{32, 17}, [2]int{32, 8}, [2]int{32, 24}},
		{[2]int{0, 5}, [2]int{16, 16}, [2]int{0, 16}},
	}
	for _, tt := range tests {
		if got := EvenGrid(tt.n, tt.block); got != tt.want {
			t.Errorf("EvenGrid(%v, %v) = %v, want %v", tt.n, tt.block, got, tt.want)
		}
	}
}

func TestNumberedSource(t *testing.T) {
	p := &Program{Source: "a\nb"}
	if got := p.NumberedSource(); !strings.Contains(got, "   2  b") {
		t.Errorf("NumberedSource() = %q", got)
	}
}
