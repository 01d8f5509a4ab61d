package main

import (
	"image"
	"testing"
)

func TestBuiltinFlamesValid(t *testing.T) {
	for _, name := range builtinNames() {
		f, err := lookupFlame(name, 64, 48)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.Validate(); err != nil {
			t.Errorf("%s: Validate() = %v", name, err)
		}
		if f.Name != name {
			t.Errorf("Name = %q, want %q", f.Name, name)
		}
	}
	if _, err := lookupFlame("nope", 8, 8); err == nil {
		t.Error("lookupFlame(nope) succeeded")
	}
}

func TestRescale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	dst := rescale(src, 0.5)
	if b := dst.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
		t.Errorf("rescale bounds = %v, want 5x3", b)
	}
}
