package flame

import (
	"image/color"
	"math"
	"testing"
)

func TestRGBA_Color(t *testing.T) {
	tests := []struct {
		name string
		c    RGBA
		want color.NRGBA
	}{
		{"black", Black, color.NRGBA{0, 0, 0, 255}},
		{"white", White, color.NRGBA{255, 255, 255, 255}},
		{"transparent", Transparent, color.NRGBA{}},
		{"clamped", RGBA{2, -1, 0.5, 1}, color.NRGBA{255, 0, 127, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Color(); got != tt.want {
				t.Errorf("Color() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#fff", RGBA{1, 1, 1, 1}},
		{"ff0000", RGBA{1, 0, 0, 1}},
		{"00ff0080", RGBA{0, 1, 0, 128.0 / 255}},
		{"bogus", RGBA{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := Hex(tt.in); got != tt.want {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHSL(t *testing.T) {
	got := HSL(120, 1, 0.5)
	if math.Abs(got.G-1) > 1e-9 || got.R > 1e-9 || got.B > 1e-9 {
		t.Errorf("HSL(120, 1, 0.5) = %v, want pure green", got)
	}
	if got := HSL(-240, 1, 0.5); math.Abs(got.G-1) > 1e-9 {
		t.Errorf("HSL(-240, 1, 0.5) = %v, want pure green", got)
	}
}

func TestRGBA_Lerp(t *testing.T) {
	got := Black.Lerp(White, 0.25)
	if got.R != 0.25 || got.A != 1 {
		t.Errorf("Lerp = %v, want R=0.25 A=1", got)
	}
}
