package color

import "github.com/chewxy/math32"

// F32ToU8 converts ColorF32 to ColorU8.
// Each float32 component [0,1] is mapped to uint8 [0,255] with rounding.
func F32ToU8(c ColorF32) ColorU8 {
	return ColorU8{
		R: clampAndRound(c.R),
		G: clampAndRound(c.G),
		B: clampAndRound(c.B),
		A: clampAndRound(c.A),
	}
}

// clampAndRound clamps a float32 to [0,1] and converts to uint8 with rounding.
func clampAndRound(v float32) uint8 {
	if v <= 0 || math32.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// RGBToHSV converts rgb in [0,1] to hue [0,6), saturation and value.
func RGBToHSV(r, g, b float32) (h, s, v float32) {
	mx := max(r, g, b)
	mn := min(r, g, b)
	v = mx
	if mx == 0 {
		return 0, 0, v
	}
	delta := mx - mn
	s = delta / mx
	if s == 0 {
		return 0, 0, v
	}
	rc := (mx - r) / delta
	gc := (mx - g) / delta
	bc := (mx - b) / delta
	switch {
	case r == mx:
		h = bc - gc
	case g == mx:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	if h < 0 {
		h += 6
	}
	return h, s, v
}

// HSVToRGB is the inverse of RGBToHSV.
func HSVToRGB(h, s, v float32) (r, g, b float32) {
	for h >= 6 {
		h -= 6
	}
	for h < 0 {
		h += 6
	}
	j := math32.Floor(h)
	f := h - j
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(j) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
