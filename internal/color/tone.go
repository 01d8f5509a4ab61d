package color

import "github.com/chewxy/math32"

// Tone holds the per-flame constants of gamma correction.
type Tone struct {
	// InvGamma is 1/gamma.
	InvGamma float32
	// LinRange is the density below which gamma blends into a linear ramp.
	LinRange    float32
	Vibrancy    float32
	HighPow     float32
	Background  ColorF32
	Transparent bool
}

// CalcAlpha maps a bucket density through the gamma curve with a linear
// segment below linRange.
func CalcAlpha(density, invGamma, linRange float32) float32 {
	if density <= 0 {
		return 0
	}
	if density < linRange {
		funcval := math32.Pow(linRange, invGamma)
		frac := density / linRange
		return (1-frac)*density*(funcval/linRange) + frac*math32.Pow(density, invGamma)
	}
	return math32.Pow(density, invGamma)
}

// CalcNewRGB scales c by ls. When a channel would exceed 1 and highPow is
// non-negative, saturation is reduced instead of letting the hue shift.
func CalcNewRGB(c ColorF32, ls, highPow float32) (r, g, b float32) {
	if ls == 0 || (c.R == 0 && c.G == 0 && c.B == 0) {
		return 0, 0, 0
	}
	maxc := max(c.R, c.G, c.B)
	maxa := ls * maxc
	newls := 1 / maxc
	if maxa > 1 && highPow >= 0 {
		lsratio := math32.Pow(newls/ls, highPow)
		h, s, v := RGBToHSV(newls*c.R, newls*c.G, newls*c.B)
		return HSVToRGB(h, s*lsratio, v)
	}
	adj := min(-highPow, 1)
	if maxa <= 1 {
		adj = 1
	}
	k := (1-adj)*newls + adj*ls
	return k * c.R, k * c.G, k * c.B
}

// Apply tone maps one accumulated bucket. The result has straight alpha;
// opaque output is composited over the background.
func (t Tone) Apply(c ColorF32) ColorF32 {
	alpha := CalcAlpha(c.A, t.InvGamma, t.LinRange)
	var ls float32
	if alpha > 0 {
		ls = t.Vibrancy * alpha / c.A
		alpha = min(max(alpha, 0), 1)
	}
	r, g, b := CalcNewRGB(c, ls, t.HighPow)
	out := [3]float32{r, g, b}
	in := [3]float32{c.R, c.G, c.B}
	bg := [3]float32{t.Background.R, t.Background.G, t.Background.B}
	for i := range out {
		if t.Vibrancy < 1 {
			out[i] += (1 - t.Vibrancy) * math32.Pow(math32.Abs(in[i]), t.InvGamma)
		}
		if !t.Transparent {
			out[i] += (1 - alpha) * bg[i]
		}
		out[i] = min(max(out[i], 0), 1)
	}
	if !t.Transparent {
		alpha = 1
	}
	return ColorF32{out[0], out[1], out[2], alpha}
}
