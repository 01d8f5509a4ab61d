package filter

import "math"

// gaussianSupport is the support of the spatial Gaussian in filter units.
const gaussianSupport = 1.5

func gaussian(x float64) float64 {
	return math.Exp(-2*x*x) * math.Sqrt(2/math.Pi)
}

// Spatial is a square, separable spatial filter applied to a supersampled
// raster. Width has the parity of the supersample factor so the filter is
// centered on each output pixel.
type Spatial struct {
	Width  int
	Coefs  []float32 // Width*Width, row major, summing to 1
	Gutter int       // extra supersampled cells on each side of the raster
}

// NewSpatial builds the Gaussian spatial filter for radius output pixels at
// the given supersample factor.
//
// For radius <= 0 the filter is a box over one output pixel.
func NewSpatial(radius float64, supersample int) *Spatial {
	ss := max(supersample, 1)
	fw := 2 * gaussianSupport * float64(ss) * radius
	width := int(fw) + 1
	if (width^ss)&1 != 0 {
		width++
	}
	if width < ss {
		width = ss
	}

	adjust := 1.0
	if fw > 0 {
		adjust = gaussianSupport * float64(width) / fw
	}

	taps := make([]float64, width)
	for i := range taps {
		x := (float64(2*i+1)/float64(width) - 1) * adjust
		taps[i] = gaussian(x)
	}
	if radius <= 0 {
		for i := range taps {
			taps[i] = 1
		}
	}

	coefs := make([]float32, width*width)
	sum := 0.0
	for j, tj := range taps {
		for i, ti := range taps {
			sum += tj * ti
			coefs[j*width+i] = float32(tj * ti)
		}
	}
	if sum > 0 {
		inv := float32(1 / sum)
		for i := range coefs {
			coefs[i] *= inv
		}
	}
	return &Spatial{Width: width, Coefs: coefs, Gutter: (width - ss) / 2}
}

// SuperSize returns the supersampled raster size for an output of w x h
// pixels, including the gutter.
func (s *Spatial) SuperSize(w, h, supersample int) (int, int) {
	return w*supersample + 2*s.Gutter, h*supersample + 2*s.Gutter
}
