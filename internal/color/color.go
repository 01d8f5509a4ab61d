// Package color provides the float32 color math shared by the host kernels
// and image output: tone mapping of accumulated histogram buckets and
// conversion to 8-bit channels.
package color

// ColorF32 is a color with float32 components. Histogram buckets use it
// unnormalized; tone-mapped colors are in [0,1].
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 is a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// Scale returns c with every channel multiplied by s.
func (c ColorF32) Scale(s float32) ColorF32 {
	return ColorF32{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Add returns the channelwise sum of c and o.
func (c ColorF32) Add(o ColorF32) ColorF32 {
	return ColorF32{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}
