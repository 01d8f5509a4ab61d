package flame

// PaletteSize is the number of entries in a flame palette.
const PaletteSize = 256

// PaletteMode selects how the color coordinate indexes the palette.
type PaletteMode uint8

const (
	// PaletteStep picks the nearest lower entry.
	PaletteStep PaletteMode = iota
	// PaletteLinear blends the two adjacent entries.
	PaletteLinear
)

// String returns the mode name used in configuration files.
func (m PaletteMode) String() string {
	if m == PaletteLinear {
		return "linear"
	}
	return "step"
}

// Palette maps a color coordinate in [0,1] to an RGBA color.
type Palette struct {
	Mode    PaletteMode
	Entries [PaletteSize]RGBA
}

// NewPalette returns a palette interpolated linearly through stops,
// evenly spaced from 0 to 1. A single stop gives a flat palette.
func NewPalette(stops ...RGBA) *Palette {
	p := &Palette{}
	switch len(stops) {
	case 0:
		return p
	case 1:
		for i := range p.Entries {
			p.Entries[i] = stops[0]
		}
		return p
	}
	segs := float64(len(stops) - 1)
	for i := range p.Entries {
		t := float64(i) / (PaletteSize - 1) * segs
		k := int(t)
		if k >= len(stops)-1 {
			k = len(stops) - 2
		}
		p.Entries[i] = stops[k].Lerp(stops[k+1], t-float64(k))
	}
	return p
}

// Rainbow returns a fully saturated hue sweep.
func Rainbow() *Palette {
	p := &Palette{}
	for i := range p.Entries {
		p.Entries[i] = HSL(float64(i)/PaletteSize*360, 1, 0.5)
	}
	return p
}

// Lookup returns the color at coordinate c using the palette mode.
func (p *Palette) Lookup(c float64) RGBA {
	if c < 0 {
		c = 0
	}
	pos := c * PaletteSize
	i := int(pos)
	if i > PaletteSize-1 {
		i = PaletteSize - 1
	}
	if p.Mode == PaletteStep || i == PaletteSize-1 {
		return p.Entries[i]
	}
	return p.Entries[i].Lerp(p.Entries[i+1], pos-float64(i))
}

// Float32 returns the palette as a 256x1 RGBA float32 image.
func (p *Palette) Float32() []float32 {
	out := make([]float32, 0, PaletteSize*4)
	for _, e := range p.Entries {
		out = append(out, float32(e.R), float32(e.G), float32(e.B), float32(e.A))
	}
	return out
}
