package flame

import (
	"fmt"
	"math"
)

// Projection is the set of 3D camera features a flame uses.
type Projection uint8

const (
	// ProjectionZ is set when any camera parameter is non-zero.
	ProjectionZ Projection = 1 << iota
	// ProjectionPitch is set when pitch or yaw is non-zero.
	ProjectionPitch
	// ProjectionYaw is set when yaw is non-zero.
	ProjectionYaw
	// ProjectionBlur is set when depth blur is non-zero.
	ProjectionBlur
)

// Flame is a complete fractal flame: transforms, palette, camera and output
// settings. The renderer treats it as read-only and snapshots it with Clone.
type Flame struct {
	Name string

	Xforms []*Xform `copier:"-"`
	Final  *Xform   `copier:"-"`

	Palette Palette

	// Output size in pixels.
	Width, Height int

	// Camera.
	CenterX, CenterY float64
	PixelsPerUnit    float64
	Zoom             float64
	Rotate           float64 // degrees

	// 3D projection.
	CamZPos        float64
	CamPerspective float64
	CamYaw         float64
	CamPitch       float64
	CamDepthBlur   float64

	Supersample     int
	Quality         float64
	TemporalSamples int

	// Tone mapping.
	Brightness     float64
	Gamma          float64
	GammaThreshold float64
	Vibrancy       float64
	HighlightPower float64
	Background     RGBA

	// SpatialFilterRadius is the Gaussian filter radius in output pixels.
	SpatialFilterRadius float64

	// Density estimation. A zero DEMaxRadius selects log scaling only.
	DEMinRadius float64
	DEMaxRadius float64
	DECurve     float64

	// Fuse is the number of iterations discarded after each fresh start.
	Fuse int
}

// New returns a flame of the given output size with default camera and tone
// settings and no transforms.
func New(width, height int) *Flame {
	return &Flame{
		Palette:             *Rainbow(),
		Width:               width,
		Height:              height,
		PixelsPerUnit:       float64(width) / 4,
		Supersample:         1,
		Quality:             50,
		TemporalSamples:     1,
		Brightness:          4,
		Gamma:               4,
		GammaThreshold:      0.01,
		Vibrancy:            1,
		HighlightPower:      1,
		Background:          Black,
		SpatialFilterRadius: 0.5,
		DECurve:             0.4,
		Fuse:                15,
	}
}

// Add appends transforms and returns f.
func (f *Flame) Add(xs ...*Xform) *Flame {
	f.Xforms = append(f.Xforms, xs...)
	return f
}

// AllXforms returns the transforms followed by the final transform, if any.
func (f *Flame) AllXforms() []*Xform {
	if f.Final == nil {
		return f.Xforms
	}
	all := make([]*Xform, 0, len(f.Xforms)+1)
	return append(append(all, f.Xforms...), f.Final)
}

// HasFinal reports whether a final transform is present.
func (f *Flame) HasFinal() bool { return f.Final != nil }

// HasXaos reports whether any transform carries a non-unit xaos entry.
func (f *Flame) HasXaos() bool {
	for _, x := range f.Xforms {
		for j := range f.Xforms {
			if x.XaosTo(j) != 1 {
				return true
			}
		}
	}
	return false
}

// Projection returns the camera feature bits.
func (f *Flame) Projection() Projection {
	var p Projection
	if f.CamZPos != 0 || f.CamPerspective != 0 || f.CamYaw != 0 || f.CamPitch != 0 || f.CamDepthBlur != 0 {
		p |= ProjectionZ
	}
	if f.CamPitch != 0 || f.CamYaw != 0 {
		p |= ProjectionPitch
	}
	if f.CamYaw != 0 {
		p |= ProjectionYaw
	}
	if f.CamDepthBlur != 0 {
		p |= ProjectionBlur
	}
	return p
}

// ScaledPixelsPerUnit returns PixelsPerUnit scaled by 2^Zoom.
func (f *Flame) ScaledPixelsPerUnit() float64 {
	return f.PixelsPerUnit * math.Pow(2, f.Zoom)
}

// TotalIterations returns the iterations needed to reach Quality samples
// per output pixel.
func (f *Flame) TotalIterations() uint64 {
	return uint64(math.Ceil(f.Quality * float64(f.Width) * float64(f.Height)))
}

// ItersPerRound returns the iterations of one temporal sample.
func (f *Flame) ItersPerRound() uint64 {
	n := max(f.TemporalSamples, 1)
	return (f.TotalIterations() + uint64(n) - 1) / uint64(n)
}

// Validate checks the flame for values the renderer cannot handle.
func (f *Flame) Validate() error {
	if len(f.Xforms) == 0 {
		return ErrNoXforms
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadSize, f.Width, f.Height)
	}
	if f.Supersample < 1 || f.Quality <= 0 || f.PixelsPerUnit <= 0 {
		return ErrBadQuality
	}
	sum := 0.0
	for i, x := range f.Xforms {
		if x.Weight < 0 || math.IsNaN(x.Weight) {
			return fmt.Errorf("%w: transform %d", ErrBadWeights, i)
		}
		sum += x.Weight
		if len(x.Xaos) > len(f.Xforms) {
			return fmt.Errorf("%w: transform %d has %d entries", ErrBadXaos, i, len(x.Xaos))
		}
		for _, v := range x.Xaos {
			if v < 0 {
				return fmt.Errorf("%w: transform %d has a negative entry", ErrBadXaos, i)
			}
		}
		if err := x.checkVariations(); err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
	}
	if sum <= 0 {
		return ErrBadWeights
	}
	if f.Final != nil {
		if err := f.Final.checkVariations(); err != nil {
			return fmt.Errorf("final transform: %w", err)
		}
	}
	return nil
}
