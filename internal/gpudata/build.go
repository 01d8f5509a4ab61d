package gpudata

import (
	"math"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/filter"
)

// NewFlameData fills the camera record of f.
func NewFlameData(f *flame.Flame) FlameData {
	pitch := f.CamPitch
	yaw := -f.CamYaw
	sp, cp := math.Sincos(pitch)
	sy, cy := math.Sincos(yaw)

	// Column major: m[col*3+row].
	var m [9]Real
	m[0] = Real(cy)
	m[3] = Real(-sy)
	m[1] = Real(cp * sy)
	m[4] = Real(cp * cy)
	m[7] = Real(-sp)
	m[2] = Real(sp * sy)
	m[5] = Real(sp * cy)
	m[8] = Real(cp)

	return FlameData{
		CamMat:   m,
		CamZPos:  Real(f.CamZPos),
		Persp:    Real(f.CamPerspective),
		Yaw:      Real(f.CamYaw),
		Pitch:    Real(f.CamPitch),
		DOF:      Real(f.CamDepthBlur),
		BlurCoef: Real(0.1 * f.CamDepthBlur),
		PalSize:  flame.PaletteSize,
	}
}

// NewXformData fills the record of x.
func NewXformData(x *flame.Xform) XformData {
	sc, om := x.ColorCaches()
	d := XformData{
		A: Real(x.Affine.A), B: Real(x.Affine.B), C: Real(x.Affine.C),
		D: Real(x.Affine.D), E: Real(x.Affine.E), F: Real(x.Affine.F),
		PA: Real(x.Post.A), PB: Real(x.Post.B), PC: Real(x.Post.C),
		PD: Real(x.Post.D), PE: Real(x.Post.E), PF: Real(x.Post.F),
		Opacity:            Real(x.Opacity),
		VizOpacity:         Real(x.VizAdjusted()),
		ColorSpeedCache:    Real(sc),
		OneMinusColorCache: Real(om),
		DirectColor:        Real(x.DirectColor),
	}
	for i, v := range x.Ordered() {
		if i == MaxVars {
			break
		}
		d.VarWeights[i] = Real(v.Weight)
	}
	return d
}

// Xforms returns the records of every transform of f, the final one last.
func Xforms(f *flame.Flame) []XformData {
	all := f.AllXforms()
	out := make([]XformData, len(all))
	for i, x := range all {
		out[i] = NewXformData(x)
	}
	return out
}

// NewCoordMap fills the mapping from flame space onto the supersampled
// raster of f, including the spatial filter gutter.
func NewCoordMap(f *flame.Flame, sp *filter.Spatial) CoordMap {
	ss := f.Supersample
	rasW, rasH := sp.SuperSize(f.Width, f.Height, ss)
	ppu := f.ScaledPixelsPerUnit() * float64(ss)

	carW := float64(rasW) / ppu
	carH := float64(rasH) / ppu
	llx := f.CenterX - carW/2
	lly := f.CenterY - carH/2

	sin, cos := math.Sincos(-f.Rotate * math.Pi / 180)
	return CoordMap{
		CarLLX: Real(llx), CarLLY: Real(lly),
		CarURX: Real(llx + carW), CarURY: Real(lly + carH),
		PPU:    Real(ppu),
		RasLLX: Real(ppu * llx), RasLLY: Real(ppu * lly),
		RasW:   uint32(rasW), RasH: uint32(rasH),
		Rot00:  Real(cos), Rot01: Real(-sin),
		Rot10:  Real(sin), Rot11: Real(cos),
		CenterX: Real(f.CenterX), CenterY: Real(f.CenterY),
	}
}

// Raster maps a flame space point to its raster cell. It reports false
// when the point falls outside the raster. It is the host form of the
// mapping the iteration kernel performs.
func (c *CoordMap) Raster(x, y Real) (ix, iy uint32, ok bool) {
	if c.Rot00 != 1 || c.Rot01 != 0 {
		dx, dy := x-c.CenterX, y-c.CenterY
		x = c.Rot00*dx + c.Rot01*dy + c.CenterX
		y = c.Rot10*dx + c.Rot11*dy + c.CenterY
	}
	if x < c.CarLLX || x >= c.CarURX || y < c.CarLLY || y >= c.CarURY {
		return 0, 0, false
	}
	fx := c.PPU*x - c.RasLLX
	fy := c.PPU*y - c.RasLLY
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	ix, iy = uint32(fx), uint32(fy)
	if ix >= c.RasW || iy >= c.RasH {
		return 0, 0, false
	}
	return ix, iy, true
}

// Distribution builds the transform selection table of f. Block 0 selects
// by weight; when xaos is present block j+1 selects the transform following
// transform j. Each block has Grain entries.
func Distribution(f *flame.Flame) []uint32 {
	n := len(f.Xforms)
	blocks := 1
	if f.HasXaos() {
		blocks += n
	}
	out := make([]uint32, blocks*Grain)
	weights := make([]float64, n)
	for i, x := range f.Xforms {
		weights[i] = x.Weight
	}
	fillBlock(out[:Grain], weights)

	for j := 1; j < blocks; j++ {
		prev := f.Xforms[j-1]
		total := 0.0
		for i, x := range f.Xforms {
			weights[i] = x.Weight * prev.XaosTo(i)
			total += weights[i]
		}
		block := out[j*Grain : (j+1)*Grain]
		if total <= 0 {
			// No way out of transform j-1: fall back to plain weights.
			copy(block, out[:Grain])
			continue
		}
		fillBlock(block, weights)
	}
	return out
}

func fillBlock(dst []uint32, weights []float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return
	}
	per := total / float64(len(dst))
	j := 0
	limit := weights[0]
	for i := range dst {
		t := (float64(i) + 0.5) * per
		for t >= limit && j < len(weights)-1 {
			j++
			limit += weights[j]
		}
		dst[i] = uint32(j)
	}
}

// DensityConstants returns the log scaling constants k1 and k2 for f after
// iters iterations.
func DensityConstants(f *flame.Flame, iters uint64) (k1, k2 Real) {
	ss := float64(f.Supersample)
	ppu := f.ScaledPixelsPerUnit()
	area := float64(f.Width) * float64(f.Height) / (ppu * ppu)
	quality := float64(iters) / (float64(f.Width) * float64(f.Height))
	k1 = Real(f.Brightness * 268 / 256)
	if iters == 0 || area == 0 {
		return k1, 0
	}
	k2 = Real(ss * ss / (area * quality))
	return k1, k2
}

// NewDensityParams fills the log scaling and DE constants.
func NewDensityParams(f *flame.Flame, cm CoordMap, iters uint64) DensityParams {
	k1, k2 := DensityConstants(f, iters)
	de := DEFilter(f)
	return DensityParams{
		MinRad:      Real(f.DEMinRadius),
		MaxRad:      Real(f.DEMaxRadius),
		Curve:       Real(f.DECurve),
		Supersample: Real(f.Supersample),
		K1:          k1,
		K2:          k2,
		Width:       cm.RasW,
		Height:      cm.RasH,
		HalfWidth:   uint32(de.HalfWidth()),
		Stride:      1,
	}
}

// DEFilter returns the DE filter of f.
func DEFilter(f *flame.Flame) filter.DE {
	return filter.DE{
		MinRadius:   f.DEMinRadius,
		MaxRadius:   f.DEMaxRadius,
		Curve:       f.DECurve,
		Supersample: f.Supersample,
	}
}

// NewFinalParams fills the tone mapping and output constants.
func NewFinalParams(f *flame.Flame, cm CoordMap, sp *filter.Spatial) FinalParams {
	return FinalParams{
		InvGamma:    Real(1 / f.Gamma),
		LinRange:    Real(f.GammaThreshold),
		Vibrancy:    Real(f.Vibrancy),
		HighPow:     Real(f.HighlightPower),
		BgR:         Real(f.Background.R),
		BgG:         Real(f.Background.G),
		BgB:         Real(f.Background.B),
		SuperW:      cm.RasW,
		SuperH:      cm.RasH,
		OutW:        uint32(f.Width),
		OutH:        uint32(f.Height),
		Supersample: uint32(f.Supersample),
		FilterWidth: uint32(sp.Width),
	}
}
