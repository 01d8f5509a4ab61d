// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/flame/internal/filter"
	"github.com/gogpu/flame/internal/gpudata"
)

//go:embed shaders/log_scale.wgsl
var shaderLogScale string

//go:embed shaders/gaussian_de.wgsl
var shaderGaussianDE string

// Entry points of the density programs.
const (
	EntryLogScale   = "log_scale"
	EntryGaussianDE = "gaussian_de"
)

// Density program bindings: 0 DensityParams, 1 histogram, 2 accumulator.
var densityBindings = []Binding{
	{Name: "params", Kind: BindUniform},
	{Name: "hist", Kind: BindStorageRead},
	{Name: "accum", Kind: BindStorage},
}

// LogScale returns the program writing the log scaled histogram into the
// accumulator.
func LogScale() *Program {
	b := NewBuilder()
	b.Add(SlotStructs, wgslDensityParams)
	b.Add(SlotEntry, shaderLogScale)
	return &Program{
		Entry:     EntryLogScale,
		Source:    b.String(),
		Bindings:  densityBindings,
		Workgroup: [2]int{filter.TileSize, filter.TileSize},
		Host:      hostLogScale,
	}
}

// GaussianDE returns the density estimation program. It adds into the
// accumulator, which must be cleared first, and runs once per filter.Pass.
func GaussianDE() *Program {
	b := NewBuilder()
	b.Add(SlotStructs, wgslDensityParams)
	b.Add(SlotEntry, shaderGaussianDE)
	return &Program{
		Entry:     EntryGaussianDE,
		Source:    b.String(),
		Bindings:  densityBindings,
		Workgroup: [2]int{filter.TileSize, filter.TileSize},
		Host:      hostGaussianDE,
	}
}

// PassGrid returns the launch grid of one DE pass.
func PassGrid(p filter.Pass) [2]int {
	return [2]int{p.TilesX * filter.TileSize, p.TilesY * filter.TileSize}
}

func densityArgs(l *Launch) (gpudata.DensityParams, []uint32, []uint32, error) {
	var dp gpudata.DensityParams
	if err := l.uniform(0, &dp); err != nil {
		return dp, nil, nil, err
	}
	hist, err := l.words(1)
	if err != nil {
		return dp, nil, nil, err
	}
	accum, err := l.words(2)
	if err != nil {
		return dp, nil, nil, err
	}
	n := int(dp.Width) * int(dp.Height) * 4
	if len(hist) < n || len(accum) < n {
		return dp, nil, nil, fmt.Errorf("kernel: density: %dx%d raster exceeds buffers", dp.Width, dp.Height)
	}
	return dp, hist, accum, nil
}

func hostLogScale(l *Launch) error {
	dp, hist, accum, err := densityArgs(l)
	if err != nil {
		return err
	}
	w, h := int(dp.Width), int(dp.Height)
	for i := range w * h {
		b := loadVec4(hist, i)
		if b[3] <= 0 {
			storeVec4(accum, i, [4]float32{})
			continue
		}
		ls := dp.K1 * math32.Log(1+b[3]*dp.K2) / b[3]
		storeVec4(accum, i, [4]float32{b[0] * ls, b[1] * ls, b[2] * ls, b[3] * ls})
	}
	return nil
}

func deWeight(d2, r float32) float32 {
	if r < 1e-6 {
		if d2 == 0 {
			return 1
		}
		return 0
	}
	r2 := r * r
	if d2 > r2 {
		return 0
	}
	return math32.Exp(-2 * d2 / r2)
}

func deNorm(r float32, hw int) float32 {
	var sum float32
	for dy := -hw; dy <= hw; dy++ {
		for dx := -hw; dx <= hw; dx++ {
			sum += deWeight(float32(dx*dx+dy*dy), r)
		}
	}
	return max(sum, 1e-12)
}

// hostGaussianDE filters the tiles of one pass. Tiles run concurrently;
// the pass plan keeps their write regions apart.
func hostGaussianDE(l *Launch) error {
	dp, hist, accum, err := densityArgs(l)
	if err != nil {
		return err
	}
	w, h := int(dp.Width), int(dp.Height)
	hw := int(dp.HalfWidth)
	l.ForGroups(func(gx, gy int) {
		x0 := (int(dp.PassX) + gx*int(dp.Stride)) * filter.TileSize
		y0 := (int(dp.PassY) + gy*int(dp.Stride)) * filter.TileSize
		for y := y0; y < min(y0+filter.TileSize, h); y++ {
			for x := x0; x < min(x0+filter.TileSize, w); x++ {
				b := loadVec4(hist, y*w+x)
				if b[3] <= 0 {
					continue
				}
				r := min(max(dp.MinRad, dp.MaxRad/math32.Pow(b[3]+1, dp.Curve))*dp.Supersample, float32(hw))
				scale := dp.K1 * math32.Log(1+b[3]*dp.K2) / b[3] / deNorm(r, hw)
				for dy := -hw; dy <= hw; dy++ {
					ny := y + dy
					if ny < 0 || ny >= h {
						continue
					}
					for dx := -hw; dx <= hw; dx++ {
						nx := x + dx
						if nx < 0 || nx >= w {
							continue
						}
						wgt := deWeight(float32(dx*dx+dy*dy), r)
						if wgt <= 0 {
							continue
						}
						i := ny*w + nx
						a := loadVec4(accum, i)
						k := scale * wgt
						storeVec4(accum, i, [4]float32{a[0] + b[0]*k, a[1] + b[1]*k, a[2] + b[2]*k, a[3] + b[3]*k})
					}
				}
			}
		}
	})
	return nil
}
