// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"context"
	"math/rand/v2"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/device"
	"github.com/gogpu/flame/internal/filter"
	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/internal/kernel"
)

// Device resource names. The iteration program's bindings use the same
// names.
const (
	bufFlame       = "flame"
	bufXforms      = "xforms"
	bufParams      = "params"
	bufDist        = "dist"
	bufCoordMap    = "cmap"
	imgPalette     = "palette"
	bufIter        = "iter"
	bufSeeds       = "seeds"
	bufPoints      = "points"
	bufState       = "state"
	bufHist        = "hist"
	bufScratch     = "hist_scratch"
	bufAccum       = "accum"
	bufCoefs       = "coefs"
	bufOut         = "out"
	bufZeroParams  = "zero_params"
	bufSumParams   = "sum_params"
	bufDensity     = "density_params"
	bufFinalParams = "final_params"
)

// bucketBytes is the size of one histogram bucket, four float32 values.
const bucketBytes = 16

// frame holds the per-flame values shared by staging and finalization.
type frame struct {
	sp     *filter.Spatial
	cm     gpudata.CoordMap
	layout kernel.ParamLayout
}

func newFrame(f *flame.Flame) frame {
	sp := filter.NewSpatial(f.SpatialFilterRadius, f.Supersample)
	return frame{
		sp:     sp,
		cm:     gpudata.NewCoordMap(f, sp),
		layout: kernel.Pack(f),
	}
}

func (fr frame) buckets() int { return int(fr.cm.RasW) * int(fr.cm.RasH) }

// atLeastWord pads b to one word so empty tables still bind.
func atLeastWord(b []byte) []byte {
	if len(b) < 4 {
		return append(b, make([]byte, 4-len(b))...)
	}
	return b
}

// stage uploads the inputs of f to every device. Buffers whose contents
// did not change are not written again.
func (r *Renderer) stage(ctx context.Context, f *flame.Flame, fr frame) error {
	inputs := []struct {
		name string
		data []byte
	}{
		{bufFlame, gpudata.Encode(gpudata.NewFlameData(f))},
		{bufXforms, gpudata.Encode(gpudata.Xforms(f))},
		{bufParams, atLeastWord(gpudata.Encode(kernel.Values(f)))},
		{bufDist, gpudata.Encode(gpudata.Distribution(f))},
		{bufCoordMap, gpudata.Encode(fr.cm)},
	}
	pal := f.Palette.Float32()
	palBytes := gpudata.Encode(pal)

	w, h := int(fr.cm.RasW), int(fr.cm.RasH)
	resized := w != r.histW || h != r.histH
	if resized {
		flame.Logger().Debug("render: histogram resized", "w", w, "h", h)
		r.histW, r.histH = w, h
		r.iters = 0
	}
	histBytes := fr.buckets() * bucketBytes
	threads := r.opts.threads()

	for _, ds := range r.devs {
		d := ds.dev
		for _, in := range inputs {
			if bytes.Equal(ds.staged[in.name], in.data) {
				continue
			}
			if err := d.WriteBuffer(in.name, in.data); err != nil {
				return err
			}
			ds.staged[in.name] = in.data
		}
		if !bytes.Equal(ds.staged[imgPalette], palBytes) {
			if err := d.AddImage(imgPalette, flame.PaletteSize, 1, pal); err != nil {
				return err
			}
			ds.staged[imgPalette] = palBytes
		}

		if n, _ := d.BufferSize(bufSeeds); n != threads*8 {
			src := rand.New(rand.NewPCG(r.opts.seed, uint64(ds.index)))
			if err := d.WriteBuffer(bufSeeds, gpudata.Encode(kernel.Seeds(src, threads))); err != nil {
				return err
			}
			ds.fuse = true
		}
		changed, err := ensureBuffer(d, bufPoints, threads*gpudata.Size(gpudata.Point{}))
		if err != nil {
			return err
		}
		ds.fuse = ds.fuse || changed
		changed, err = ensureBuffer(d, bufState, max(4, threads*fr.layout.StateStride*4))
		if err != nil {
			return err
		}
		ds.fuse = ds.fuse || changed
		changed, err = ensureBuffer(d, bufHist, histBytes)
		if err != nil {
			return err
		}
		// A kept buffer of the same size still holds the old raster.
		if resized && !changed {
			if err := zeroize(ctx, d, bufHist, histBytes); err != nil {
				return err
			}
		}
	}

	p := r.primary().dev
	if _, err := ensureBuffer(p, bufAccum, histBytes); err != nil {
		return err
	}
	if len(r.devs) > 1 {
		if _, err := ensureBuffer(p, bufScratch, histBytes); err != nil {
			return err
		}
	}
	return nil
}

// ensureBuffer gives d a buffer of size bytes and reports whether it was
// created or resized.
func ensureBuffer(d *device.Device, name string, size int) (bool, error) {
	if n, ok := d.BufferSize(name); ok && n == size {
		return false, nil
	}
	return true, d.AddBuffer(name, size)
}

// zeroize clears the first size bytes of a buffer on d.
func zeroize(ctx context.Context, d *device.Device, name string, size int) error {
	zp, grid := kernel.ZeroizeParams(size, 1)
	if err := d.WriteBuffer(bufZeroParams, gpudata.Encode(zp)); err != nil {
		return err
	}
	if err := d.SetArg(kernel.EntryZeroize, 0, bufZeroParams); err != nil {
		return err
	}
	if err := d.SetArg(kernel.EntryZeroize, 1, name); err != nil {
		return err
	}
	return d.RunKernel(ctx, kernel.EntryZeroize, grid, [2]int{16, 16})
}
