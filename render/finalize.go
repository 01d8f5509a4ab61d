// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/color"
	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/internal/kernel"
)

var tileBlock = [2]int{16, 16}

// Result is a finished render.
type Result struct {
	Image   *image.NRGBA
	Stats   Stats
	Elapsed time.Duration
}

// Render resets the histogram, iterates f for its full quality in
// TemporalSamples rounds and finalizes the image. An aborted render still
// returns the image of the iterations done so far, with Stats.Aborted set.
func (r *Renderer) Render(ctx context.Context, f *flame.Flame) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	r.abort.Store(false)
	snap := f.Clone()
	fr := newFrame(snap)
	if err := r.prepare(ctx, snap, fr); err != nil {
		return nil, err
	}
	if err := r.resetHistograms(ctx); err != nil {
		return nil, err
	}

	res := &Result{Stats: Stats{PerDevice: make([]int, len(r.devs))}}
	rounds := max(snap.TemporalSamples, 1)
	perRound := snap.ItersPerRound()
	for i := 0; i < rounds && !r.abort.Load(); i++ {
		st, err := r.iterate(ctx, snap, fr, perRound, true)
		if err != nil {
			return nil, err
		}
		res.Stats.add(st)
	}
	res.Stats.Aborted = r.abort.Load()
	res.Stats.Elapsed = time.Since(start)

	img, err := r.finalize(ctx, snap, fr)
	if err != nil {
		return nil, err
	}
	res.Image = img
	res.Elapsed = time.Since(start)
	flame.Logger().Info("render: finished",
		"name", snap.Name, "iterations", res.Stats.Iterations, "elapsed", res.Elapsed)
	return res, nil
}

func (s *Stats) add(o Stats) {
	s.Iterations += o.Iterations
	s.Launches += o.Launches
	for i, n := range o.PerDevice {
		s.PerDevice[i] += n
	}
	s.Aborted = s.Aborted || o.Aborted
}

// Finalize filters and tone maps the accumulated histogram of f into an
// image. f must have the size and camera it was iterated with.
func (r *Renderer) Finalize(ctx context.Context, f *flame.Flame) (*image.NRGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	snap := f.Clone()
	fr := newFrame(snap)
	if int(fr.cm.RasW) != r.histW || int(fr.cm.RasH) != r.histH || r.sig == nil {
		return nil, fmt.Errorf("render: finalize: flame was not iterated at %dx%d", fr.cm.RasW, fr.cm.RasH)
	}
	return r.finalize(ctx, snap, fr)
}

func (r *Renderer) finalize(ctx context.Context, f *flame.Flame, fr frame) (*image.NRGBA, error) {
	d := r.primary().dev
	w, h := int(fr.cm.RasW), int(fr.cm.RasH)
	raster := kernel.EvenGrid([2]int{w, h}, tileBlock)

	// Density: histogram to accumulator.
	dp := gpudata.NewDensityParams(f, fr.cm, r.iters)
	de := gpudata.DEFilter(f)
	entry := kernel.EntryLogScale
	if de.Enabled() {
		entry = kernel.EntryGaussianDE
	}
	for i, name := range []string{bufDensity, bufHist, bufAccum} {
		if err := d.SetArg(entry, i, name); err != nil {
			return nil, err
		}
	}
	if de.Enabled() {
		if err := zeroize(ctx, d, bufAccum, fr.buckets()*bucketBytes); err != nil {
			return nil, err
		}
		passes := de.Plan(w, h)
		for _, p := range passes {
			dp.PassX, dp.PassY, dp.Stride = uint32(p.X), uint32(p.Y), uint32(p.Stride)
			if err := d.WriteBuffer(bufDensity, gpudata.Encode(dp)); err != nil {
				return nil, err
			}
			if err := d.RunKernel(ctx, entry, kernel.PassGrid(p), tileBlock); err != nil {
				return nil, err
			}
		}
		flame.Logger().Debug("render: density estimation", "passes", len(passes), "half_width", dp.HalfWidth)
	} else {
		if err := d.WriteBuffer(bufDensity, gpudata.Encode(dp)); err != nil {
			return nil, err
		}
		if err := d.RunKernel(ctx, entry, raster, tileBlock); err != nil {
			return nil, err
		}
	}

	fp := gpudata.NewFinalParams(f, fr.cm, fr.sp)
	if err := d.WriteBuffer(bufFinalParams, gpudata.Encode(fp)); err != nil {
		return nil, err
	}
	if r.opts.earlyClip {
		if err := r.gammaProgram(); err != nil {
			return nil, err
		}
		for i, name := range []string{bufFinalParams, bufAccum} {
			if err := d.SetArg(kernel.EntryGamma, i, name); err != nil {
				return nil, err
			}
		}
		if err := d.RunKernel(ctx, kernel.EntryGamma, raster, tileBlock); err != nil {
			return nil, err
		}
	}

	prog, err := r.finalProgram()
	if err != nil {
		return nil, err
	}
	ch := r.opts.channels
	if err := d.WriteBuffer(bufCoefs, gpudata.Encode(fr.sp.Coefs)); err != nil {
		return nil, err
	}
	outBytes := f.Width * f.Height * ch * 4
	if _, err := ensureBuffer(d, bufOut, outBytes); err != nil {
		return nil, err
	}
	for i, name := range []string{bufFinalParams, bufAccum, bufCoefs, bufOut} {
		if err := d.SetArg(prog.Entry, i, name); err != nil {
			return nil, err
		}
	}
	if err := d.RunKernel(ctx, prog.Entry, kernel.EvenGrid([2]int{f.Width, f.Height}, tileBlock), tileBlock); err != nil {
		return nil, err
	}

	raw := make([]byte, outBytes)
	if err := d.ReadBuffer(ctx, bufOut, raw); err != nil {
		return nil, err
	}
	vals := make([]float32, f.Width*f.Height*ch)
	if err := gpudata.Decode(raw, vals); err != nil {
		return nil, err
	}
	return toNRGBA(vals, f.Width, f.Height, ch), nil
}

// toNRGBA converts straight alpha float pixels to an 8-bit image. Three
// channel pixels are opaque.
func toNRGBA(vals []float32, w, h, ch int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range w * h {
		c := color.ColorF32{R: vals[i*ch], G: vals[i*ch+1], B: vals[i*ch+2], A: 1}
		if ch == 4 {
			c.A = vals[i*ch+3]
		}
		u := color.F32ToU8(c)
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = u.R, u.G, u.B, u.A
	}
	return img
}

// Histogram returns the raw histogram of device i, four floats per bucket
// of the supersampled raster. After Iterate only the primary's holds
// samples.
func (r *Renderer) Histogram(ctx context.Context, i int) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(r.devs) {
		return nil, fmt.Errorf("%w: %d", ErrBadDevice, i)
	}
	n := r.histW * r.histH * 4
	if n == 0 {
		return nil, nil
	}
	raw := make([]byte, n*4)
	if err := r.devs[i].dev.ReadBuffer(ctx, bufHist, raw); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	if err := gpudata.Decode(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetHistograms clears the histogram of every device.
func (r *Renderer) ResetHistograms(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	return r.resetHistograms(ctx)
}

func (r *Renderer) resetHistograms(ctx context.Context) error {
	size := r.histW * r.histH * bucketBytes
	r.iters = 0
	if size == 0 || r.sig == nil {
		return nil
	}
	for _, ds := range r.devs {
		if err := zeroize(ctx, ds.dev, bufHist, size); err != nil {
			return err
		}
	}
	return nil
}
