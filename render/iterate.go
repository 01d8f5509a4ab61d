// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/internal/kernel"
)

// Stats describes one Iterate call.
type Stats struct {
	// Iterations counts accumulated iterations; fuse iterations are not
	// included.
	Iterations uint64
	Launches   int
	// PerDevice holds the launches each device ran.
	PerDevice []int
	Aborted   bool
	Elapsed   time.Duration
}

// Iterate runs at least iters iterations of f and adds them to the
// histogram. With fresh set every point starts over before its first
// launch, as at the start of a temporal sample.
//
// Launches always cover the full grid, so the iterations run are iters
// rounded up to whole launches, and at least one launch per device.
func (r *Renderer) Iterate(ctx context.Context, f *flame.Flame, iters uint64, fresh bool) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return Stats{}, err
	}
	if err := f.Validate(); err != nil {
		return Stats{}, err
	}
	r.abort.Store(false)
	snap := f.Clone()
	fr := newFrame(snap)
	if err := r.prepare(ctx, snap, fr); err != nil {
		return Stats{}, err
	}
	return r.iterate(ctx, snap, fr, iters, fresh)
}

func (r *Renderer) prepare(ctx context.Context, f *flame.Flame, fr frame) error {
	if err := r.build(f); err != nil {
		return err
	}
	return r.stage(ctx, f, fr)
}

// fuseFreq is the number of launches between fresh starts.
func (r *Renderer) fuseFreq() int {
	return max(1, r.opts.subBatch/r.opts.itersPerThread)
}

func (r *Renderer) iterate(ctx context.Context, f *flame.Flame, fr frame, iters uint64, fresh bool) (Stats, error) {
	start := time.Now()
	if iters == 0 {
		return Stats{PerDevice: make([]int, len(r.devs))}, nil
	}
	perLaunch := uint64(r.opts.threads() * r.opts.itersPerThread)
	launches := int((iters + perLaunch - 1) / perLaunch)
	launches = max(launches, len(r.devs))
	if fresh {
		for _, ds := range r.devs {
			ds.launches = 0
		}
	}

	var remaining, issued atomic.Int64
	remaining.Store(int64(launches))
	perDev := make([]int, len(r.devs))
	prog := newProgress(r.opts.progress, uint64(launches)*perLaunch, start)

	take := func() bool {
		for {
			n := remaining.Load()
			if n <= 0 {
				return false
			}
			if remaining.CompareAndSwap(n, n-1) {
				return true
			}
		}
	}
	run := func(ds *devState) error {
		for !r.abort.Load() && take() {
			if err := r.launch(ctx, ds, f, fr); err != nil {
				// The launch goes back to the devices still running.
				remaining.Add(1)
				return err
			}
			perDev[ds.index]++
			done := uint64(issued.Add(1)) * perLaunch
			if ds.index == 0 && !prog.update(done) {
				r.abort.Store(true)
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, ds := range r.devs[1:] {
		g.Go(func() error {
			if err := run(ds); err != nil {
				r.rep.Add(ds.dev.Name(), "iterate", err)
				flame.Logger().Warn("render: secondary device failed", "device", ds.dev.Name(), "err", err)
			}
			return nil
		})
	}
	perr := run(r.primary())
	if perr != nil {
		r.abort.Store(true)
	}
	_ = g.Wait()
	if perr == nil && remaining.Load() > 0 {
		// Launches returned by failed secondaries after the primary ran dry.
		perr = run(r.primary())
	}
	if perr != nil {
		return Stats{}, fmt.Errorf("render: iterate on %s: %w", r.primary().dev.Name(), perr)
	}

	if err := r.reduce(ctx, fr, perDev); err != nil {
		return Stats{}, err
	}

	st := Stats{PerDevice: perDev, Aborted: r.abort.Load(), Elapsed: time.Since(start)}
	for _, n := range perDev {
		st.Launches += n
	}
	st.Iterations = uint64(st.Launches) * perLaunch
	r.iters += st.Iterations
	prog.finish(st.Iterations)
	flame.Logger().Debug("render: iterated", "launches", st.Launches, "iterations", st.Iterations, "aborted", st.Aborted)
	return st, nil
}

// launch runs one full grid of the iteration program on ds.
func (r *Renderer) launch(ctx context.Context, ds *devState, f *flame.Flame, fr frame) error {
	fuse := ds.fuse || ds.launches%r.fuseFreq() == 0
	ip := gpudata.IterParams{
		ItersPerThread: uint32(r.opts.itersPerThread),
		FuseCount:      uint32(max(f.Fuse, 0)),
		XformCount:     uint32(len(f.Xforms)),
		HistW:          fr.cm.RasW,
		HistH:          fr.cm.RasH,
		StateStride:    uint32(fr.layout.StateStride),
	}
	if fuse {
		ip.Fuse = 1
	}
	if f.HasXaos() {
		ip.Xaos = 1
	}
	if err := ds.dev.WriteBuffer(bufIter, gpudata.Encode(ip)); err != nil {
		return err
	}
	if err := ds.dev.RunKernel(ctx, kernel.EntryIterate, r.opts.launchGrid(), [2]int{kernel.BlockX, kernel.BlockY}); err != nil {
		return err
	}
	ds.fuse = false
	ds.launches++
	return nil
}

// reduce adds the histogram of every secondary device that ran into the
// primary's and clears the secondary.
func (r *Renderer) reduce(ctx context.Context, fr frame, perDev []int) error {
	if len(r.devs) < 2 {
		return nil
	}
	p := r.primary().dev
	buckets := fr.buckets()
	size := buckets * bucketBytes
	buf := make([]byte, size)
	sp, grid := kernel.SumParams(buckets, false)
	if err := p.WriteBuffer(bufSumParams, gpudata.Encode(sp)); err != nil {
		return err
	}
	for i, name := range []string{bufSumParams, bufHist, bufScratch} {
		if err := p.SetArg(kernel.EntrySum, i, name); err != nil {
			return err
		}
	}
	summed := false
	for _, ds := range r.devs[1:] {
		if perDev[ds.index] == 0 {
			continue
		}
		if err := ds.dev.ReadBuffer(ctx, bufHist, buf); err != nil {
			return err
		}
		if err := zeroize(ctx, ds.dev, bufHist, size); err != nil {
			return err
		}
		if err := p.WriteBuffer(bufScratch, buf); err != nil {
			return err
		}
		if err := p.RunKernel(ctx, kernel.EntrySum, grid, [2]int{16, 16}); err != nil {
			return err
		}
		summed = true
	}
	if !summed {
		return nil
	}
	return zeroize(ctx, p, bufScratch, size)
}

// progress throttles the progress callback.
type progress struct {
	fn    ProgressFunc
	total uint64
	start time.Time

	lastDone uint64
	lastTime time.Time
}

func newProgress(fn ProgressFunc, total uint64, start time.Time) *progress {
	return &progress{fn: fn, total: total, start: start, lastTime: start}
}

// update reports done iterations when at least 10% more are done than at
// the last report, or 1% after a second. It returns false to abort.
func (p *progress) update(done uint64) bool {
	if p.fn == nil || p.total == 0 {
		return true
	}
	now := time.Now()
	delta := float64(done-p.lastDone) / float64(p.total)
	if delta < 0.1 && (now.Sub(p.lastTime) < time.Second || delta < 0.01) {
		return true
	}
	p.lastDone, p.lastTime = done, now
	return p.fn(Progress{Done: done, Total: p.total, Elapsed: now.Sub(p.start)})
}

// finish sends a last report when the final count was not reported.
func (p *progress) finish(done uint64) {
	if p.fn == nil || done == p.lastDone {
		return
	}
	p.lastDone = done
	p.fn(Progress{Done: done, Total: p.total, Elapsed: time.Since(p.start)})
}
