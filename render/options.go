// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"time"

	"github.com/gogpu/flame/internal/funcs"
)

// Progress is passed to the progress callback.
type Progress struct {
	// Done and Total count iterations of the current Iterate call.
	Done, Total uint64
	Elapsed     time.Duration
}

// Fraction returns Done/Total.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// ProgressFunc observes iteration progress. Returning false aborts the
// render.
type ProgressFunc func(Progress) bool

// Option configures a Renderer.
//
// Example:
//
//	r, err := render.New(nil,
//	    render.WithGrid(64, 2),
//	    render.WithChannels(4),
//	    render.WithTransparent(true),
//	)
type Option func(*options)

type options struct {
	grid           [2]int // work-groups per launch
	itersPerThread int
	subBatch       int
	lock           bool
	channels       int
	transparent    bool
	earlyClip      bool
	seed           uint64
	workers        int
	progress       ProgressFunc
	registry       *funcs.Registry
}

// Defaults of the launch geometry.
const (
	DefaultGridX          = 64
	DefaultGridY          = 2
	DefaultItersPerThread = 256
	// DefaultSubBatch is the number of iterations a CPU renderer runs per
	// point between fresh starts.
	DefaultSubBatch = 10240
)

func defaultOptions() options {
	return options{
		grid:           [2]int{DefaultGridX, DefaultGridY},
		itersPerThread: DefaultItersPerThread,
		subBatch:       DefaultSubBatch,
		channels:       4,
		seed:           1,
	}
}

// WithGrid sets the work-groups of one launch. Each work-group runs
// 32x8 threads.
func WithGrid(x, y int) Option {
	return func(o *options) {
		if x > 0 && y > 0 {
			o.grid = [2]int{x, y}
		}
	}
}

// WithItersPerThread sets the iterations each thread runs per launch.
func WithItersPerThread(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.itersPerThread = n
		}
	}
}

// WithSubBatch sets the iterations between fresh starts of a point.
func WithSubBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.subBatch = n
		}
	}
}

// WithLock selects atomic histogram accumulation.
func WithLock(lock bool) Option {
	return func(o *options) { o.lock = lock }
}

// WithChannels sets the output channels, 3 (RGB) or 4 (RGBA).
func WithChannels(n int) Option {
	return func(o *options) { o.channels = n }
}

// WithTransparent keeps alpha instead of compositing over the background.
func WithTransparent(t bool) Option {
	return func(o *options) { o.transparent = t }
}

// WithEarlyClip tone maps before the spatial filter instead of after.
func WithEarlyClip(e bool) Option {
	return func(o *options) { o.earlyClip = e }
}

// WithSeed sets the seed of the per-thread random generators.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithWorkers sets the goroutines of a host device. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithRegistry shares a function registry between renderers.
func WithRegistry(reg *funcs.Registry) Option {
	return func(o *options) { o.registry = reg }
}
