// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/cache"
	"github.com/gogpu/flame/internal/device"
	"github.com/gogpu/flame/internal/funcs"
	"github.com/gogpu/flame/internal/kernel"
)

// Errors returned by the renderer.
var (
	// ErrNoDevices is returned by New when no selected device could be
	// opened.
	ErrNoDevices = errors.New("render: no usable device")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("render: renderer closed")

	// ErrBadDevice is returned for a device index out of range.
	ErrBadDevice = errors.New("render: no such device")
)

// Renderer iterates flames on one or more compute devices and turns the
// accumulated histogram into an image.
//
// The first device is primary: it holds the merged histogram and runs the
// density, gamma and final accumulation programs. Secondary devices only
// iterate; their histograms are added into the primary's after every
// Iterate call.
//
// A Renderer is safe for concurrent use; calls are serialized, except Abort
// which may be called at any time.
type Renderer struct {
	mu sync.Mutex

	opts options
	gen  *kernel.Generator
	devs []*devState
	rep  device.Report

	// sig is the signature the iteration programs were built for. nil
	// forces a build.
	sig *kernel.Signature

	finals *cache.Cache[string, *kernel.Program]
	gamma  int // transparency of the built gamma program, -1 for none

	histW, histH int
	iters        uint64

	abort  atomic.Bool
	closed bool
}

// devState is the renderer's view of one device.
type devState struct {
	dev   *device.Device
	index int

	// staged holds the bytes last written to each input buffer.
	staged map[string][]byte

	// fuse makes the next launch start fresh points.
	fuse     bool
	launches int
}

// New opens the selected devices and returns a renderer using them. A nil
// selection uses DefaultSelection. Devices that fail to open are skipped
// and noted in the report; New fails only when none opens.
func New(sel []Selection, opts ...Option) (*Renderer, error) {
	r, err := newRenderer(opts)
	if err != nil {
		return nil, err
	}
	if len(sel) == 0 {
		sel = []Selection{DefaultSelection()}
	}
	for _, s := range sel {
		d, err := device.Open(s.Platform, s.Device, device.WithWorkers(r.opts.workers))
		if err != nil {
			name := fmt.Sprintf("%s/%d", device.PlatformName(s.Platform), s.Device)
			r.rep.Add(name, "open", err)
			flame.Logger().Warn("render: device skipped", "device", name, "err", err)
			continue
		}
		r.addDevice(d)
	}
	if len(r.devs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoDevices, r.rep.Err())
	}
	flame.Logger().Info("render: devices opened", "primary", r.devs[0].dev.Name(), "count", len(r.devs))
	return r, nil
}

// NewShared returns a renderer iterating on the device of a host
// application. The device is not destroyed by Close.
func NewShared(provider DeviceHandle, opts ...Option) (*Renderer, error) {
	r, err := newRenderer(opts)
	if err != nil {
		return nil, err
	}
	d, err := device.OpenShared(provider)
	if err != nil {
		return nil, err
	}
	r.addDevice(d)
	flame.Logger().Info("render: shared device", "device", d.Name())
	return r, nil
}

func newRenderer(opts []Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.variant().Validate(); err != nil {
		return nil, err
	}
	reg := o.registry
	if reg == nil {
		reg = funcs.New()
	}
	return &Renderer{
		opts:   o,
		gen:    kernel.NewGenerator(reg),
		finals: cache.New[string, *kernel.Program](0, nil),
		gamma:  -1,
	}, nil
}

func (r *Renderer) addDevice(d *device.Device) {
	r.devs = append(r.devs, &devState{
		dev:    d,
		index:  len(r.devs),
		staged: make(map[string][]byte),
		fuse:   true,
	})
}

func (o options) variant() kernel.FinalVariant {
	return kernel.FinalVariant{
		Channels:    o.channels,
		Transparent: o.transparent,
		EarlyClip:   o.earlyClip,
	}
}

// threads returns the threads of one launch.
func (o options) threads() int {
	return o.grid[0] * kernel.BlockX * o.grid[1] * kernel.BlockY
}

// launchGrid returns the launch grid in threads.
func (o options) launchGrid() [2]int {
	return [2]int{o.grid[0] * kernel.BlockX, o.grid[1] * kernel.BlockY}
}

func (r *Renderer) primary() *devState { return r.devs[0] }

// NumDevices returns the number of devices in use.
func (r *Renderer) NumDevices() int { return len(r.devs) }

// DeviceName returns the name of device i.
func (r *Renderer) DeviceName(i int) string {
	if i < 0 || i >= len(r.devs) {
		return ""
	}
	return r.devs[i].dev.Name()
}

// SetOutput changes the output format of later Finalize calls.
func (r *Renderer) SetOutput(channels int, transparent, earlyClip bool) error {
	v := kernel.FinalVariant{Channels: channels, Transparent: transparent, EarlyClip: earlyClip}
	if err := v.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.channels, r.opts.transparent, r.opts.earlyClip = channels, transparent, earlyClip
	return nil
}

// Iterations returns the iterations accumulated since the last histogram
// reset.
func (r *Renderer) Iterations() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.iters
}

// Abort stops a running Iterate or Render after the launches in flight.
// The abort is cleared by the next Render or Iterate call.
func (r *Renderer) Abort() { r.abort.Store(true) }

// Report returns the errors noted by the renderer and all its devices.
func (r *Renderer) Report() *device.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &device.Report{}
	out.Merge(&r.rep)
	for _, ds := range r.devs {
		out.Merge(ds.dev.Report())
	}
	return out
}

// Close releases every device. It is safe to call more than once.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.finals.Clear()
	for _, ds := range r.devs {
		ds.dev.Close()
	}
}

func (r *Renderer) check() error {
	if r.closed {
		return ErrClosed
	}
	return nil
}
