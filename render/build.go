// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/device"
	"github.com/gogpu/flame/internal/kernel"
)

// build makes the programs of every device match the structure of f. It
// does nothing while the last built signature still fits.
func (r *Renderer) build(f *flame.Flame) error {
	if kernel.Valid(r.sig, f, r.opts.lock) {
		return nil
	}
	start := time.Now()
	iter, err := r.gen.Iterate(f, kernel.IterOptions{Lock: r.opts.lock})
	if err != nil {
		r.rep.Add("render", "generate", err)
		return fmt.Errorf("render: generate: %w", err)
	}
	progs := []*kernel.Program{iter}
	if r.sig == nil {
		progs = append(progs, kernel.Zeroize(), kernel.Sum())
	}
	// A partial build leaves the devices with mixed programs.
	r.sig = nil

	var g errgroup.Group
	for _, ds := range r.devs[1:] {
		g.Go(func() error {
			return addPrograms(ds.dev, progs)
		})
	}
	primary := progs
	if len(progs) > 1 {
		primary = append(primary[:len(progs):len(progs)], kernel.LogScale(), kernel.GaussianDE())
	}
	perr := addPrograms(r.primary().dev, primary)
	if err := g.Wait(); err != nil {
		return err
	}
	if perr != nil {
		return perr
	}

	sig := kernel.SignatureOf(f, r.opts.lock)
	r.sig = &sig
	for _, ds := range r.devs {
		ds.fuse = true
		ds.launches = 0
	}
	flame.Logger().Info("render: programs built",
		"xforms", len(f.Xforms), "devices", len(r.devs), "elapsed", time.Since(start))
	flame.Logger().Debug("render: iterate program", "bytes", len(iter.Source))
	return nil
}

// addPrograms builds progs on d and binds the iteration program, whose
// binding names equal the renderer's resource names.
func addPrograms(d *device.Device, progs []*kernel.Program) error {
	for _, p := range progs {
		if err := d.AddProgram(p); err != nil {
			return err
		}
	}
	p, ok := d.Program(kernel.EntryIterate)
	if !ok {
		return nil
	}
	for i, b := range p.Bindings {
		if err := d.SetArg(p.Entry, i, b.Name); err != nil {
			return err
		}
	}
	return nil
}

// gammaProgram builds the early clip program on the primary device when
// its transparency differs from the current one.
func (r *Renderer) gammaProgram() error {
	want := 0
	if r.opts.transparent {
		want = 1
	}
	if r.gamma == want {
		return nil
	}
	if err := r.primary().dev.AddProgram(kernel.GammaCorrect(r.opts.transparent)); err != nil {
		r.gamma = -1
		return err
	}
	r.gamma = want
	return nil
}

// finalProgram returns the final accumulation program of the current
// output format, building it on the primary device on first use.
func (r *Renderer) finalProgram() (*kernel.Program, error) {
	v := r.opts.variant()
	return r.finals.GetOrBuild(v.Entry(), func() (*kernel.Program, error) {
		p, err := kernel.FinalAccum(v)
		if err != nil {
			return nil, err
		}
		if err := r.primary().dev.AddProgram(p); err != nil {
			return nil, err
		}
		flame.Logger().Debug("render: final program built", "entry", p.Entry)
		return p, nil
	})
}
