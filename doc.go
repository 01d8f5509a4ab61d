// Package flame describes fractal flames and renders them on compute devices.
//
// # Overview
//
// A flame is an iterated function system: a set of transforms, each an
// affine map followed by a weighted sum of nonlinear variations. Rendering
// plays the chaos game, repeatedly applying randomly chosen transforms to a
// point and histogramming where it lands, then tone maps the histogram.
//
// This package holds the flame model. Rendering lives in package render,
// which generates a WGSL compute program specialized for the structure of
// one flame and runs it on every selected device.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/flame"
//		"github.com/gogpu/flame/render"
//		"github.com/gogpu/flame/variation"
//	)
//
//	f := flame.New(640, 480)
//	f.Add(
//		flame.NewXform(variation.Must("sinusoidal", 1)),
//		flame.NewXform(variation.Must("spherical", 0.5)),
//	)
//
//	r, err := render.New(nil) // first usable device
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	res, err := r.Render(ctx, f)
//
// # Logging
//
// The library is silent by default. Call SetLogger with a *slog.Logger to
// receive device discovery, build and resource diagnostics.
package flame
