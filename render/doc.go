// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render renders fractal flames on one or more compute devices.
//
// A Renderer owns a primary device and any number of secondary devices.
// Each Iterate call splits its launches across all of them; the secondary
// histograms are then added into the primary's, which alone runs density
// estimation, tone mapping and the spatial filter.
//
// # Usage
//
//	r, err := render.New(nil) // first GPU, else the Go host device
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	res, err := r.Render(ctx, f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png.Encode(out, res.Image)
//
// # Devices
//
// Devices lists every usable device, the Go host device first. The host
// device runs the same programs in Go, so it works without a GPU and
// produces the same histogram layout.
//
// # Progressive rendering
//
// Iterate adds iterations to the histogram and Finalize turns the current
// histogram into an image, so an application can show intermediate
// results:
//
//	for !done {
//	    r.Iterate(ctx, f, batch, false)
//	    img, _ := r.Finalize(ctx, f)
//	    show(img)
//	}
//
// Programs are rebuilt only when the structure of the flame changes. A
// flame that only changes parameter values, such as during an animation,
// reuses the built programs.
package render
