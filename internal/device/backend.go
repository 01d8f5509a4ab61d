// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"

	"github.com/gogpu/flame/internal/kernel"
)

// resource is a backend buffer, image or built program.
type resource interface {
	destroy()
}

// backend executes device operations. Each backend type asserts the
// resources handed back to it to its own concrete types.
type backend interface {
	newBuffer(label string, size int) (resource, error)
	writeBuffer(b resource, data []byte) error
	readBuffer(ctx context.Context, b resource, dst []byte) error
	newImage(label string, w, h int, rgba []float32) (resource, error)
	writeImage(im resource, rgba []float32) error
	build(p *kernel.Program) (resource, error)
	run(ctx context.Context, prog resource, args []resource, grid, block [2]int) error
	close()
}
