// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/flame/internal/kernel"
	"github.com/gogpu/flame/internal/parallel"
)

// hostMaxBuffer bounds host buffer sizes to what a storage binding on a
// GPU could hold.
const hostMaxBuffer = 1 << 30

// hostBackend runs programs through their Host implementation. Buffers
// are 32-bit words; work-groups run on a worker pool.
type hostBackend struct {
	pool *parallel.WorkerPool
}

func newHostBackend(workers int) *hostBackend {
	return &hostBackend{pool: parallel.NewWorkerPool(workers)}
}

type hostBuffer struct {
	words []uint32
}

func (*hostBuffer) destroy() {}

type hostImage struct {
	img kernel.Image
}

func (*hostImage) destroy() {}

type hostProgram struct {
	p *kernel.Program
}

func (*hostProgram) destroy() {}

func (h *hostBackend) newBuffer(_ string, size int) (resource, error) {
	if size > hostMaxBuffer {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadSize, size)
	}
	return &hostBuffer{words: make([]uint32, (size+3)/4)}, nil
}

func (h *hostBackend) writeBuffer(r resource, data []byte) error {
	b := r.(*hostBuffer)
	if len(data) > len(b.words)*4 {
		return fmt.Errorf("%w: %d bytes into %d", ErrBadSize, len(data), len(b.words)*4)
	}
	n := len(data) / 4
	for i := range n {
		b.words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if rest := data[n*4:]; len(rest) > 0 {
		var tail [4]byte
		copy(tail[:], rest)
		b.words[n] = binary.LittleEndian.Uint32(tail[:])
	}
	return nil
}

func (h *hostBackend) readBuffer(ctx context.Context, r resource, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := r.(*hostBuffer)
	var tail [4]byte
	for i := 0; i < len(dst); i += 4 {
		if len(dst)-i >= 4 {
			binary.LittleEndian.PutUint32(dst[i:], b.words[i/4])
			continue
		}
		binary.LittleEndian.PutUint32(tail[:], b.words[i/4])
		copy(dst[i:], tail[:])
	}
	return nil
}

func (h *hostBackend) newImage(_ string, w, ht int, rgba []float32) (resource, error) {
	im := &hostImage{img: kernel.Image{W: w, H: ht, Pix: make([]float32, w*ht*4)}}
	copy(im.img.Pix, rgba)
	return im, nil
}

func (h *hostBackend) writeImage(r resource, rgba []float32) error {
	copy(r.(*hostImage).img.Pix, rgba)
	return nil
}

func (h *hostBackend) build(p *kernel.Program) (resource, error) {
	if p.Host == nil {
		return nil, &BuildError{
			Entry:  p.Entry,
			Log:    "program has no host implementation",
			Source: p.NumberedSource(),
		}
	}
	return &hostProgram{p: p}, nil
}

func (h *hostBackend) run(ctx context.Context, prog resource, args []resource, grid, block [2]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := prog.(*hostProgram).p
	l := &kernel.Launch{
		Grid:  grid,
		Block: block,
		Args:  make([]kernel.Arg, len(args)),
		Pool:  h.pool,
	}
	for i, a := range args {
		switch r := a.(type) {
		case *hostBuffer:
			l.Args[i].Words = r.words
		case *hostImage:
			l.Args[i].Image = &r.img
		}
	}
	return p.Host(l)
}

func (h *hostBackend) close() {
	h.pool.Close()
}
