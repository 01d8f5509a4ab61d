// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/kernel"
)

// Device is one opened compute device with its named buffers, images and
// programs. Buffers and images are replaced when written with a different
// size. Programs are keyed by entry point name.
//
// Every failed operation is also recorded in the device's Report.
//
// Thread safety: Device is safe for concurrent use; operations are
// serialized.
type Device struct {
	mu       sync.Mutex
	name     string
	info     map[string]string
	be       backend
	rep      Report
	buffers  map[string]*buffer
	images   map[string]*image
	programs map[string]*program
	closed   bool
}

type buffer struct {
	size int
	res  resource
}

type image struct {
	w, h int
	res  resource
}

type program struct {
	p    *kernel.Program
	res  resource
	args []string
}

func newDevice(name string, info map[string]string, be backend) *Device {
	return &Device{
		name:     name,
		info:     info,
		be:       be,
		buffers:  make(map[string]*buffer),
		images:   make(map[string]*image),
		programs: make(map[string]*program),
	}
}

// Name returns "<platform>/<device>".
func (d *Device) Name() string { return d.name }

// Info returns one property of the device, keyed like the package Info.
func (d *Device) Info(key string) (string, bool) {
	v, ok := d.info[key]
	return v, ok
}

// Report returns the device's diagnostics.
func (d *Device) Report() *Report { return &d.rep }

func (d *Device) fail(op string, err error) error {
	d.rep.Add(d.name, op, err)
	return err
}

func (d *Device) check(op string) error {
	if d.closed {
		return d.fail(op, ErrClosed)
	}
	return nil
}

// AddBuffer creates a zeroed buffer of size bytes. An existing buffer of
// the same size is kept as is; one of another size is replaced.
func (d *Device) AddBuffer(name string, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "add buffer " + name
	if err := d.check(op); err != nil {
		return err
	}
	if b, ok := d.buffers[name]; ok && b.size == size {
		return nil
	}
	return d.replaceBuffer(op, name, size)
}

// replaceBuffer destroys the buffer called name, if any, then creates a
// new one.
func (d *Device) replaceBuffer(op, name string, size int) error {
	if size <= 0 {
		return d.fail(op, fmt.Errorf("%w: %d bytes", ErrBadSize, size))
	}
	if old, ok := d.buffers[name]; ok {
		flame.Logger().Debug("device: replacing buffer", "device", d.name, "buffer", name, "old", old.size, "new", size)
		old.res.destroy()
		delete(d.buffers, name)
	}
	res, err := d.be.newBuffer(name, size)
	if err != nil {
		return d.fail(op, err)
	}
	d.buffers[name] = &buffer{size: size, res: res}
	return nil
}

// WriteBuffer uploads data into the buffer called name, creating it or
// replacing it when its size differs from len(data).
func (d *Device) WriteBuffer(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "write buffer " + name
	if err := d.check(op); err != nil {
		return err
	}
	b, ok := d.buffers[name]
	if !ok || b.size != len(data) {
		if err := d.replaceBuffer(op, name, len(data)); err != nil {
			return err
		}
		b = d.buffers[name]
	}
	if err := d.be.writeBuffer(b.res, data); err != nil {
		return d.fail(op, err)
	}
	return nil
}

// ReadBuffer copies the first len(dst) bytes of the buffer called name
// into dst, waiting for pending launches.
func (d *Device) ReadBuffer(ctx context.Context, name string, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "read buffer " + name
	if err := d.check(op); err != nil {
		return err
	}
	b, ok := d.buffers[name]
	if !ok {
		return d.fail(op, fmt.Errorf("%w: buffer %q", ErrNoResource, name))
	}
	if len(dst) > b.size {
		return d.fail(op, fmt.Errorf("%w: reading %d bytes of %d", ErrBadSize, len(dst), b.size))
	}
	if err := d.be.readBuffer(ctx, b.res, dst); err != nil {
		return d.fail(op, err)
	}
	return nil
}

// BufferSize returns the size in bytes of the buffer called name.
func (d *Device) BufferSize(name string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[name]
	if !ok {
		return 0, false
	}
	return b.size, true
}

// AddImage uploads a w x h RGBA float image, replacing an existing image
// of other dimensions.
func (d *Device) AddImage(name string, w, h int, rgba []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "add image " + name
	if err := d.check(op); err != nil {
		return err
	}
	if w <= 0 || h <= 0 || len(rgba) != w*h*4 {
		return d.fail(op, fmt.Errorf("%w: %dx%d image with %d values", ErrBadSize, w, h, len(rgba)))
	}
	if im, ok := d.images[name]; ok {
		if im.w == w && im.h == h {
			if err := d.be.writeImage(im.res, rgba); err != nil {
				return d.fail(op, err)
			}
			return nil
		}
		flame.Logger().Debug("device: replacing image", "device", d.name, "image", name)
		im.res.destroy()
		delete(d.images, name)
	}
	res, err := d.be.newImage(name, w, h, rgba)
	if err != nil {
		return d.fail(op, err)
	}
	d.images[name] = &image{w: w, h: h, res: res}
	return nil
}

// ImageSize returns the dimensions of the image called name.
func (d *Device) ImageSize(name string) (w, h int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	im, ok := d.images[name]
	if !ok {
		return 0, 0, false
	}
	return im.w, im.h, true
}

// ClearResources destroys every buffer and image. Programs and their
// argument names are kept.
func (d *Device) ClearResources() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearResources()
}

func (d *Device) clearResources() {
	for name, b := range d.buffers {
		b.res.destroy()
		delete(d.buffers, name)
	}
	for name, im := range d.images {
		im.res.destroy()
		delete(d.images, name)
	}
}

// AddProgram builds p and registers it under p.Entry, replacing any
// program of that name. Build failures return a *BuildError.
func (d *Device) AddProgram(p *kernel.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "build " + p.Entry
	if err := d.check(op); err != nil {
		return err
	}
	if p.Entry == "" || !strings.Contains(p.Source, "fn "+p.Entry+"(") {
		return d.fail(op, &BuildError{
			Entry:  p.Entry,
			Log:    fmt.Sprintf("entry point %q not found in program text", p.Entry),
			Source: p.NumberedSource(),
			Err:    ErrEntryMissing,
		})
	}
	res, err := d.be.build(p)
	if err != nil {
		return d.fail(op, err)
	}
	if old, ok := d.programs[p.Entry]; ok {
		old.res.destroy()
	}
	d.programs[p.Entry] = &program{p: p, res: res, args: make([]string, len(p.Bindings))}
	flame.Logger().Debug("device: program built", "device", d.name, "entry", p.Entry, "bytes", len(p.Source))
	return nil
}

// Program returns the program registered under entry.
func (d *Device) Program(entry string) (*kernel.Program, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pr, ok := d.programs[entry]
	if !ok {
		return nil, false
	}
	return pr.p, true
}

// SetArg binds argument index of the program entry to the buffer or image
// called resource. The resource is looked up at launch time.
func (d *Device) SetArg(entry string, index int, resource string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "set arg " + entry
	if err := d.check(op); err != nil {
		return err
	}
	pr, ok := d.programs[entry]
	if !ok {
		return d.fail(op, fmt.Errorf("%w: %q", ErrNoProgram, entry))
	}
	if index < 0 || index >= len(pr.args) {
		return d.fail(op, fmt.Errorf("%w: index %d of %d", ErrBadArg, index, len(pr.args)))
	}
	pr.args[index] = resource
	return nil
}

// SetArgByName binds the argument called binding of the program entry.
func (d *Device) SetArgByName(entry, binding, resource string) error {
	d.mu.Lock()
	pr, ok := d.programs[entry]
	d.mu.Unlock()
	if !ok {
		return d.fail("set arg "+entry, fmt.Errorf("%w: %q", ErrNoProgram, entry))
	}
	i, ok := pr.p.BindingIndex(binding)
	if !ok {
		return d.fail("set arg "+entry, fmt.Errorf("%w: no binding %q", ErrBadArg, binding))
	}
	return d.SetArg(entry, i, resource)
}

// RunKernel launches the program entry over grid threads in work-groups of
// block threads and waits for it to finish. block must equal the
// program's work-group shape and grid must be a positive multiple of it.
func (d *Device) RunKernel(ctx context.Context, entry string, grid, block [2]int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	op := "run " + entry
	if err := d.check(op); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pr, ok := d.programs[entry]
	if !ok {
		return d.fail(op, fmt.Errorf("%w: %q", ErrNoProgram, entry))
	}
	if block != pr.p.Workgroup || grid[0] <= 0 || grid[1] <= 0 ||
		grid[0]%block[0] != 0 || grid[1]%block[1] != 0 {
		return d.fail(op, fmt.Errorf("%w: grid %v block %v work-group %v", ErrLaunchShape, grid, block, pr.p.Workgroup))
	}
	args := make([]resource, len(pr.args))
	for i, name := range pr.args {
		b := pr.p.Bindings[i]
		if name == "" {
			return d.fail(op, fmt.Errorf("%w: %s", kernel.ErrArgMissing, b.Name))
		}
		if b.Kind == kernel.BindTexture {
			im, ok := d.images[name]
			if !ok {
				return d.fail(op, fmt.Errorf("%w: image %q for %s", ErrNoResource, name, b.Name))
			}
			args[i] = im.res
			continue
		}
		buf, ok := d.buffers[name]
		if !ok {
			return d.fail(op, fmt.Errorf("%w: buffer %q for %s", ErrNoResource, name, b.Name))
		}
		args[i] = buf.res
	}
	if err := d.be.run(ctx, pr.res, args, grid, block); err != nil {
		return d.fail(op, err)
	}
	return nil
}

// Close releases every resource and the device itself. Close is
// idempotent.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.clearResources()
	for entry, pr := range d.programs {
		pr.res.destroy()
		delete(d.programs, entry)
	}
	d.be.close()
	d.closed = true
	flame.Logger().Info("device: closed", "device", d.name)
}
