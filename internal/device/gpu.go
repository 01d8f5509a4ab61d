// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/kernel"

	// Register every HAL backend of the target OS.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

const bufferUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageUniform |
	gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst

// gpuBackend runs programs on a HAL device.
type gpuBackend struct {
	instance hal.Instance // nil for a shared device
	device   hal.Device
	queue    hal.Queue
	external bool // shared device, not destroyed on close
}

type gpuBuffer struct {
	dev  hal.Device
	buf  hal.Buffer
	size uint64
}

func (b *gpuBuffer) destroy() { b.dev.DestroyBuffer(b.buf) }

type gpuImage struct {
	dev  hal.Device
	tex  hal.Texture
	view hal.TextureView
	w, h int
}

func (im *gpuImage) destroy() {
	im.dev.DestroyTextureView(im.view)
	im.dev.DestroyTexture(im.tex)
}

type gpuProgram struct {
	dev        hal.Device
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func (p *gpuProgram) destroy() {
	if p.pipeline != nil {
		p.dev.DestroyComputePipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		p.dev.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		p.dev.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		p.dev.DestroyShaderModule(p.module)
	}
}

// gpuPlatforms returns one platform per registered HAL backend with at
// least one adapter that opens. The software backend is skipped; the host
// platform covers CPU execution.
func gpuPlatforms(rep *Report) []Platform {
	variants := hal.AvailableBackends()
	slices.Sort(variants)
	var ps []Platform
	for _, v := range variants {
		if v == gputypes.BackendEmpty {
			continue
		}
		if p, ok := probeBackend(v, rep); ok {
			ps = append(ps, p)
		}
	}
	return ps
}

func probeBackend(v gputypes.Backend, rep *Report) (Platform, bool) {
	log := flame.Logger()
	b, ok := hal.GetBackend(v)
	if !ok {
		return Platform{}, false
	}
	var instance hal.Instance
	var adapters []hal.ExposedAdapter
	err := protect(func() error {
		var err error
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{})
		if err != nil {
			return err
		}
		adapters = instance.EnumerateAdapters(nil)
		return nil
	})
	if err != nil {
		log.Debug("device: backend skipped", "backend", v.String(), "err", err)
		rep.Add(v.String(), "create instance", err)
		return Platform{}, false
	}
	defer protect(func() error { instance.Destroy(); return nil })

	p := Platform{Name: v.String()}
	for i, ad := range adapters {
		err := protect(func() error {
			od, err := ad.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
			if err != nil {
				return err
			}
			od.Device.Destroy()
			return nil
		})
		if err != nil {
			log.Debug("device: adapter skipped", "backend", v.String(), "adapter", ad.Info.Name, "err", err)
			rep.Add(v.String()+"/"+ad.Info.Name, "trial open", err)
			continue
		}
		p.devices = append(p.devices, deviceEntry{
			info: adapterInfo(ad),
			open: func(*options) (backend, error) { return openAdapter(v, i) },
		})
	}
	if len(p.devices) == 0 {
		return Platform{}, false
	}
	return p, true
}

func adapterInfo(ad hal.ExposedAdapter) map[string]string {
	lim := ad.Capabilities.Limits
	return map[string]string{
		InfoName:          ad.Info.Name,
		InfoVendor:        ad.Info.Vendor,
		InfoVendorID:      strconv.FormatUint(uint64(ad.Info.VendorID), 10),
		InfoDeviceID:      strconv.FormatUint(uint64(ad.Info.DeviceID), 10),
		InfoType:          ad.Info.DeviceType.String(),
		InfoDriver:        ad.Info.Driver,
		InfoBackend:       ad.Info.Backend.String(),
		InfoMaxBuffer:     strconv.FormatUint(lim.MaxBufferSize, 10),
		InfoMaxStorage:    strconv.FormatUint(lim.MaxStorageBufferBindingSize, 10),
		InfoMaxInvocation: strconv.FormatUint(uint64(lim.MaxComputeInvocationsPerWorkgroup), 10),
	}
}

// openAdapter opens adapter index of backend v on a fresh instance owned
// by the returned backend.
func openAdapter(v gputypes.Backend, index int) (backend, error) {
	b, ok := hal.GetBackend(v)
	if !ok {
		return nil, fmt.Errorf("%w: backend %s", ErrNoDevice, v)
	}
	var g *gpuBackend
	err := protect(func() error {
		instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
		if err != nil {
			return fmt.Errorf("create instance: %w", err)
		}
		adapters := instance.EnumerateAdapters(nil)
		if index >= len(adapters) {
			instance.Destroy()
			return fmt.Errorf("%w: adapter %d of %s", ErrNoDevice, index, v)
		}
		od, err := adapters[index].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			instance.Destroy()
			return fmt.Errorf("open adapter: %w", err)
		}
		g = &gpuBackend{instance: instance, device: od.Device, queue: od.Queue}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// newSharedBackend wraps a device and queue owned by another component.
func newSharedBackend(dev, queue any) (backend, error) {
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotShared, dev)
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotShared, queue)
	}
	return &gpuBackend{device: device, queue: q, external: true}, nil
}

func (g *gpuBackend) newBuffer(label string, size int) (resource, error) {
	n := uint64(size+3) &^ 3
	buf, err := g.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: n, Usage: bufferUsage})
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	if err := g.queue.WriteBuffer(buf, 0, make([]byte, n)); err != nil {
		g.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("clear buffer: %w", err)
	}
	return &gpuBuffer{dev: g.device, buf: buf, size: n}, nil
}

func (g *gpuBackend) writeBuffer(r resource, data []byte) error {
	b := r.(*gpuBuffer)
	if len(data)%4 != 0 {
		padded := make([]byte, (len(data)+3)&^3)
		copy(padded, data)
		data = padded
	}
	if err := g.queue.WriteBuffer(b.buf, 0, data); err != nil {
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

func (g *gpuBackend) readBuffer(ctx context.Context, r resource, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := r.(*gpuBuffer)
	n := uint64(len(dst)+3) &^ 3
	if n == 0 {
		return nil
	}
	staging, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback", Size: n,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer g.device.DestroyBuffer(staging)

	err = g.submit("readback", func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{{Size: n}})
	})
	if err != nil {
		return err
	}
	m, err := g.device.MapBuffer(staging, 0, n)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(m.Ptr), n)) //nolint:gosec // mapping covers n bytes
	if err := g.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}
	return nil
}

func (g *gpuBackend) newImage(label string, w, h int, rgba []float32) (resource, error) {
	tex, err := g.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // checked by caller
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA32Float,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := g.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label,
		Format:          gputypes.TextureFormatRGBA32Float,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		g.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	im := &gpuImage{dev: g.device, tex: tex, view: view, w: w, h: h}
	if err := g.writeImage(im, rgba); err != nil {
		im.destroy()
		return nil, err
	}
	return im, nil
}

func (g *gpuBackend) writeImage(r resource, rgba []float32) error {
	im := r.(*gpuImage)
	data := make([]byte, len(rgba)*4)
	for i, v := range rgba {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	err := g.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: im.tex, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{BytesPerRow: uint32(im.w * 16), RowsPerImage: uint32(im.h)}, //nolint:gosec // image sizes fit uint32
		&hal.Extent3D{Width: uint32(im.w), Height: uint32(im.h), DepthOrArrayLayers: 1}, //nolint:gosec // image sizes fit uint32
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

func layoutEntry(i int, b kernel.Binding) gputypes.BindGroupLayoutEntry {
	e := gputypes.BindGroupLayoutEntry{Binding: uint32(i), Visibility: gputypes.ShaderStageCompute} //nolint:gosec // binding counts are small
	switch b.Kind {
	case kernel.BindUniform:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case kernel.BindStorageRead:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	case kernel.BindStorage:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	case kernel.BindTexture:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	}
	return e
}

func (g *gpuBackend) build(p *kernel.Program) (resource, error) {
	spirv, err := CompileSPIRV(p)
	if err != nil {
		return nil, err
	}
	gp := &gpuProgram{dev: g.device}
	gp.module, err = g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.Entry,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, &BuildError{Entry: p.Entry, Log: err.Error(), Source: p.NumberedSource(), Err: err}
	}
	entries := make([]gputypes.BindGroupLayoutEntry, len(p.Bindings))
	for i, b := range p.Bindings {
		entries[i] = layoutEntry(i, b)
	}
	gp.bindLayout, err = g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: p.Entry, Entries: entries})
	if err != nil {
		gp.destroy()
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	gp.pipeLayout, err = g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: p.Entry, BindGroupLayouts: []hal.BindGroupLayout{gp.bindLayout},
	})
	if err != nil {
		gp.destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	gp.pipeline, err = g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: p.Entry, Layout: gp.pipeLayout,
		Compute: hal.ComputeState{Module: gp.module, EntryPoint: p.Entry},
	})
	if err != nil {
		gp.destroy()
		return nil, &BuildError{Entry: p.Entry, Log: err.Error(), Source: p.NumberedSource(), Err: err}
	}
	return gp, nil
}

func (g *gpuBackend) run(ctx context.Context, prog resource, args []resource, grid, block [2]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gp := prog.(*gpuProgram)
	entries := make([]gputypes.BindGroupEntry, len(args))
	for i, a := range args {
		entries[i].Binding = uint32(i) //nolint:gosec // binding counts are small
		switch r := a.(type) {
		case *gpuBuffer:
			entries[i].Resource = gputypes.BufferBinding{Buffer: r.buf.NativeHandle(), Size: r.size}
		case *gpuImage:
			entries[i].Resource = gputypes.TextureViewBinding{TextureView: r.view.NativeHandle()}
		}
	}
	bg, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{Label: "args", Layout: gp.bindLayout, Entries: entries})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer g.device.DestroyBindGroup(bg)

	return g.submit("launch", func(enc hal.CommandEncoder) {
		pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "launch"})
		pass.SetPipeline(gp.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(uint32(grid[0]/block[0]), uint32(grid[1]/block[1]), 1) //nolint:gosec // grid checked positive
		pass.End()
	})
}

// submit records one command buffer with encode, submits it and waits
// for the device to go idle.
func (g *gpuBackend) submit(label string, encode func(hal.CommandEncoder)) error {
	enc, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encode(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmd)
	if _, err := g.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := g.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for device: %w", err)
	}
	return nil
}

func (g *gpuBackend) close() {
	if g.external {
		return
	}
	if g.device != nil {
		if err := g.device.WaitIdle(); err != nil {
			flame.Logger().Warn("device: wait before release", "err", err)
		}
		g.device.Destroy()
	}
	if g.instance != nil {
		g.instance.Destroy()
	}
}
