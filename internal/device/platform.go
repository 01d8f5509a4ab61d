// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"github.com/gogpu/flame"
)

// HostPlatform is the index of the built-in host platform. It is always
// present and always has exactly one device.
const HostPlatform = 0

// Info keys understood by Info and Device.Info.
const (
	InfoName          = "name"
	InfoVendor        = "vendor"
	InfoVendorID      = "vendor_id"
	InfoDeviceID      = "device_id"
	InfoType          = "type"
	InfoDriver        = "driver"
	InfoBackend       = "backend"
	InfoMaxBuffer     = "max_buffer_size"
	InfoMaxStorage    = "max_storage_binding"
	InfoMaxInvocation = "max_workgroup_invocations"
)

// Platform is one compute platform with the devices that passed a trial
// open.
type Platform struct {
	Name    string
	devices []deviceEntry
}

// NumDevices returns the number of usable devices.
func (p Platform) NumDevices() int { return len(p.devices) }

// DeviceName returns the name of device d, or "" if d is out of range.
func (p Platform) DeviceName(d int) string {
	if d < 0 || d >= len(p.devices) {
		return ""
	}
	return p.devices[d].info[InfoName]
}

type deviceEntry struct {
	info map[string]string
	open func(o *options) (backend, error)
}

// Option configures Open.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers sets the number of goroutines of a host device. Zero uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

var catalog struct {
	sync.Mutex
	platforms []Platform
	loaded    bool
}

// Platforms enumerates the compute platforms. The host platform comes
// first, followed by every GPU backend with at least one device that can
// be opened. Devices that fail to open are skipped and noted in rep.
//
// The result also becomes the catalog consulted by PlatformName,
// DeviceName, Info and Open.
func Platforms(rep *Report) []Platform {
	ps := append([]Platform{hostPlatform()}, gpuPlatforms(rep)...)
	catalog.Lock()
	catalog.platforms = ps
	catalog.loaded = true
	catalog.Unlock()
	flame.Logger().Info("device: platforms enumerated", "count", len(ps))
	return slices.Clone(ps)
}

func lookup(p int) (Platform, bool) {
	if p == HostPlatform {
		return hostPlatform(), true
	}
	catalog.Lock()
	loaded := catalog.loaded
	catalog.Unlock()
	if !loaded {
		Platforms(nil)
	}
	catalog.Lock()
	defer catalog.Unlock()
	if p < 0 || p >= len(catalog.platforms) {
		return Platform{}, false
	}
	return catalog.platforms[p], true
}

// PlatformName returns the name of platform p, or "" if p is out of range.
func PlatformName(p int) string {
	pl, _ := lookup(p)
	return pl.Name
}

// DeviceName returns the name of device d of platform p.
func DeviceName(p, d int) string {
	pl, _ := lookup(p)
	return pl.DeviceName(d)
}

// Info returns one property of device d of platform p.
func Info(p, d int, key string) (string, bool) {
	pl, ok := lookup(p)
	if !ok || d < 0 || d >= len(pl.devices) {
		return "", false
	}
	v, ok := pl.devices[d].info[key]
	return v, ok
}

// Open opens device d of platform p.
func Open(p, d int, opts ...Option) (*Device, error) {
	pl, ok := lookup(p)
	if !ok || d < 0 || d >= len(pl.devices) {
		return nil, fmt.Errorf("%w: platform %d device %d", ErrNoDevice, p, d)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	e := pl.devices[d]
	be, err := e.open(&o)
	if err != nil {
		return nil, fmt.Errorf("device: open %s: %w", e.info[InfoName], err)
	}
	dev := newDevice(pl.Name+"/"+e.info[InfoName], e.info, be)
	flame.Logger().Info("device: opened", "device", dev.Name())
	return dev, nil
}

func hostPlatform() Platform {
	info := map[string]string{
		InfoName:          "Go host (" + strconv.Itoa(runtime.GOMAXPROCS(0)) + " threads)",
		InfoVendor:        "go",
		InfoVendorID:      "0",
		InfoDeviceID:      "0",
		InfoType:          "cpu",
		InfoDriver:        runtime.Version(),
		InfoBackend:       "host",
		InfoMaxBuffer:     strconv.Itoa(hostMaxBuffer),
		InfoMaxStorage:    strconv.Itoa(hostMaxBuffer),
		InfoMaxInvocation: "1024",
	}
	return Platform{
		Name: "Host",
		devices: []deviceEntry{{
			info: info,
			open: func(o *options) (backend, error) { return newHostBackend(o.workers), nil },
		}},
	}
}
