// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/flame/internal/device"
)

// DeviceHandle provides GPU device access from a host application.
//
// A windowing application (e.g., gogpu.App) that already owns a GPU device
// passes its provider to NewShared, and the renderer iterates on that
// device instead of opening its own. The provider must also expose its
// HAL handles:
//
//	HalDevice() any // hal.Device
//	HalQueue() any  // hal.Queue
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, so any provider
// of the gpucontext ecosystem can be passed directly.
type DeviceHandle = gpucontext.DeviceProvider

// Selection names one compute device by platform and device index, as
// listed by Devices.
type Selection struct {
	Platform int `toml:"platform"`
	Device   int `toml:"device"`
}

// HostSelection is the built-in CPU device.
var HostSelection = Selection{Platform: device.HostPlatform}

// DeviceInfo describes one available device.
type DeviceInfo struct {
	Selection
	PlatformName string
	Name         string
	Type         string
}

// Devices enumerates every usable device, the host device first.
func Devices() []DeviceInfo {
	var out []DeviceInfo
	for pi, p := range device.Platforms(nil) {
		for di := range p.NumDevices() {
			typ, _ := device.Info(pi, di, device.InfoType)
			out = append(out, DeviceInfo{
				Selection:    Selection{Platform: pi, Device: di},
				PlatformName: p.Name,
				Name:         p.DeviceName(di),
				Type:         typ,
			})
		}
	}
	return out
}

// DefaultSelection returns the first GPU device, or the host device when
// no GPU is usable.
func DefaultSelection() Selection {
	ps := device.Platforms(nil)
	for pi := range ps {
		if pi != device.HostPlatform && ps[pi].NumDevices() > 0 {
			return Selection{Platform: pi}
		}
	}
	return HostSelection
}

// NullDeviceHandle is a DeviceHandle without a device. NewShared rejects
// it; it stands in where an application has no GPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo returns an empty description.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
