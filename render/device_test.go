// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNullDeviceHandle(t *testing.T) {
	var h NullDeviceHandle
	if h.Device() != nil {
		t.Error("Device() should be nil")
	}
	if h.Queue() != nil {
		t.Error("Queue() should be nil")
	}
	if h.Adapter() != nil {
		t.Error("Adapter() should be nil")
	}
	if h.SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want undefined", h.SurfaceFormat())
	}
	if h.AdapterInfo().Name != "" {
		t.Errorf("AdapterInfo().Name = %q, want empty", h.AdapterInfo().Name)
	}
}

func TestNewSharedRejectsNull(t *testing.T) {
	if r, err := NewShared(NullDeviceHandle{}); err == nil {
		r.Close()
		t.Error("NewShared(NullDeviceHandle) succeeded")
	}
}

func TestDevicesHostFirst(t *testing.T) {
	ds := Devices()
	if len(ds) == 0 {
		t.Fatal("Devices() is empty")
	}
	if ds[0].Selection != HostSelection {
		t.Errorf("Devices()[0] = %+v, want the host device", ds[0].Selection)
	}
	if ds[0].Name == "" || ds[0].PlatformName == "" {
		t.Errorf("host device info = %+v", ds[0])
	}
	sel := DefaultSelection()
	found := false
	for _, d := range ds {
		if d.Selection == sel {
			found = true
		}
	}
	if !found {
		t.Errorf("DefaultSelection() = %+v is not listed", sel)
	}
}
