// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestReportConcurrentAdd(t *testing.T) {
	var r Report
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				r.Add("dev", "op", errors.New("fail"))
			}
		}()
	}
	wg.Wait()
	if r.Len() != 400 {
		t.Errorf("Len() = %d, want 400", r.Len())
	}
	r.Add("dev", "op", nil)
	if r.Len() != 400 {
		t.Error("nil error was recorded")
	}
}

func TestReportMergeAndErr(t *testing.T) {
	var a, b Report
	a.Add("gpu0", "run iterate", ErrLaunchShape)
	b.Add("gpu1", "build iterate", &BuildError{Entry: "iterate", Log: "line 3: unknown type\nmore"})
	a.Merge(&b)
	a.Merge(&a)
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	if !errors.Is(a.Err(), ErrLaunchShape) {
		t.Error("Err() does not wrap ErrLaunchShape")
	}
	s := a.String()
	for _, want := range []string{
		"gpu0: run iterate: device: grid",
		"gpu1: build iterate: device: build iterate: line 3: unknown type\nline 3: unknown type\nmore",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() lacks %q:\n%s", want, s)
		}
	}
	a.Reset()
	if a.Len() != 0 || a.Err() != nil {
		t.Error("Reset() kept entries")
	}
}

func TestNilReport(t *testing.T) {
	var r *Report
	r.Add("d", "op", ErrClosed)
	if r.Len() != 0 || r.Entries() != nil || r.String() != "" {
		t.Error("nil report recorded an entry")
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device { return nil }
func (plainProvider) Queue() gpucontext.Queue { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (plainProvider) Adapter() gpucontext.Adapter { return nil }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{Name: "test"} }

type wrongHalProvider struct{ plainProvider }

func (wrongHalProvider) HalDevice() any { return "device" }
func (wrongHalProvider) HalQueue() any { return "queue" }

func TestOpenSharedRejects(t *testing.T) {
	for _, p := range []gpucontext.DeviceProvider{nil, plainProvider{}, wrongHalProvider{}} {
		_, err := OpenShared(p)
		if !errors.Is(err, ErrNotShared) && !errors.Is(err, ErrNoGPU) {
			t.Errorf("OpenShared(%T) error = %v, want ErrNotShared", p, err)
		}
	}
}
