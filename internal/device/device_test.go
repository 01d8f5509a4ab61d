// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/internal/kernel"
)

func openHost(t *testing.T) *Device {
	t.Helper()
	p := hostPlatform()
	be, err := p.devices[0].open(&options{workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	d := newDevice("Host/test", p.devices[0].info, be)
	t.Cleanup(d.Close)
	return d
}

func words(ws ...uint32) []byte {
	b := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

func TestHostPlatform(t *testing.T) {
	p := hostPlatform()
	if p.Name != "Host" || p.NumDevices() != 1 {
		t.Fatalf("host platform = %q with %d devices", p.Name, p.NumDevices())
	}
	if !strings.HasPrefix(p.DeviceName(0), "Go host") {
		t.Errorf("DeviceName(0) = %q", p.DeviceName(0))
	}
	if p.DeviceName(1) != "" {
		t.Errorf("DeviceName(1) = %q, want empty", p.DeviceName(1))
	}
	for _, key := range []string{InfoName, InfoVendor, InfoType, InfoBackend, InfoMaxBuffer, InfoMaxInvocation} {
		if v := p.devices[0].info[key]; v == "" {
			t.Errorf("info %q is empty", key)
		}
	}
}

func TestWriteBufferReplace(t *testing.T) {
	d := openHost(t)
	ctx := context.Background()

	if err := d.WriteBuffer("a", words(1, 2)); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteBuffer("a", words(3, 4)); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 8)
	if err := d.ReadBuffer(ctx, "a", got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, words(3, 4)) {
		t.Errorf("ReadBuffer = %v, want %v", got, words(3, 4))
	}

	if err := d.WriteBuffer("a", words(5, 6, 7)); err != nil {
		t.Fatal(err)
	}
	if n, ok := d.BufferSize("a"); !ok || n != 12 {
		t.Errorf("BufferSize = %d, %v, want 12", n, ok)
	}
	err := d.ReadBuffer(ctx, "a", make([]byte, 16))
	if !errors.Is(err, ErrBadSize) {
		t.Errorf("oversized read error = %v, want ErrBadSize", err)
	}
	if err := d.ReadBuffer(ctx, "missing", got); !errors.Is(err, ErrNoResource) {
		t.Errorf("missing read error = %v, want ErrNoResource", err)
	}
	if d.Report().Len() != 2 {
		t.Errorf("report has %d entries, want 2:\n%s", d.Report().Len(), d.Report())
	}
}

func TestAddBufferKeepsSameSize(t *testing.T) {
	d := openHost(t)
	ctx := context.Background()
	if err := d.AddBuffer("b", 6); err != nil {
		t.Fatal(err)
	}
	zero := make([]byte, 6)
	if err := d.ReadBuffer(ctx, "b", zero); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(zero, make([]byte, 6)) {
		t.Errorf("new buffer = %v, want zeros", zero)
	}
	if err := d.WriteBuffer("b", []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if err := d.AddBuffer("b", 6); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 6)
	if err := d.ReadBuffer(ctx, "b", got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("AddBuffer of the same size changed contents: %v", got)
	}
	if err := d.AddBuffer("c", 0); !errors.Is(err, ErrBadSize) {
		t.Errorf("AddBuffer(0) error = %v, want ErrBadSize", err)
	}
}

func TestAddImage(t *testing.T) {
	d := openHost(t)
	if err := d.AddImage("pal", 2, 1, make([]float32, 8)); err != nil {
		t.Fatal(err)
	}
	if err := d.AddImage("pal", 4, 1, make([]float32, 16)); err != nil {
		t.Fatal(err)
	}
	if w, h, ok := d.ImageSize("pal"); !ok || w != 4 || h != 1 {
		t.Errorf("ImageSize = %d, %d, %v", w, h, ok)
	}
	if err := d.AddImage("pal", 4, 1, make([]float32, 3)); !errors.Is(err, ErrBadSize) {
		t.Errorf("short image error = %v, want ErrBadSize", err)
	}
}

func TestRunKernelZeroize(t *testing.T) {
	d := openHost(t)
	ctx := context.Background()
	p := kernel.Zeroize()
	if err := d.AddProgram(p); err != nil {
		t.Fatal(err)
	}
	buf := words(9, 9, 9, 9, 9)
	if err := d.WriteBuffer("buf", buf); err != nil {
		t.Fatal(err)
	}
	zp, grid := kernel.ZeroizeParams(3, 4)
	if err := d.WriteBuffer("zp", gpudata.Encode(zp)); err != nil {
		t.Fatal(err)
	}
	if err := d.SetArgByName(p.Entry, "params", "zp"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetArgByName(p.Entry, "buf", "buf"); err != nil {
		t.Fatal(err)
	}
	if err := d.RunKernel(ctx, p.Entry, grid, p.Workgroup); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(buf))
	if err := d.ReadBuffer(ctx, "buf", got); err != nil {
		t.Fatal(err)
	}
	if want := words(0, 0, 0, 9, 9); !bytes.Equal(got, want) {
		t.Errorf("buffer = %v, want %v", got, want)
	}
}

func TestRunKernelErrors(t *testing.T) {
	d := openHost(t)
	ctx := context.Background()
	p := kernel.Zeroize()
	if err := d.AddProgram(p); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		grid  [2]int
		block [2]int
		want  error
	}{
		{"not a multiple", [2]int{20, 16}, p.Workgroup, ErrLaunchShape},
		{"empty grid", [2]int{0, 16}, p.Workgroup, ErrLaunchShape},
		{"wrong block", [2]int{32, 32}, [2]int{8, 8}, ErrLaunchShape},
		{"unbound", [2]int{16, 16}, p.Workgroup, kernel.ErrArgMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.RunKernel(ctx, p.Entry, tt.grid, tt.block); !errors.Is(err, tt.want) {
				t.Errorf("RunKernel() error = %v, want %v", err, tt.want)
			}
		})
	}
	if err := d.RunKernel(ctx, "nothing", [2]int{16, 16}, p.Workgroup); !errors.Is(err, ErrNoProgram) {
		t.Errorf("unknown entry error = %v, want ErrNoProgram", err)
	}
	if err := d.SetArg(p.Entry, 5, "x"); !errors.Is(err, ErrBadArg) {
		t.Errorf("SetArg(5) error = %v, want ErrBadArg", err)
	}
	if err := d.SetArgByName(p.Entry, "nope", "x"); !errors.Is(err, ErrBadArg) {
		t.Errorf("SetArgByName(nope) error = %v, want ErrBadArg", err)
	}
	if err := d.SetArg(p.Entry, 0, "zp"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetArg(p.Entry, 1, "buf"); err != nil {
		t.Fatal(err)
	}
	if err := d.RunKernel(ctx, p.Entry, [2]int{16, 16}, p.Workgroup); !errors.Is(err, ErrNoResource) {
		t.Errorf("missing buffer error = %v, want ErrNoResource", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := d.RunKernel(cctx, p.Entry, [2]int{16, 16}, p.Workgroup); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled run error = %v, want context.Canceled", err)
	}
}

func TestAddProgramMissingEntry(t *testing.T) {
	d := openHost(t)
	p := &kernel.Program{Entry: "main", Source: "fn other() {}", Host: func(*kernel.Launch) error { return nil }}
	err := d.AddProgram(p)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("AddProgram() error = %v, want *BuildError", err)
	}
	if !errors.Is(err, ErrEntryMissing) {
		t.Errorf("error does not wrap ErrEntryMissing")
	}
	if be.Entry != "main" || !strings.Contains(be.Source, "   1  fn other() {}") {
		t.Errorf("BuildError = %+v", be)
	}
	if _, ok := d.Program("main"); ok {
		t.Error("failed program was registered")
	}
	es := d.Report().Entries()
	if len(es) != 1 || es[0].Op != "build main" || es[0].Device != "Host/test" {
		t.Errorf("report entries = %v", es)
	}
}

func TestAddProgramNoHost(t *testing.T) {
	d := openHost(t)
	err := d.AddProgram(&kernel.Program{Entry: "main", Source: "fn main() {}"})
	var be *BuildError
	if !errors.As(err, &be) {
		t.Errorf("AddProgram() error = %v, want *BuildError", err)
	}
}

func TestAddProgramReplaces(t *testing.T) {
	d := openHost(t)
	a := kernel.Zeroize()
	b := kernel.Zeroize()
	for _, p := range []*kernel.Program{a, b} {
		if err := d.AddProgram(p); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := d.Program(kernel.EntryZeroize); got != b {
		t.Error("second AddProgram did not replace the first")
	}
}

func TestClosed(t *testing.T) {
	d := openHost(t)
	d.Close()
	d.Close()
	if err := d.AddBuffer("a", 4); !errors.Is(err, ErrClosed) {
		t.Errorf("AddBuffer after Close error = %v, want ErrClosed", err)
	}
}

func TestCompileSPIRVError(t *testing.T) {
	p := &kernel.Program{Entry: "broken", Source: "fn broken( {"}
	_, err := CompileSPIRV(p)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("CompileSPIRV() error = %v, want *BuildError", err)
	}
	if be.Log == "" || be.Entry != "broken" {
		t.Errorf("BuildError = %+v", be)
	}
	if !strings.HasPrefix(err.Error(), "device: build broken: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}
