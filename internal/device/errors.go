// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the device layer.
var (
	// ErrNoDevice is returned when a platform or device index does not
	// name an enumerated device.
	ErrNoDevice = errors.New("device: no such device")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("device: closed")

	// ErrNoProgram is returned when no program is registered under an
	// entry name.
	ErrNoProgram = errors.New("device: no such program")

	// ErrNoResource is returned when a buffer or image name is unknown.
	ErrNoResource = errors.New("device: no such resource")

	// ErrBadSize is returned for empty or mismatched resource sizes.
	ErrBadSize = errors.New("device: invalid resource size")

	// ErrBadArg is returned when an argument index or binding name does
	// not exist, or when a resource does not match its binding kind.
	ErrBadArg = errors.New("device: invalid argument")

	// ErrLaunchShape is returned when a launch grid is not a positive
	// multiple of the program's work-group shape.
	ErrLaunchShape = errors.New("device: grid is not a multiple of the work-group")

	// ErrEntryMissing is returned when program text lacks its entry point.
	ErrEntryMissing = errors.New("device: entry point not found")

	// ErrNotShared is returned by OpenShared when the provider does not
	// expose HAL device and queue handles.
	ErrNotShared = errors.New("device: provider does not expose HAL handles")

	// ErrNoGPU is returned for GPU operations in builds without GPU support.
	ErrNoGPU = errors.New("device: built without GPU support")

	// ErrDriverPanic is returned when a backend driver panics, as the GLES
	// driver does when no display is available.
	ErrDriverPanic = errors.New("device: driver panicked")
)

// protect runs fn and returns a driver panic as an error.
func protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrDriverPanic, p)
		}
	}()
	return fn()
}

// BuildError reports a failed program build. Log holds the compiler
// diagnostic and Source the numbered program text.
type BuildError struct {
	Entry  string
	Log    string
	Source string
	Err    error
}

func (e *BuildError) Error() string {
	first, _, _ := strings.Cut(e.Log, "\n")
	return fmt.Sprintf("device: build %s: %s", e.Entry, first)
}

func (e *BuildError) Unwrap() error { return e.Err }
