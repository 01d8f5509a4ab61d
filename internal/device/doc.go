// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device is the compute device layer of the flame renderer.
//
// It enumerates platforms and devices, opens them, and manages named
// buffers, images and programs on each device. GPU devices run WGSL
// programs compiled with naga through wgpu's HAL. The host platform runs
// the same programs through their Go implementation on a worker pool, so
// the renderer works, and is tested, without a GPU.
//
// Builds with the nogpu tag contain only the host platform.
package device
