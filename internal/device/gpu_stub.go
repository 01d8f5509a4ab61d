// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package device

func gpuPlatforms(*Report) []Platform { return nil }

func newSharedBackend(_, _ any) (backend, error) { return nil, ErrNoGPU }
