// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/flame"
)

// halProvider is implemented by device providers that expose their HAL
// device and queue, such as a gogpu application.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// OpenShared opens a device on the GPU device and queue of provider,
// typically a windowing application presenting the rendered image. The
// returned Device never destroys the shared device.
func OpenShared(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNotShared)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotShared, provider)
	}
	be, err := newSharedBackend(hp.HalDevice(), hp.HalQueue())
	if err != nil {
		return nil, err
	}
	ai := provider.AdapterInfo()
	info := map[string]string{
		InfoName:    ai.Name,
		InfoType:    ai.Type.String(),
		InfoBackend: "shared",
	}
	dev := newDevice("Shared/"+ai.Name, info, be)
	flame.Logger().Info("device: opened shared", "device", dev.Name())
	return dev, nil
}
