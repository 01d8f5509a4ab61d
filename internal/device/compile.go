// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/flame/internal/kernel"
)

// CompileSPIRV compiles the WGSL text of p to SPIR-V words. Compiler
// diagnostics are returned as a *BuildError carrying the numbered source.
func CompileSPIRV(p *kernel.Program) ([]uint32, error) {
	code, err := naga.Compile(p.Source)
	if err != nil {
		return nil, &BuildError{Entry: p.Entry, Log: err.Error(), Source: p.NumberedSource(), Err: err}
	}
	if len(code)%4 != 0 {
		return nil, &BuildError{
			Entry:  p.Entry,
			Log:    fmt.Sprintf("SPIR-V output of %d bytes is not word aligned", len(code)),
			Source: p.NumberedSource(),
		}
	}
	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}
