// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"strings"
)

// Slot is a named section of generated WGSL. Slots are emitted in
// declaration order.
type Slot int

const (
	SlotHeader Slot = iota
	SlotStructs
	SlotBindings
	SlotConsts
	SlotHelpers
	SlotXforms
	SlotEntry
	slotCount
)

var slotNames = [slotCount]string{
	"header", "structs", "bindings", "consts", "helpers", "xforms", "entry",
}

// String returns the slot name.
func (s Slot) String() string {
	if s < 0 || s >= slotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// Builder assembles WGSL source from named slots. Each chunk added under a
// key is emitted once.
type Builder struct {
	slots [slotCount][]string
	keys  map[string]bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{keys: make(map[string]bool)}
}

// Add appends code to slot s.
func (b *Builder) Add(s Slot, code string) {
	b.slots[s] = append(b.slots[s], strings.TrimRight(code, "\n"))
}

// Addf appends formatted code to slot s.
func (b *Builder) Addf(s Slot, format string, args ...any) {
	b.Add(s, fmt.Sprintf(format, args...))
}

// Once appends code to slot s unless key was added before. It reports
// whether the code was added.
func (b *Builder) Once(s Slot, key, code string) bool {
	if b.keys[key] {
		return false
	}
	b.keys[key] = true
	b.Add(s, code)
	return true
}

// Has reports whether key was added with Once.
func (b *Builder) Has(key string) bool { return b.keys[key] }

// Chunks returns the chunks of slot s.
func (b *Builder) Chunks(s Slot) []string { return b.slots[s] }

// String returns the assembled source.
func (b *Builder) String() string {
	var sb strings.Builder
	for s := range slotCount {
		if len(b.slots[s]) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "// ---- %s ----\n", s)
		for _, c := range b.slots[s] {
			sb.WriteString(c)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
