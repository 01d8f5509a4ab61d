// Package funcs holds the WGSL math helpers generated kernels may call.
//
// A Registry is built once with New and shared by every generator. Kernels
// request helpers by name and receive exactly those definitions, with
// dependencies first and no duplicates.
package funcs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownHelper is returned for a name not in the registry.
var ErrUnknownHelper = errors.New("funcs: unknown helper")

// Helper is one WGSL function definition.
type Helper struct {
	Name   string
	Deps   []string
	Source string
}

// Registry maps helper names to definitions. It is immutable after New.
type Registry struct {
	helpers map[string]*Helper
	order   []string
}

// New builds the registry of built-in helpers.
func New() *Registry {
	r := &Registry{helpers: make(map[string]*Helper, len(builtin))}
	for i := range builtin {
		h := &builtin[i]
		if _, dup := r.helpers[h.Name]; dup {
			panic("funcs: duplicate helper " + h.Name)
		}
		r.helpers[h.Name] = h
		r.order = append(r.order, h.Name)
	}
	return r
}

// Lookup returns the helper called name.
func (r *Registry) Lookup(name string) (*Helper, bool) {
	h, ok := r.helpers[name]
	return h, ok
}

// Names returns all helper names in registration order.
func (r *Registry) Names() []string { return slices.Clone(r.order) }

// Resolve returns the helpers for names plus their dependencies.
// Dependencies precede dependents; ties follow registration order.
func (r *Registry) Resolve(names ...string) ([]*Helper, error) {
	want := make(map[string]bool)
	var visit func(n string) error
	visit = func(n string) error {
		if want[n] {
			return nil
		}
		h, ok := r.helpers[n]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownHelper, n)
		}
		want[n] = true
		for _, d := range h.Deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	// builtin lists every helper after its dependencies, so registration
	// order is a valid topological order.
	out := make([]*Helper, 0, len(want))
	for _, n := range r.order {
		if want[n] {
			out = append(out, r.helpers[n])
		}
	}
	return out, nil
}

// Source returns the concatenated definitions for names.
func (r *Registry) Source(names ...string) (string, error) {
	hs, err := r.Resolve(names...)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, h := range hs {
		b.WriteString(h.Source)
		b.WriteString("\n")
	}
	return b.String(), nil
}
