// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"slices"

	"github.com/gogpu/flame"
)

// Signature is the structure of a flame that an iteration program is
// specialized for. Parameter values are not part of it.
type Signature struct {
	Xforms      int
	Final       bool
	Xaos        bool
	PaletteMode flame.PaletteMode
	Projection  flame.Projection
	Lock        bool
	// Posts and Kinds cover every transform, the final one last.
	Posts []bool
	Kinds [][]string
}

// SignatureOf returns the signature of f built with the given lock mode.
func SignatureOf(f *flame.Flame, lock bool) Signature {
	s := Signature{
		Xforms:      len(f.Xforms),
		Final:       f.HasFinal(),
		Xaos:        f.HasXaos(),
		PaletteMode: f.Palette.Mode,
		Projection:  f.Projection(),
		Lock:        lock,
	}
	for _, x := range f.AllXforms() {
		s.Posts = append(s.Posts, x.HasPost())
		var kinds []string
		for _, v := range x.Ordered() {
			kinds = append(kinds, v.Name())
		}
		s.Kinds = append(s.Kinds, kinds)
	}
	return s
}

// Equal reports whether s and o describe the same program.
func (s Signature) Equal(o Signature) bool {
	return s.Xforms == o.Xforms &&
		s.Final == o.Final &&
		s.Xaos == o.Xaos &&
		s.PaletteMode == o.PaletteMode &&
		s.Projection == o.Projection &&
		s.Lock == o.Lock &&
		slices.Equal(s.Posts, o.Posts) &&
		slices.EqualFunc(s.Kinds, o.Kinds, slices.Equal[[]string])
}

// Valid reports whether a program built for prev can render f. A nil prev
// means nothing was built.
func Valid(prev *Signature, f *flame.Flame, lock bool) bool {
	return prev != nil && prev.Equal(SignatureOf(f, lock))
}
