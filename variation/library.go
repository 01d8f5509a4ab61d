package variation

import (
	"slices"
	"strings"
)

// library maps registry names to specs. It is filled by the vars_*.go
// tables during package initialization and never modified afterwards.
var library = map[string]*Spec{}

func register(specs ...*Spec) {
	for _, s := range specs {
		if _, dup := library[s.Name]; dup || s.Name == "" {
			panic("variation: bad or duplicate registration " + s.Name)
		}
		library[s.Name] = s
	}
}

// Lookup resolves a possibly prefixed variation name to its spec and phase.
func Lookup(name string) (*Spec, Phase, bool) {
	if s, ok := library[name]; ok {
		return s, s.Phase, true
	}
	for _, ph := range []Phase{PhasePre, PhasePost} {
		base, ok := strings.CutPrefix(name, ph.Prefix())
		if !ok {
			continue
		}
		if s, ok := library[base]; ok && s.Phase == PhaseRegular {
			return s, ph, true
		}
	}
	return nil, PhaseRegular, false
}

// Names returns the registered names in sorted order.
func Names() []string {
	names := make([]string, 0, len(library))
	for n := range library {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
