package variation

import (
	"fmt"
	"strings"
)

// Instance is one variation attached to a transform.
type Instance struct {
	spec  *Spec
	phase Phase

	// Weight scales the variation output.
	Weight float64

	values []float64
}

// New creates an instance of the named variation. A "pre_" or "post_"
// prefix selects the phase of an otherwise regular variation.
func New(name string, weight float64) (*Instance, error) {
	spec, phase, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariation, name)
	}
	v := &Instance{
		spec:   spec,
		phase:  phase,
		Weight: weight,
		values: make([]float64, len(spec.Params)),
	}
	for i, p := range spec.Params {
		v.values[i] = p.Default
	}
	v.precalc()
	return v, nil
}

// Must is like New but panics on an unknown name. It is meant for
// variables holding built-in flames.
func Must(name string, weight float64) *Instance {
	v, err := New(name, weight)
	if err != nil {
		panic(err)
	}
	return v
}

// Spec returns the capability table of the instance.
func (v *Instance) Spec() *Spec { return v.spec }

// Phase returns the phase the instance runs in.
func (v *Instance) Phase() Phase { return v.phase }

// prefix is the phase prefix carried by names of this instance.
func (v *Instance) prefix() string {
	if v.phase == v.spec.Phase {
		return ""
	}
	return v.phase.Prefix()
}

// Name returns the variation name including its phase prefix.
func (v *Instance) Name() string { return v.prefix() + v.spec.Name }

// ParamNames returns the full names of the non-state parameters in packing
// order.
func (v *Instance) ParamNames() []string {
	names := make([]string, len(v.spec.Params))
	for i, p := range v.spec.Params {
		names[i] = v.prefix() + p.Name
	}
	return names
}

// StateNames returns the full names of the state values.
func (v *Instance) StateNames() []string {
	names := make([]string, len(v.spec.State))
	for i, s := range v.spec.State {
		names[i] = v.prefix() + s
	}
	return names
}

// Values returns a copy of the non-state parameter values in packing order.
func (v *Instance) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// Set assigns a user parameter and recomputes the precalculated ones.
// The name may carry the instance's phase prefix.
func (v *Instance) Set(name string, value float64) error {
	i := v.spec.paramIndex(strings.TrimPrefix(name, v.prefix()))
	if i < 0 {
		return fmt.Errorf("%w: %s has no %q", ErrUnknownParam, v.Name(), name)
	}
	if v.spec.Params[i].Kind == ParamPrecalc {
		return fmt.Errorf("%w: %q", ErrPrecalcParam, name)
	}
	v.values[i] = value
	v.precalc()
	return nil
}

// With sets a parameter and returns v for chaining. It panics on an unknown
// name, like Must.
func (v *Instance) With(name string, value float64) *Instance {
	if err := v.Set(name, value); err != nil {
		panic(err)
	}
	return v
}

// Get returns the value of a parameter, precalculated ones included.
func (v *Instance) Get(name string) (float64, bool) {
	i := v.spec.paramIndex(strings.TrimPrefix(name, v.prefix()))
	if i < 0 {
		return 0, false
	}
	return v.values[i], true
}

// Clone returns an independent copy of v.
func (v *Instance) Clone() *Instance {
	c := *v
	c.values = append([]float64(nil), v.values...)
	return &c
}

func (v *Instance) precalc() {
	if v.spec.Precalc != nil {
		v.spec.Precalc(v.values)
	}
}
