// Package variation defines the contract between flame variations and the
// kernel generator, and provides the built-in variation library.
//
// A variation is described once by a [Spec]: its parameters, the shared
// per-point precomputations it reads, its assignment mode, the helper
// functions it depends on, a WGSL emission function and a float32 host
// evaluation used by the CPU device. Specs are resolved when a flame is
// built, never per iteration.
//
// A [Instance] attaches a spec to a transform with a weight, a phase
// (pre, regular or post, chosen by the "pre_" / "post_" name prefix) and
// parameter values:
//
//	v, err := variation.New("post_julian", 0.5)
//	if err != nil {
//	    return err
//	}
//	_ = v.Set("julian_power", 3)
package variation
