package variation

import (
	"errors"
	"strconv"
	"strings"
)

// Errors returned by variation lookup and parameter access.
var (
	ErrUnknownVariation = errors.New("variation: unknown variation")
	ErrUnknownParam     = errors.New("variation: unknown parameter")
	ErrPrecalcParam     = errors.New("variation: parameter is precalculated")
)

// Phase orders a variation within its transform.
type Phase uint8

const (
	// PhaseRegular variations are summed into the transform output.
	PhaseRegular Phase = iota
	// PhasePre variations rewrite the affine output before regular ones run.
	PhasePre
	// PhasePost variations rewrite the summed output.
	PhasePost
)

// Order returns the execution rank of the phase: pre, regular, post.
func (p Phase) Order() int {
	switch p {
	case PhasePre:
		return 0
	case PhasePost:
		return 2
	default:
		return 1
	}
}

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhaseRegular:
		return "regular"
	case PhasePost:
		return "post"
	default:
		return "unknown"
	}
}

// Prefix returns the name prefix selecting this phase ("" for regular).
func (p Phase) Prefix() string {
	switch p {
	case PhasePre:
		return "pre_"
	case PhasePost:
		return "post_"
	default:
		return ""
	}
}

// Assign selects how a pre or post variation combines with the running point.
// Regular variations always accumulate.
type Assign uint8

const (
	// AssignSet overwrites the running point.
	AssignSet Assign = iota
	// AssignSum adds to the running point.
	AssignSum
)

// Needs is a set of shared per-point precomputations.
type Needs uint8

const (
	// NeedSumSquares is x*x + y*y.
	NeedSumSquares Needs = 1 << iota
	// NeedSqrt is sqrt(x*x + y*y).
	NeedSqrt
	// NeedAngles is sina = x/r and cosa = y/r.
	NeedAngles
	// NeedAtanXY is atan2(x, y).
	NeedAtanXY
	// NeedAtanYX is atan2(y, x).
	NeedAtanYX
)

// Normalize adds the precomputations the requested ones are derived from.
func (n Needs) Normalize() Needs {
	if n&NeedAngles != 0 {
		n |= NeedSqrt
	}
	if n&NeedSqrt != 0 {
		n |= NeedSumSquares
	}
	return n
}

// Has reports whether all bits of o are set.
func (n Needs) Has(o Needs) bool { return n&o == o }

// ParamKind distinguishes user-set parameters from derived ones.
type ParamKind uint8

const (
	ParamUser ParamKind = iota
	ParamPrecalc
)

// Param declares one scalar parameter. Names carry the variation name as a
// prefix ("julian_power") so they are unique within a transform.
type Param struct {
	Name    string
	Default float64
	Kind    ParamKind
}

// Spec is the capability table of one variation kind.
type Spec struct {
	// Name is the registry name, without a phase prefix.
	Name string

	// Phase is the phase the bare name selects. Prefixed lookups override it.
	Phase Phase

	// Assign applies in the pre and post phases.
	Assign Assign

	// Params are the non-state parameters in packing order, user ones first.
	Params []Param

	// State names per-thread values persisted across iterations.
	State []string

	// Needs lists the shared precomputations read by Emit and Eval.
	Needs Needs

	// Helpers names function-registry entries the emitted code calls.
	Helpers []string

	// DirectColor marks variations that write the color coordinate:
	// out_color in Emit, Ctx.Color in Eval. The transform's DirectColor
	// blends it over the carried color.
	DirectColor bool

	// Shared is WGSL emitted once per program when any instance is present.
	Shared string

	// Emit writes the per-point WGSL body. It reads v_in, w and the
	// pre_* precomputations and assigns v_out.
	Emit func(e *Emitter)

	// EmitState writes WGSL that initializes the state slots.
	EmitState func(e *Emitter)

	// Precalc recomputes ParamPrecalc values from the user values.
	Precalc func(p []float64)

	// Eval is the float32 host evaluation of Emit.
	Eval func(c *Ctx)

	// InitState is the host evaluation of EmitState.
	InitState func(c *Ctx)
}

// UserParams returns the number of user-settable parameters.
func (s *Spec) UserParams() int {
	n := 0
	for _, p := range s.Params {
		if p.Kind == ParamUser {
			n++
		}
	}
	return n
}

// Parametric reports whether instances of s occupy parameter slots.
func (s *Spec) Parametric() bool { return len(s.Params) > 0 }

// Stateful reports whether instances of s keep per-thread state.
func (s *Spec) Stateful() bool { return len(s.State) > 0 }

func (s *Spec) paramIndex(name string) int {
	for i, p := range s.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// SlotName returns the WGSL constant naming parameter or state value name
// for the transform at index xf.
func SlotName(name string, xf int) string {
	return strings.ToUpper(name) + "_" + strconv.Itoa(xf)
}

// StateSlotName returns the WGSL constant for a state value offset.
func StateSlotName(name string, xf int) string {
	return "ST_" + SlotName(name, xf)
}
