package variation

import (
	"fmt"
	"strings"
)

// Emitter collects the WGSL lines of one variation block.
//
// Emitted code runs inside a block that defines:
//
//	w            f32         instance weight
//	v_in         vec3<f32>   input point for the phase
//	v_out        vec3<f32>   output, zero on entry
//	out_color    f32         direct color, a var when Spec.DirectColor is set
//	pre_sumsq, pre_sqrt, pre_sina, pre_cosa, pre_atanxy, pre_atanyx
//	mwc          ptr<function, vec2<u32>>  thread RNG state
//	sbase        u32         offset of the thread's state slots
type Emitter struct {
	inst   *Instance
	xf     int
	indent string
	lines  []string
}

// NewEmitter returns an emitter for inst attached to transform xf.
func NewEmitter(inst *Instance, xf int, indent string) *Emitter {
	return &Emitter{inst: inst, xf: xf, indent: indent}
}

// Line appends a formatted line.
func (e *Emitter) Line(format string, args ...any) {
	e.lines = append(e.lines, e.indent+fmt.Sprintf(format, args...))
}

// Lines returns the emitted lines.
func (e *Emitter) Lines() []string { return e.lines }

// String returns the emitted lines joined by newlines.
func (e *Emitter) String() string { return strings.Join(e.lines, "\n") }

// Phase returns the phase of the instance being emitted.
func (e *Emitter) Phase() Phase { return e.inst.phase }

// P returns the WGSL expression reading parameter name.
func (e *Emitter) P(name string) string {
	return "params[" + SlotName(e.inst.prefix()+name, e.xf) + "]"
}

// S returns the WGSL lvalue of state value name.
func (e *Emitter) S(name string) string {
	return "state[sbase + " + StateSlotName(e.inst.prefix()+name, e.xf) + "]"
}

// DefaultZ emits the z output of a 2D variation: zero for regular
// variations, pass-through for pre and post ones.
func (e *Emitter) DefaultZ() {
	if e.inst.phase == PhaseRegular {
		e.Line("v_out.z = 0.0;")
		return
	}
	e.Line("v_out.z = v_in.z;")
}
