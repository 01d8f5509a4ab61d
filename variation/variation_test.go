package variation

import (
	"errors"
	"strings"
	"testing"

	"github.com/chewxy/math32"
)

// seqRand is a deterministic Rand for host evaluation tests.
type seqRand struct{ n uint32 }

func (r *seqRand) Uint32() uint32 {
	r.n = r.n*1664525 + 1013904223
	return r.n
}
func (r *seqRand) Float01() float32 { return float32(r.Uint32()) * 2.3283064365386963e-10 }
func (r *seqRand) Float11() float32 { return r.Float01()*2 - 1 }

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		wantSpec  string
		wantPhase Phase
		wantOK    bool
	}{
		{"linear", "linear", PhaseRegular, true},
		{"pre_linear", "linear", PhasePre, true},
		{"post_julian", "julian", PhasePost, true},
		{"pre_blur", "pre_blur", PhasePre, true},
		{"post_pre_blur", "", PhaseRegular, false},
		{"nope", "", PhaseRegular, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ph, ok := Lookup(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if s.Name != tt.wantSpec || ph != tt.wantPhase {
				t.Errorf("Lookup(%q) = (%s, %v), want (%s, %v)", tt.name, s.Name, ph, tt.wantSpec, tt.wantPhase)
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("does_not_exist", 1); !errors.Is(err, ErrUnknownVariation) {
		t.Errorf("New() error = %v, want ErrUnknownVariation", err)
	}
}

func TestSetRecomputesPrecalc(t *testing.T) {
	v := Must("julian", 1)
	if err := v.Set("julian_power", -4); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := v.Set("julian_dist", 2); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if rn, _ := v.Get("julian_rn"); rn != 4 {
		t.Errorf("julian_rn = %v, want 4", rn)
	}
	if cn, _ := v.Get("julian_cn"); cn != -0.25 {
		t.Errorf("julian_cn = %v, want -0.25", cn)
	}
	if err := v.Set("julian_cn", 1); !errors.Is(err, ErrPrecalcParam) {
		t.Errorf("Set(precalc) error = %v, want ErrPrecalcParam", err)
	}
	if err := v.Set("julia_power", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownParam", err)
	}
}

func TestPrefixedNames(t *testing.T) {
	v := Must("post_echo", 0.5).With("post_echo_decay", 0.25)
	if v.Name() != "post_echo" {
		t.Errorf("Name() = %q, want post_echo", v.Name())
	}
	if got := v.ParamNames(); len(got) != 1 || got[0] != "post_echo_decay" {
		t.Errorf("ParamNames() = %v, want [post_echo_decay]", got)
	}
	if got := v.StateNames(); len(got) != 2 || got[1] != "post_echo_y" {
		t.Errorf("StateNames() = %v", got)
	}
	if d, _ := v.Get("echo_decay"); d != 0.25 {
		t.Errorf("echo_decay = %v, want 0.25", d)
	}
	if Must("pre_blur", 1).Name() != "pre_blur" {
		t.Error("fixed-phase spec should not gain a second prefix")
	}
}

func TestCloneIndependent(t *testing.T) {
	a := Must("pdj", 1)
	b := a.Clone()
	_ = b.Set("pdj_a", 7)
	if got, _ := a.Get("pdj_a"); got != 1 {
		t.Errorf("original pdj_a = %v after clone mutation, want 1", got)
	}
}

func TestEmitterSlots(t *testing.T) {
	e := NewEmitter(Must("post_echo", 1), 3, "    ")
	if got := e.P("echo_decay"); got != "params[POST_ECHO_DECAY_3]" {
		t.Errorf("P() = %q", got)
	}
	if got := e.S("echo_x"); got != "state[sbase + ST_POST_ECHO_X_3]" {
		t.Errorf("S() = %q", got)
	}
	e.DefaultZ()
	if got := e.String(); got != "    v_out.z = v_in.z;" {
		t.Errorf("DefaultZ() emitted %q", got)
	}
}

func TestNeedsNormalize(t *testing.T) {
	n := NeedAngles.Normalize()
	if !n.Has(NeedSqrt | NeedSumSquares | NeedAngles) {
		t.Errorf("Normalize(NeedAngles) = %b, missing derived bits", n)
	}
	if NeedAtanXY.Normalize() != NeedAtanXY {
		t.Error("Normalize should not add bits to atan needs")
	}
}

// =============================================================================
// Library-wide checks
// =============================================================================

func TestLibraryComplete(t *testing.T) {
	for _, name := range Names() {
		s, _, _ := Lookup(name)
		if s.Emit == nil || s.Eval == nil {
			t.Errorf("%s: missing Emit or Eval", name)
		}
		if s.Stateful() && (s.EmitState == nil || s.InitState == nil) {
			t.Errorf("%s: stateful without initializer", name)
		}
		for i, p := range s.Params {
			if !strings.HasPrefix(p.Name, name+"_") {
				t.Errorf("%s: param %q lacks variation prefix", name, p.Name)
			}
			if p.Kind == ParamUser && i > 0 && s.Params[i-1].Kind == ParamPrecalc {
				t.Errorf("%s: user param %q after precalc param", name, p.Name)
			}
		}
	}
}

func TestEmitUsesDeclaredSlots(t *testing.T) {
	for _, name := range Names() {
		v := Must(name, 1)
		e := NewEmitter(v, 0, "")
		v.Spec().Emit(e)
		src := e.String()
		if !strings.Contains(src, "v_out") {
			t.Errorf("%s: emitted code never writes v_out", name)
		}
		if strings.Contains(src, "params[") && !v.Spec().Parametric() {
			t.Errorf("%s: non-parametric variation reads params", name)
		}
	}
}

func TestEvalFinite(t *testing.T) {
	points := [][3]float32{{0.3, -0.7, 0}, {-1.2, 0.4, 0.5}, {0.01, 0.02, 0}}
	for _, name := range Names() {
		v := Must(name, 0.8)
		s := v.Spec()
		vals := v.Values()
		p := make([]float32, len(vals))
		for i, x := range vals {
			p[i] = float32(x)
		}
		c := &Ctx{Weight: 0.8, P: p, S: make([]float32, len(s.State)), Rand: &seqRand{n: 7}, Phase: v.Phase()}
		if s.InitState != nil {
			s.InitState(c)
		}
		for _, in := range points {
			c.In = in
			c.Out = [3]float32{}
			c.Pre = ComputePrecalc(in, s.Needs.Normalize())
			s.Eval(c)
			for k, o := range c.Out {
				if math32.IsNaN(o) || math32.IsInf(o, 0) {
					t.Errorf("%s(%v) out[%d] = %v", name, in, k, o)
				}
			}
		}
	}
}

func TestLinearEval(t *testing.T) {
	c := &Ctx{In: [3]float32{1, -2, 5}, Weight: 0.5, Phase: PhaseRegular}
	Must("linear", 0.5).Spec().Eval(c)
	if c.Out != [3]float32{0.5, -1, 0} {
		t.Errorf("linear out = %v, want [0.5 -1 0]", c.Out)
	}
	c.Phase = PhasePost
	Must("linear", 0.5).Spec().Eval(c)
	if c.Out[2] != 5 {
		t.Errorf("post linear z = %v, want pass-through 5", c.Out[2])
	}
}

func TestHelperEvals(t *testing.T) {
	tests := []struct {
		name string
		got  float32
		want float32
	}{
		{"wrap above", wrapModulus(1.5, 1), -0.5},
		{"wrap below", wrapModulus(-1.5, 1), 0.5},
		{"wrap inside", wrapModulus(0.25, 1), 0.25},
		{"spread negative", spread(-3, 4), -5},
		{"spread zero", spread(0, 2), 2},
		{"clamp sign", clampSign(-7, 2), -2},
		{"safe sqrt", safeSqrt(-1), 0},
		{"cube", cube(-2), -8},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestFisheyeSwapsEyefish(t *testing.T) {
	in := [3]float32{0.3, -0.6, 0}
	pre := ComputePrecalc(in, NeedSqrt.Normalize())
	eye := &Ctx{In: in, Weight: 1, Pre: pre}
	fish := &Ctx{In: in, Weight: 1, Pre: pre}
	Must("eyefish", 1).Spec().Eval(eye)
	Must("fisheye", 1).Spec().Eval(fish)
	if eye.Out[0] != fish.Out[1] || eye.Out[1] != fish.Out[0] {
		t.Errorf("fisheye %v is not eyefish %v swapped", fish.Out, eye.Out)
	}
}
