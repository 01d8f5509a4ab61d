package variation

import (
	"math"

	"github.com/chewxy/math32"
)

// Constants shared with the generated kernels.
const (
	Eps   = float32(1.1920929e-7)
	Pi    = float32(math.Pi)
	TwoPi = float32(2 * math.Pi)
	InvPi = float32(1 / math.Pi)
)

// Rand is the per-thread generator seen by host evaluations. Implementations
// must draw in the same order as the WGSL rand01/rand11/rand_u32 helpers.
type Rand interface {
	Uint32() uint32
	Float01() float32
	Float11() float32
}

// Precalc holds the shared per-point precomputations.
type Precalc struct {
	SumSq, Sqrt, SinA, CosA, AtanXY, AtanYX float32
}

// ComputePrecalc evaluates the precomputations in needs for point in.
// Values not requested are left zero.
func ComputePrecalc(in [3]float32, needs Needs) Precalc {
	var p Precalc
	x, y := in[0], in[1]
	if needs&NeedSumSquares != 0 {
		p.SumSq = x*x + y*y
	}
	if needs&NeedSqrt != 0 {
		p.Sqrt = math32.Sqrt(p.SumSq)
	}
	if needs&NeedAngles != 0 {
		p.SinA = x / Zeps(p.Sqrt)
		p.CosA = y / Zeps(p.Sqrt)
	}
	if needs&NeedAtanXY != 0 {
		p.AtanXY = math32.Atan2(x, y)
	}
	if needs&NeedAtanYX != 0 {
		p.AtanYX = math32.Atan2(y, x)
	}
	return p
}

// Ctx is the host evaluation context of one variation call.
type Ctx struct {
	In     [3]float32
	Out    [3]float32
	Weight float32
	P      []float32
	S      []float32
	Pre    Precalc
	Rand   Rand
	Phase  Phase

	// Color is the direct color of the transform, the blended color
	// coordinate before the first variation runs.
	Color float32
}

// DefaultZ mirrors Emitter.DefaultZ.
func (c *Ctx) DefaultZ() {
	if c.Phase == PhaseRegular {
		c.Out[2] = 0
		return
	}
	c.Out[2] = c.In[2]
}

// Zeps replaces an exact zero with Eps.
func Zeps(x float32) float32 {
	if x == 0 {
		return Eps
	}
	return x
}

func sqr(x float32) float32 { return x * x }

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func cube(x float32) float32 { return x * x * x }

func safeSqrt(x float32) float32 { return math32.Sqrt(max(x, 0)) }

func signNZ(x float32) float32 {
	if x < 0 {
		return -1
	}
	return 1
}

func hypot(x, y float32) float32 { return math32.Sqrt(x*x + y*y) }

func spread(a, b float32) float32 { return hypot(a, b) * signNZ(a) }

// fmod matches the WGSL helper, x - y*trunc(x/y).
func fmod(x, y float32) float32 { return x - y*math32.Trunc(x/y) }

func clampSign(x, lim float32) float32 { return signNZ(x) * min(math32.Abs(x), lim) }

// tangentLimit bounds the output of the tangent variation near its poles.
const tangentLimit = float32(1e8)
