package variation

import (
	"math"

	"github.com/chewxy/math32"
)

// Parametric variations. Param indices used by Eval and Precalc follow the
// order of the Params slice.

func init() {
	register(
		&Spec{
			Name: "blob",
			Params: []Param{
				{Name: "blob_low", Default: 0},
				{Name: "blob_high", Default: 1},
				{Name: "blob_waves", Default: 1},
				{Name: "blob_diff", Kind: ParamPrecalc},
			},
			Needs: NeedAngles | NeedAtanYX,
			Precalc: func(p []float64) {
				p[3] = p[1] - p[0]
			},
			Emit: func(e *Emitter) {
				e.Line("let r = pre_sqrt * (%s + %s * (0.5 + 0.5 * sin(%s * pre_atanyx)));",
					e.P("blob_low"), e.P("blob_diff"), e.P("blob_waves"))
				e.Line("v_out.x = w * pre_sina * r;")
				e.Line("v_out.y = w * pre_cosa * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := c.Pre.Sqrt * (c.P[0] + c.P[3]*(0.5+0.5*math32.Sin(c.P[2]*c.Pre.AtanYX)))
				c.Out[0] = c.Weight * c.Pre.SinA * r
				c.Out[1] = c.Weight * c.Pre.CosA * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "pdj",
			Params: []Param{
				{Name: "pdj_a", Default: 1},
				{Name: "pdj_b", Default: 1},
				{Name: "pdj_c", Default: 1},
				{Name: "pdj_d", Default: 1},
			},
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * (sin(%s * v_in.y) - cos(%s * v_in.x));", e.P("pdj_a"), e.P("pdj_b"))
				e.Line("v_out.y = w * (sin(%s * v_in.x) - cos(%s * v_in.y));", e.P("pdj_c"), e.P("pdj_d"))
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * (math32.Sin(c.P[0]*c.In[1]) - math32.Cos(c.P[1]*c.In[0]))
				c.Out[1] = c.Weight * (math32.Sin(c.P[2]*c.In[0]) - math32.Cos(c.P[3]*c.In[1]))
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "rings2",
			Params: []Param{
				{Name: "rings2_val", Default: 1},
				{Name: "rings2_val2", Kind: ParamPrecalc},
			},
			Needs: NeedAngles,
			Precalc: func(p []float64) {
				p[1] = p[0]*p[0] + float64(Eps)
			},
			Emit: func(e *Emitter) {
				e.Line("let dx = %s;", e.P("rings2_val2"))
				e.Line("var r = pre_sqrt;")
				e.Line("r += -2.0 * dx * trunc((r + dx) / (2.0 * dx)) + r * (1.0 - dx);")
				e.Line("v_out.x = w * pre_sina * r;")
				e.Line("v_out.y = w * pre_cosa * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				dx := c.P[1]
				r := c.Pre.Sqrt
				r += -2*dx*math32.Trunc((r+dx)/(2*dx)) + r*(1-dx)
				c.Out[0] = c.Weight * c.Pre.SinA * r
				c.Out[1] = c.Weight * c.Pre.CosA * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "perspective",
			Params: []Param{
				{Name: "perspective_angle", Default: 0.5},
				{Name: "perspective_dist", Default: 2},
				{Name: "perspective_vsin", Kind: ParamPrecalc},
				{Name: "perspective_vfcos", Kind: ParamPrecalc},
			},
			Helpers: []string{"zeps"},
			Precalc: func(p []float64) {
				a := p[0] * math.Pi / 2
				p[2] = math.Sin(a)
				p[3] = p[1] * math.Cos(a)
			},
			Emit: func(e *Emitter) {
				e.Line("let t = 1.0 / zeps(%s - v_in.y * %s);", e.P("perspective_dist"), e.P("perspective_vsin"))
				e.Line("v_out.x = w * %s * v_in.x * t;", e.P("perspective_dist"))
				e.Line("v_out.y = w * %s * v_in.y * t;", e.P("perspective_vfcos"))
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				t := 1 / Zeps(c.P[1]-c.In[1]*c.P[2])
				c.Out[0] = c.Weight * c.P[1] * c.In[0] * t
				c.Out[1] = c.Weight * c.P[3] * c.In[1] * t
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "julian",
			Params: []Param{
				{Name: "julian_power", Default: 1},
				{Name: "julian_dist", Default: 1},
				{Name: "julian_rn", Kind: ParamPrecalc},
				{Name: "julian_cn", Kind: ParamPrecalc},
			},
			Needs: NeedSumSquares | NeedAtanYX,
			Precalc: func(p []float64) {
				p[2] = math.Abs(p[0])
				if p[0] != 0 {
					p[3] = p[1] / p[0] / 2
				} else {
					p[3] = 0
				}
			},
			Emit: func(e *Emitter) {
				e.Line("let t = (pre_atanyx + TWO_PI * trunc(%s * rand01(mwc))) / %s;", e.P("julian_rn"), e.P("julian_power"))
				e.Line("let r = w * pow(pre_sumsq, %s);", e.P("julian_cn"))
				e.Line("v_out.x = r * cos(t);")
				e.Line("v_out.y = r * sin(t);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				t := (c.Pre.AtanYX + TwoPi*math32.Trunc(c.P[2]*c.Rand.Float01())) / c.P[0]
				r := c.Weight * math32.Pow(c.Pre.SumSq, c.P[3])
				c.Out[0] = r * math32.Cos(t)
				c.Out[1] = r * math32.Sin(t)
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "curl",
			Params: []Param{
				{Name: "curl_c1", Default: 1},
				{Name: "curl_c2", Default: 0},
			},
			Helpers: []string{"zeps"},
			Emit: func(e *Emitter) {
				e.Line("let re = 1.0 + %s * v_in.x + %s * (v_in.x * v_in.x - v_in.y * v_in.y);", e.P("curl_c1"), e.P("curl_c2"))
				e.Line("let im = %s * v_in.y + 2.0 * %s * v_in.x * v_in.y;", e.P("curl_c1"), e.P("curl_c2"))
				e.Line("let r = w / zeps(re * re + im * im);")
				e.Line("v_out.x = (v_in.x * re + v_in.y * im) * r;")
				e.Line("v_out.y = (v_in.y * re - v_in.x * im) * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				x, y := c.In[0], c.In[1]
				re := 1 + c.P[0]*x + c.P[1]*(x*x-y*y)
				im := c.P[0]*y + 2*c.P[1]*x*y
				r := c.Weight / Zeps(re*re+im*im)
				c.Out[0] = (x*re + y*im) * r
				c.Out[1] = (y*re - x*im) * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "echo",
			Params:  []Param{{Name: "echo_decay", Default: 0.5}},
			State:   []string{"echo_x", "echo_y"},
			Helpers: []string{"lerp"},
			Emit: func(e *Emitter) {
				e.Line("let d = %s;", e.P("echo_decay"))
				e.Line("v_out.x = w * lerp(v_in.x, %s, d);", e.S("echo_x"))
				e.Line("v_out.y = w * lerp(v_in.y, %s, d);", e.S("echo_y"))
				e.Line("%s = v_in.x;", e.S("echo_x"))
				e.Line("%s = v_in.y;", e.S("echo_y"))
				e.DefaultZ()
			},
			EmitState: func(e *Emitter) {
				e.Line("%s = rand11(mwc);", e.S("echo_x"))
				e.Line("%s = rand11(mwc);", e.S("echo_y"))
			},
			Eval: func(c *Ctx) {
				d := c.P[0]
				c.Out[0] = c.Weight * lerp(c.In[0], c.S[0], d)
				c.Out[1] = c.Weight * lerp(c.In[1], c.S[1], d)
				c.S[0] = c.In[0]
				c.S[1] = c.In[1]
				c.DefaultZ()
			},
			InitState: func(c *Ctx) {
				c.S[0] = c.Rand.Float11()
				c.S[1] = c.Rand.Float11()
			},
		},
		&Spec{
			Name: "dc_linear",
			Params: []Param{
				{Name: "dc_linear_offset", Default: 0},
				{Name: "dc_linear_angle", Default: 0},
				{Name: "dc_linear_scale", Default: 1},
				{Name: "dc_linear_cos", Kind: ParamPrecalc},
				{Name: "dc_linear_sin", Kind: ParamPrecalc},
				{Name: "dc_linear_inv", Kind: ParamPrecalc},
			},
			Helpers:     []string{"fmod"},
			DirectColor: true,
			Precalc: func(p []float64) {
				p[3] = math.Cos(p[1])
				p[4] = math.Sin(p[1])
				scale := p[2]
				if scale == 0 {
					scale = 1e-6
				}
				p[5] = 1 / scale
			},
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * v_in.x;")
				e.Line("v_out.y = w * v_in.y;")
				e.DefaultZ()
				e.Line("let d = %s * (%s * v_in.x + %s * v_in.y + %s);",
					e.P("dc_linear_inv"), e.P("dc_linear_cos"), e.P("dc_linear_sin"), e.P("dc_linear_offset"))
				e.Line("out_color = fmod(abs(0.5 * (d + 1.0)), 1.0);")
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.In[0]
				c.Out[1] = c.Weight * c.In[1]
				c.DefaultZ()
				d := c.P[5] * (c.P[3]*c.In[0] + c.P[4]*c.In[1] + c.P[0])
				c.Color = fmod(math32.Abs(0.5*(d+1)), 1)
			},
		},
		&Spec{
			Name: "modulus",
			Params: []Param{
				{Name: "modulus_x", Default: 1},
				{Name: "modulus_y", Default: 1},
			},
			Helpers: []string{"fmod"},
			Emit: func(e *Emitter) {
				e.Line("let m = vec2<f32>(%s, %s);", e.P("modulus_x"), e.P("modulus_y"))
				e.Line("var q = v_in.xy;")
				e.Line("if q.x > m.x { q.x = fmod(q.x + m.x, 2.0 * m.x) - m.x; } else if q.x < -m.x { q.x = m.x - fmod(m.x - q.x, 2.0 * m.x); }")
				e.Line("if q.y > m.y { q.y = fmod(q.y + m.y, 2.0 * m.y) - m.y; } else if q.y < -m.y { q.y = m.y - fmod(m.y - q.y, 2.0 * m.y); }")
				e.Line("v_out.x = w * q.x;")
				e.Line("v_out.y = w * q.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * wrapModulus(c.In[0], c.P[0])
				c.Out[1] = c.Weight * wrapModulus(c.In[1], c.P[1])
				c.DefaultZ()
			},
		},
	)
}

// wrapModulus folds v into [-m, m] the way the modulus variation does.
func wrapModulus(v, m float32) float32 {
	switch {
	case v > m:
		return fmod(v+m, 2*m) - m
	case v < -m:
		return m - fmod(m-v, 2*m)
	}
	return v
}
