package variation

import "github.com/chewxy/math32"

// Non-parametric, deterministic variations.

func init() {
	register(
		&Spec{
			Name: "linear",
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * v_in.x;")
				e.Line("v_out.y = w * v_in.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.In[0]
				c.Out[1] = c.Weight * c.In[1]
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "linear3D",
			Emit: func(e *Emitter) {
				e.Line("v_out = w * v_in;")
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.In[0]
				c.Out[1] = c.Weight * c.In[1]
				c.Out[2] = c.Weight * c.In[2]
			},
		},
		&Spec{
			Name: "sinusoidal",
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * sin(v_in.x);")
				e.Line("v_out.y = w * sin(v_in.y);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * math32.Sin(c.In[0])
				c.Out[1] = c.Weight * math32.Sin(c.In[1])
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "spherical",
			Needs:   NeedSumSquares,
			Helpers: []string{"safe_div"},
			Emit: func(e *Emitter) {
				e.Line("let r = safe_div(w, pre_sumsq);")
				e.Line("v_out.x = v_in.x * r;")
				e.Line("v_out.y = v_in.y * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := c.Weight / Zeps(c.Pre.SumSq)
				c.Out[0] = c.In[0] * r
				c.Out[1] = c.In[1] * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "swirl",
			Needs: NeedSumSquares,
			Emit: func(e *Emitter) {
				e.Line("let c1 = sin(pre_sumsq);")
				e.Line("let c2 = cos(pre_sumsq);")
				e.Line("v_out.x = w * (c1 * v_in.x - c2 * v_in.y);")
				e.Line("v_out.y = w * (c2 * v_in.x + c1 * v_in.y);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c1, c2 := math32.Sin(c.Pre.SumSq), math32.Cos(c.Pre.SumSq)
				c.Out[0] = c.Weight * (c1*c.In[0] - c2*c.In[1])
				c.Out[1] = c.Weight * (c2*c.In[0] + c1*c.In[1])
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "horseshoe",
			Needs:   NeedSqrt,
			Helpers: []string{"safe_div"},
			Emit: func(e *Emitter) {
				e.Line("let r = safe_div(w, pre_sqrt);")
				e.Line("v_out.x = (v_in.x - v_in.y) * (v_in.x + v_in.y) * r;")
				e.Line("v_out.y = 2.0 * v_in.x * v_in.y * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := c.Weight / Zeps(c.Pre.Sqrt)
				c.Out[0] = (c.In[0] - c.In[1]) * (c.In[0] + c.In[1]) * r
				c.Out[1] = 2 * c.In[0] * c.In[1] * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "polar",
			Needs: NeedSqrt | NeedAtanXY,
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * pre_atanxy * INV_PI;")
				e.Line("v_out.y = w * (pre_sqrt - 1.0);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.Pre.AtanXY * InvPi
				c.Out[1] = c.Weight * (c.Pre.Sqrt - 1)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "handkerchief",
			Needs: NeedSqrt | NeedAtanXY,
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * pre_sqrt * sin(pre_atanxy + pre_sqrt);")
				e.Line("v_out.y = w * pre_sqrt * cos(pre_atanxy - pre_sqrt);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.Pre.Sqrt * math32.Sin(c.Pre.AtanXY+c.Pre.Sqrt)
				c.Out[1] = c.Weight * c.Pre.Sqrt * math32.Cos(c.Pre.AtanXY-c.Pre.Sqrt)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "heart",
			Needs: NeedSqrt | NeedAtanXY,
			Emit: func(e *Emitter) {
				e.Line("let a = pre_sqrt * pre_atanxy;")
				e.Line("v_out.x = w * pre_sqrt * sin(a);")
				e.Line("v_out.y = -w * pre_sqrt * cos(a);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := c.Pre.Sqrt * c.Pre.AtanXY
				c.Out[0] = c.Weight * c.Pre.Sqrt * math32.Sin(a)
				c.Out[1] = -c.Weight * c.Pre.Sqrt * math32.Cos(a)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "disc",
			Needs: NeedSqrt | NeedAtanXY,
			Emit: func(e *Emitter) {
				e.Line("let a = pre_atanxy * INV_PI;")
				e.Line("let r = PI * pre_sqrt;")
				e.Line("v_out.x = w * sin(r) * a;")
				e.Line("v_out.y = w * cos(r) * a;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := c.Pre.AtanXY * InvPi
				r := Pi * c.Pre.Sqrt
				c.Out[0] = c.Weight * math32.Sin(r) * a
				c.Out[1] = c.Weight * math32.Cos(r) * a
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "spiral",
			Needs:   NeedAngles,
			Helpers: []string{"zeps"},
			Emit: func(e *Emitter) {
				e.Line("let r = zeps(pre_sqrt);")
				e.Line("let r1 = w / r;")
				e.Line("v_out.x = r1 * (pre_cosa + sin(r));")
				e.Line("v_out.y = r1 * (pre_sina - cos(r));")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := Zeps(c.Pre.Sqrt)
				r1 := c.Weight / r
				c.Out[0] = r1 * (c.Pre.CosA + math32.Sin(r))
				c.Out[1] = r1 * (c.Pre.SinA - math32.Cos(r))
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "hyperbolic",
			Needs:   NeedAngles,
			Helpers: []string{"zeps"},
			Emit: func(e *Emitter) {
				e.Line("let r = zeps(pre_sqrt);")
				e.Line("v_out.x = w * pre_sina / r;")
				e.Line("v_out.y = w * pre_cosa * r;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := Zeps(c.Pre.Sqrt)
				c.Out[0] = c.Weight * c.Pre.SinA / r
				c.Out[1] = c.Weight * c.Pre.CosA * r
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "diamond",
			Needs: NeedAngles,
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * pre_sina * cos(pre_sqrt);")
				e.Line("v_out.y = w * pre_cosa * sin(pre_sqrt);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.Pre.SinA * math32.Cos(c.Pre.Sqrt)
				c.Out[1] = c.Weight * c.Pre.CosA * math32.Sin(c.Pre.Sqrt)
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "bent",
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * select(v_in.x, v_in.x * 2.0, v_in.x < 0.0);")
				e.Line("v_out.y = w * select(v_in.y, v_in.y * 0.5, v_in.y < 0.0);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				x, y := c.In[0], c.In[1]
				if x < 0 {
					x *= 2
				}
				if y < 0 {
					y *= 0.5
				}
				c.Out[0] = c.Weight * x
				c.Out[1] = c.Weight * y
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "fisheye",
			Needs:   NeedSqrt,
			Helpers: []string{"swap_xy"},
			Emit: func(e *Emitter) {
				e.Line("let r = 2.0 * w / (pre_sqrt + 1.0);")
				e.Line("let s = swap_xy(v_in);")
				e.Line("v_out.x = r * s.x;")
				e.Line("v_out.y = r * s.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := 2 * c.Weight / (c.Pre.Sqrt + 1)
				c.Out[0] = r * c.In[1]
				c.Out[1] = r * c.In[0]
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "eyefish",
			Needs: NeedSqrt,
			Emit: func(e *Emitter) {
				e.Line("let r = 2.0 * w / (pre_sqrt + 1.0);")
				e.Line("v_out.x = r * v_in.x;")
				e.Line("v_out.y = r * v_in.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := 2 * c.Weight / (c.Pre.Sqrt + 1)
				c.Out[0] = r * c.In[0]
				c.Out[1] = r * c.In[1]
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "exponential",
			Emit: func(e *Emitter) {
				e.Line("let dx = w * exp(v_in.x - 1.0);")
				e.Line("let dy = PI * v_in.y;")
				e.Line("v_out.x = dx * cos(dy);")
				e.Line("v_out.y = dx * sin(dy);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				dx := c.Weight * math32.Exp(c.In[0]-1)
				dy := Pi * c.In[1]
				c.Out[0] = dx * math32.Cos(dy)
				c.Out[1] = dx * math32.Sin(dy)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "power",
			Needs: NeedAngles,
			Emit: func(e *Emitter) {
				e.Line("let r = w * pow(pre_sqrt, pre_sina);")
				e.Line("v_out.x = r * pre_cosa;")
				e.Line("v_out.y = r * pre_sina;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				r := c.Weight * math32.Pow(c.Pre.Sqrt, c.Pre.SinA)
				c.Out[0] = r * c.Pre.CosA
				c.Out[1] = r * c.Pre.SinA
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "cosine",
			Emit: func(e *Emitter) {
				e.Line("let a = v_in.x * PI;")
				e.Line("v_out.x = w * cos(a) * cosh(v_in.y);")
				e.Line("v_out.y = -w * sin(a) * sinh(v_in.y);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := c.In[0] * Pi
				c.Out[0] = c.Weight * math32.Cos(a) * math32.Cosh(c.In[1])
				c.Out[1] = -c.Weight * math32.Sin(a) * math32.Sinh(c.In[1])
				c.DefaultZ()
			},
		},
		&Spec{
			Name:  "bubble",
			Needs: NeedSumSquares,
			Emit: func(e *Emitter) {
				e.Line("let denom = 0.25 * pre_sumsq + 1.0;")
				e.Line("let r = w / denom;")
				e.Line("v_out.x = r * v_in.x;")
				e.Line("v_out.y = r * v_in.y;")
				e.Line("v_out.z = w * (2.0 / denom - 1.0);")
			},
			Eval: func(c *Ctx) {
				denom := 0.25*c.Pre.SumSq + 1
				r := c.Weight / denom
				c.Out[0] = r * c.In[0]
				c.Out[1] = r * c.In[1]
				c.Out[2] = c.Weight * (2/denom - 1)
			},
		},
		&Spec{
			Name: "cylinder",
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * sin(v_in.x);")
				e.Line("v_out.y = w * v_in.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * math32.Sin(c.In[0])
				c.Out[1] = c.Weight * c.In[1]
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "hemisphere",
			Needs:   NeedSumSquares,
			Helpers: []string{"safe_sqrt"},
			Emit: func(e *Emitter) {
				e.Line("let r = w / safe_sqrt(pre_sumsq + 1.0);")
				e.Line("v_out.x = r * v_in.x;")
				e.Line("v_out.y = r * v_in.y;")
				e.Line("v_out.z = r;")
			},
			Eval: func(c *Ctx) {
				r := c.Weight / safeSqrt(c.Pre.SumSq+1)
				c.Out[0] = r * c.In[0]
				c.Out[1] = r * c.In[1]
				c.Out[2] = r
			},
		},
		&Spec{
			Name:    "cross",
			Helpers: []string{"sqr", "zeps", "safe_sqrt"},
			Emit: func(e *Emitter) {
				e.Line("let s = v_in.x * v_in.x - v_in.y * v_in.y;")
				e.Line("let r = w * safe_sqrt(1.0 / zeps(sqr(s)));")
				e.Line("v_out.x = r * v_in.x;")
				e.Line("v_out.y = r * v_in.y;")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				s := c.In[0]*c.In[0] - c.In[1]*c.In[1]
				r := c.Weight * safeSqrt(1/Zeps(sqr(s)))
				c.Out[0] = r * c.In[0]
				c.Out[1] = r * c.In[1]
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "ex",
			Needs:   NeedSqrt | NeedAtanXY,
			Helpers: []string{"cube"},
			Emit: func(e *Emitter) {
				e.Line("let m0 = cube(sin(pre_atanxy + pre_sqrt)) * pre_sqrt;")
				e.Line("let m1 = cube(cos(pre_atanxy - pre_sqrt)) * pre_sqrt;")
				e.Line("v_out.x = w * (m0 + m1);")
				e.Line("v_out.y = w * (m0 - m1);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				m0 := cube(math32.Sin(c.Pre.AtanXY+c.Pre.Sqrt)) * c.Pre.Sqrt
				m1 := cube(math32.Cos(c.Pre.AtanXY-c.Pre.Sqrt)) * c.Pre.Sqrt
				c.Out[0] = c.Weight * (m0 + m1)
				c.Out[1] = c.Weight * (m0 - m1)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "elliptic",
			Needs:   NeedSumSquares,
			Helpers: []string{"safe_sqrt", "sign_nz"},
			Emit: func(e *Emitter) {
				e.Line("let t = pre_sumsq + 1.0;")
				e.Line("let x2 = 2.0 * v_in.x;")
				e.Line("let xmax = 0.5 * (safe_sqrt(t + x2) + safe_sqrt(t - x2));")
				e.Line("let a = v_in.x / xmax;")
				e.Line("let b = safe_sqrt(1.0 - a * a);")
				e.Line("let ssx = safe_sqrt(xmax - 1.0);")
				e.Line("let we = w * 2.0 * INV_PI;")
				e.Line("v_out.x = we * atan2(a, b);")
				e.Line("v_out.y = sign_nz(v_in.y) * we * log(xmax + ssx);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				t := c.Pre.SumSq + 1
				x2 := 2 * c.In[0]
				xmax := 0.5 * (safeSqrt(t+x2) + safeSqrt(t-x2))
				a := c.In[0] / xmax
				b := safeSqrt(1 - a*a)
				ssx := safeSqrt(xmax - 1)
				we := c.Weight * 2 * InvPi
				c.Out[0] = we * math32.Atan2(a, b)
				c.Out[1] = signNZ(c.In[1]) * we * math32.Log(xmax+ssx)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:    "tangent",
			Helpers: []string{"zeps", "clamp_sign"},
			Shared:  "const TANGENT_LIMIT: f32 = 1e8;",
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * clamp_sign(sin(v_in.x) / zeps(cos(v_in.y)), TANGENT_LIMIT);")
				e.Line("v_out.y = w * clamp_sign(tan(v_in.y), TANGENT_LIMIT);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * clampSign(math32.Sin(c.In[0])/Zeps(math32.Cos(c.In[1])), tangentLimit)
				c.Out[1] = c.Weight * clampSign(math32.Tan(c.In[1]), tangentLimit)
				c.DefaultZ()
			},
		},
		&Spec{
			// Polar with the radius signed by x.
			Name:    "signed_polar",
			Needs:   NeedAtanXY,
			Helpers: []string{"spread"},
			Emit: func(e *Emitter) {
				e.Line("v_out.x = w * pre_atanxy * INV_PI;")
				e.Line("v_out.y = w * (spread(v_in.x, v_in.y) - 1.0);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				c.Out[0] = c.Weight * c.Pre.AtanXY * InvPi
				c.Out[1] = c.Weight * (spread(c.In[0], c.In[1]) - 1)
				c.DefaultZ()
			},
		},
	)
}
