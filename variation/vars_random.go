package variation

import "github.com/chewxy/math32"

// Variations drawing from the thread RNG. Draws are made in statement order
// so the WGSL and host evaluations consume the generator identically.

func init() {
	register(
		&Spec{
			Name:  "julia",
			Needs: NeedSqrt | NeedAtanYX,
			Emit: func(e *Emitter) {
				e.Line("var a = 0.5 * pre_atanyx;")
				e.Line("if ((rand_u32(mwc) & 1u) != 0u) {")
				e.Line("    a += PI;")
				e.Line("}")
				e.Line("let r = w * sqrt(pre_sqrt);")
				e.Line("v_out.x = r * cos(a);")
				e.Line("v_out.y = r * sin(a);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := 0.5 * c.Pre.AtanYX
				if c.Rand.Uint32()&1 != 0 {
					a += Pi
				}
				r := c.Weight * math32.Sqrt(c.Pre.Sqrt)
				c.Out[0] = r * math32.Cos(a)
				c.Out[1] = r * math32.Sin(a)
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "noise",
			Emit: func(e *Emitter) {
				e.Line("let a = rand01(mwc) * TWO_PI;")
				e.Line("let r = w * rand01(mwc);")
				e.Line("v_out.x = v_in.x * r * cos(a);")
				e.Line("v_out.y = v_in.y * r * sin(a);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := c.Rand.Float01() * TwoPi
				r := c.Weight * c.Rand.Float01()
				c.Out[0] = c.In[0] * r * math32.Cos(a)
				c.Out[1] = c.In[1] * r * math32.Sin(a)
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "blur",
			Emit: func(e *Emitter) {
				e.Line("let a = rand01(mwc) * TWO_PI;")
				e.Line("let r = w * rand01(mwc);")
				e.Line("v_out.x = r * cos(a);")
				e.Line("v_out.y = r * sin(a);")
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				a := c.Rand.Float01() * TwoPi
				r := c.Weight * c.Rand.Float01()
				c.Out[0] = r * math32.Cos(a)
				c.Out[1] = r * math32.Sin(a)
				c.DefaultZ()
			},
		},
		&Spec{
			Name: "gaussian_blur",
			Emit: func(e *Emitter) {
				emitGaussian(e)
				e.DefaultZ()
			},
			Eval: func(c *Ctx) {
				evalGaussian(c)
				c.DefaultZ()
			},
		},
		&Spec{
			Name:   "pre_blur",
			Phase:  PhasePre,
			Assign: AssignSum,
			Emit: func(e *Emitter) {
				emitGaussian(e)
				e.Line("v_out.z = 0.0;")
			},
			Eval: func(c *Ctx) {
				evalGaussian(c)
				c.Out[2] = 0
			},
		},
	)
}

func emitGaussian(e *Emitter) {
	e.Line("let a = rand01(mwc) * TWO_PI;")
	e.Line("var g = rand01(mwc);")
	e.Line("g += rand01(mwc);")
	e.Line("g += rand01(mwc);")
	e.Line("g += rand01(mwc);")
	e.Line("let r = w * (g - 2.0);")
	e.Line("v_out.x = r * cos(a);")
	e.Line("v_out.y = r * sin(a);")
}

func evalGaussian(c *Ctx) {
	a := c.Rand.Float01() * TwoPi
	g := c.Rand.Float01()
	g += c.Rand.Float01()
	g += c.Rand.Float01()
	g += c.Rand.Float01()
	r := c.Weight * (g - 2)
	c.Out[0] = r * math32.Cos(a)
	c.Out[1] = r * math32.Sin(a)
}
