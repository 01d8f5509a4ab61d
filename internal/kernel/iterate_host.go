// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/variation"
)

// hostVar is one variation instance bound to its packed slots.
type hostVar struct {
	inst   *variation.Instance
	weight int // index into XformData.VarWeights
	params int
	nparam int
	state  int
	nstate int
}

type hostXform struct {
	pre, regular, post []hostVar
	regularNeeds       variation.Needs
	hasPost            bool
}

// iterPlan is the host form of one generated iteration program. It reads
// everything that is not structural from the bound buffers, like the
// kernel does.
type iterPlan struct {
	xforms     []hostXform
	nxf        int
	final      bool
	xaos       bool
	projection flame.Projection
	linear     bool
	lock       bool
	stride     int

	// selectHook, when set, observes every transform selection as
	// (group, thread, xform).
	selectHook func(group, thread int, xf uint32)
}

func newIterPlan(f *flame.Flame, l ParamLayout, opts IterOptions) *iterPlan {
	p := &iterPlan{
		nxf:        len(f.Xforms),
		final:      f.HasFinal(),
		xaos:       f.HasXaos(),
		projection: f.Projection(),
		linear:     f.Palette.Mode == flame.PaletteLinear,
		lock:       opts.Lock,
		stride:     l.StateStride,
	}
	param, state := 0, 0
	for _, x := range f.AllXforms() {
		var hx hostXform
		hx.hasPost = x.HasPost()
		for k, v := range x.Ordered() {
			hv := hostVar{
				inst:   v,
				weight: k,
				params: param,
				nparam: len(v.Spec().Params),
				state:  state,
				nstate: len(v.Spec().State),
			}
			param += hv.nparam
			state += hv.nstate
			switch v.Phase() {
			case variation.PhasePre:
				hx.pre = append(hx.pre, hv)
			case variation.PhasePost:
				hx.post = append(hx.post, hv)
			default:
				hx.regular = append(hx.regular, hv)
				hx.regularNeeds |= v.Spec().Needs
			}
		}
		hx.regularNeeds = hx.regularNeeds.Normalize()
		p.xforms = append(p.xforms, hx)
	}
	return p
}

// iterArgs are the decoded bindings of one launch.
type iterArgs struct {
	fd      gpudata.FlameData
	xforms  []gpudata.XformData
	params  []float32
	dist    []uint32
	cm      gpudata.CoordMap
	palette *Image
	ip      gpudata.IterParams
	seeds   []uint32
	points  []uint32
	state   []uint32
	hist    []uint32
}

// hostThread is the private state of one virtual thread.
type hostThread struct {
	rng   MWC
	p     [3]float32
	color float32
	last  uint32
	sbase int
	state []float32
	ctx   variation.Ctx
}

func (p *iterPlan) decode(l *Launch) (*iterArgs, error) {
	a := &iterArgs{}
	if err := l.uniform(IterFlame, &a.fd); err != nil {
		return nil, err
	}
	if err := l.uniform(IterCoordMap, &a.cm); err != nil {
		return nil, err
	}
	if err := l.uniform(IterIter, &a.ip); err != nil {
		return nil, err
	}
	xw, err := l.words(IterXforms)
	if err != nil {
		return nil, err
	}
	a.xforms = make([]gpudata.XformData, len(p.xforms))
	size := gpudata.Size(gpudata.XformData{}) / 4
	if len(xw) < size*len(a.xforms) {
		return nil, fmt.Errorf("kernel: iterate: %d transform records in %d words", len(a.xforms), len(xw))
	}
	for i := range a.xforms {
		if err := gpudata.Decode(wordBytes(xw[i*size:(i+1)*size]), &a.xforms[i]); err != nil {
			return nil, err
		}
	}
	pw, err := l.words(IterParams)
	if err != nil {
		return nil, err
	}
	a.params = floats(pw)
	if a.dist, err = l.words(IterDist); err != nil {
		return nil, err
	}
	if a.palette, err = l.image(IterPalette); err != nil {
		return nil, err
	}
	if len(a.palette.Pix) < flame.PaletteSize*4 {
		return nil, fmt.Errorf("kernel: iterate: palette has %d values", len(a.palette.Pix))
	}
	if a.seeds, err = l.words(IterSeeds); err != nil {
		return nil, err
	}
	if a.points, err = l.words(IterPoints); err != nil {
		return nil, err
	}
	if a.state, err = l.words(IterState); err != nil {
		return nil, err
	}
	if a.hist, err = l.words(IterHist); err != nil {
		return nil, err
	}
	return a, nil
}

func wordBytes(w []uint32) []byte {
	b := make([]byte, 0, len(w)*4)
	for _, x := range w {
		b = append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	return b
}

func floats(w []uint32) []float32 {
	out := make([]float32, len(w))
	for i, x := range w {
		out[i] = f32(x)
	}
	return out
}

// run executes one launch. Work-groups run concurrently; the threads of a
// group advance in lockstep, one iteration at a time, so the row-shared
// selection and the shuffle behave as on a device.
func (p *iterPlan) run(l *Launch) error {
	a, err := p.decode(l)
	if err != nil {
		return err
	}
	groups := l.Groups()
	threads := l.Grid[0] * l.Grid[1]
	if len(a.seeds) < 2*threads || len(a.points) < 8*threads {
		return fmt.Errorf("kernel: iterate: buffers too small for %d threads", threads)
	}
	if need := threads * p.stride; len(a.state) < need {
		return fmt.Errorf("kernel: iterate: state buffer %d words, need %d", len(a.state), need)
	}
	l.ForGroups(func(gx, gy int) {
		p.runGroup(a, gx, gy, groups[0])
	})
	return nil
}

func (p *iterPlan) runGroup(a *iterArgs, gx, gy, ngx int) {
	var th [GroupSize]hostThread
	group := gy*ngx + gx
	for li := range th {
		t := &th[li]
		tid := threadID(li, gx, gy, ngx)
		t.rng = MWC{Z: a.seeds[2*tid], W: a.seeds[2*tid+1]}
		t.sbase = tid * p.stride
		t.state = make([]float32, p.stride)
		for i := range t.state {
			t.state[i] = f32(a.state[t.sbase+i])
		}
		t.ctx.Rand = &t.rng
	}

	skip := uint32(0)
	if a.ip.Fuse != 0 {
		for li := range th {
			t := &th[li]
			t.p = [3]float32{t.rng.Float11(), t.rng.Float11(), 0}
			t.color = t.rng.Float01()
			t.last = 0
			p.initState(t)
		}
		skip = a.ip.FuseCount
	} else {
		for li := range th {
			t := &th[li]
			tid := threadID(li, gx, gy, ngx)
			var pt gpudata.Point
			_ = gpudata.Decode(wordBytes(a.points[tid*8:tid*8+8]), &pt)
			t.p = [3]float32{pt.X, pt.Y, pt.Z}
			t.color = pt.ColorX
			t.last = pt.LastXf
		}
	}

	var rows [BlockY]uint32
	var swapP [GroupSize][4]float32
	var swapLast [GroupSize]uint32
	total := a.ip.ItersPerThread + skip
	for i := uint32(0); i < total; i++ {
		for ly := range rows {
			t := &th[ly*BlockX]
			rows[ly] = p.choose(a, &t.rng, t.last)
		}
		off := th[0].rng.Uint32()

		for li := range th {
			t := &th[li]
			xf := rows[li/BlockX]
			if p.selectHook != nil {
				p.selectHook(group, li, xf)
			}
			r := p.step(a, t, xf)
			dst := (uint32(li)*swapStride + off) & (GroupSize - 1)
			swapP[dst] = r
			swapLast[dst] = xf + 1
		}
		for li := range th {
			t := &th[li]
			t.p = [3]float32{swapP[li][0], swapP[li][1], swapP[li][2]}
			t.color = swapP[li][3]
			t.last = swapLast[li]
		}
		if i >= skip {
			for li := range th {
				p.accumulate(a, &th[li])
			}
		}
	}

	for li := range th {
		t := &th[li]
		tid := threadID(li, gx, gy, ngx)
		a.seeds[2*tid], a.seeds[2*tid+1] = t.rng.Z, t.rng.W
		pt := gpudata.Point{X: t.p[0], Y: t.p[1], Z: t.p[2], ColorX: t.color, LastXf: t.last}
		b := gpudata.Encode(pt)
		for j := range 8 {
			a.points[tid*8+j] = uint32(b[4*j]) | uint32(b[4*j+1])<<8 | uint32(b[4*j+2])<<16 | uint32(b[4*j+3])<<24
		}
		for j, v := range t.state {
			a.state[t.sbase+j] = u32bits(v)
		}
	}
}

func threadID(li, gx, gy, ngx int) int {
	lx, ly := li%BlockX, li/BlockX
	return (gy*BlockY+ly)*(ngx*BlockX) + gx*BlockX + lx
}

func (p *iterPlan) choose(a *iterArgs, rng *MWC, last uint32) uint32 {
	r := rng.Uint32() & (gpudata.Grain - 1)
	row := uint32(0)
	if p.xaos {
		row = last
	}
	return a.dist[row*gpudata.Grain+r]
}

func (p *iterPlan) initState(t *hostThread) {
	for _, hx := range p.xforms {
		for _, group := range [][]hostVar{hx.pre, hx.regular, hx.post} {
			for _, hv := range group {
				spec := hv.inst.Spec()
				if spec.InitState == nil {
					continue
				}
				t.ctx.S = t.state[hv.state : hv.state+hv.nstate]
				t.ctx.Phase = hv.inst.Phase()
				spec.InitState(&t.ctx)
			}
		}
	}
}

func (p *iterPlan) step(a *iterArgs, t *hostThread, xf uint32) [4]float32 {
	pt := t.p
	for range MaxRetry {
		c := t.color
		q := p.apply(a, t, xf, pt, &c)
		if !badPoint(q) {
			return [4]float32{q[0], q[1], q[2], c}
		}
		pt = [3]float32{t.rng.Float11(), t.rng.Float11(), 0}
	}
	return [4]float32{pt[0], pt[1], pt[2], t.color}
}

func badVal(v float32) bool {
	return math32.Float32bits(v)&0x7f800000 == 0x7f800000 || math32.Abs(v) > 1e10
}

func badPoint(p [3]float32) bool {
	return badVal(p[0]) || badVal(p[1]) || badVal(p[2])
}

func (p *iterPlan) runVar(a *iterArgs, t *hostThread, xd *gpudata.XformData, hv hostVar, in [3]float32, pre variation.Precalc) [3]float32 {
	c := &t.ctx
	c.In = in
	c.Out = [3]float32{}
	c.Weight = xd.VarWeights[hv.weight]
	c.P = a.params[hv.params : hv.params+hv.nparam]
	c.S = t.state[hv.state : hv.state+hv.nstate]
	c.Pre = pre
	c.Phase = hv.inst.Phase()
	hv.inst.Spec().Eval(c)
	return c.Out
}

func combine(dst *[3]float32, out [3]float32, a variation.Assign) {
	if a == variation.AssignSum {
		dst[0] += out[0]
		dst[1] += out[1]
		dst[2] += out[2]
		return
	}
	*dst = out
}

// apply evaluates transform xf on pt, the host form of xform_<xf>.
func (p *iterPlan) apply(a *iterArgs, t *hostThread, xf uint32, pt [3]float32, color *float32) [3]float32 {
	if int(xf) >= len(p.xforms) {
		return pt
	}
	hx := &p.xforms[xf]
	xd := &a.xforms[xf]
	aff := [3]float32{
		xd.A*pt[0] + xd.B*pt[1] + xd.C,
		xd.D*pt[0] + xd.E*pt[1] + xd.F,
		pt[2],
	}
	temp := xd.ColorSpeedCache + xd.OneMinusColorCache*(*color)
	t.ctx.Color = temp

	for _, hv := range hx.pre {
		out := p.runVar(a, t, xd, hv, aff, variation.ComputePrecalc(aff, hv.inst.Spec().Needs.Normalize()))
		combine(&aff, out, hv.inst.Spec().Assign)
	}
	var acc [3]float32
	if len(hx.regular) > 0 {
		pre := variation.ComputePrecalc(aff, hx.regularNeeds)
		for _, hv := range hx.regular {
			out := p.runVar(a, t, xd, hv, aff, pre)
			combine(&acc, out, variation.AssignSum)
		}
	}
	for _, hv := range hx.post {
		out := p.runVar(a, t, xd, hv, acc, variation.ComputePrecalc(acc, hv.inst.Spec().Needs.Normalize()))
		combine(&acc, out, hv.inst.Spec().Assign)
	}
	if hx.hasPost {
		acc = [3]float32{
			xd.PA*acc[0] + xd.PB*acc[1] + xd.PC,
			xd.PD*acc[0] + xd.PE*acc[1] + xd.PF,
			acc[2],
		}
	}
	*color = temp + xd.DirectColor*(t.ctx.Color-temp)
	return acc
}

func (p *iterPlan) project(fd *gpudata.FlameData, rng *MWC, pt [3]float32) [3]float32 {
	m := &fd.CamMat
	z := pt[2] - fd.CamZPos
	switch pr := p.projection; {
	case pr == 0:
		return pt
	case pr&flame.ProjectionBlur != 0 && pr&flame.ProjectionYaw != 0:
		t := rng.Float01() * variation.TwoPi
		x := m[0]*pt[0] + m[3]*pt[1]
		y := m[1]*pt[0] + m[4]*pt[1] + m[7]*z
		zz := m[2]*pt[0] + m[5]*pt[1] + m[8]*z
		zr := variation.Zeps(1 - fd.Persp*zz)
		dr := rng.Float01() * fd.BlurCoef * zz
		return [3]float32{(x + dr*math32.Cos(t)) / zr, (y + dr*math32.Sin(t)) / zr, z}
	case pr&flame.ProjectionBlur != 0:
		t := rng.Float01() * variation.TwoPi
		y := m[4]*pt[1] + m[7]*z
		zz := m[5]*pt[1] + m[8]*z
		zr := variation.Zeps(1 - fd.Persp*zz)
		dr := rng.Float01() * fd.BlurCoef * zz
		return [3]float32{(pt[0] + dr*math32.Cos(t)) / zr, (y + dr*math32.Sin(t)) / zr, z}
	case pr&flame.ProjectionYaw != 0:
		x := m[0]*pt[0] + m[3]*pt[1]
		y := m[1]*pt[0] + m[4]*pt[1] + m[7]*z
		zr := variation.Zeps(1 - fd.Persp*(m[2]*pt[0]+m[5]*pt[1]+m[8]*z))
		return [3]float32{x / zr, y / zr, z}
	case pr&flame.ProjectionPitch != 0:
		y := m[4]*pt[1] + m[7]*z
		zr := variation.Zeps(1 - fd.Persp*(m[5]*pt[1]+m[8]*z))
		return [3]float32{pt[0] / zr, y / zr, z}
	default:
		zr := variation.Zeps(1 - fd.Persp*z)
		return [3]float32{pt[0] / zr, pt[1] / zr, z}
	}
}

func (p *iterPlan) paletteColor(img *Image, c float32) [4]float32 {
	at := func(i uint32) [4]float32 {
		j := int(i) * 4
		return [4]float32{img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3]}
	}
	if !p.linear {
		return at(min(toU32(c*256), 255))
	}
	pos := max(c, 0) * 256
	i := min(toU32(pos), 255)
	e0 := at(i)
	if i == 255 {
		return e0
	}
	e1 := at(i + 1)
	f := pos - float32(i)
	for k := range e0 {
		e0[k] += (e1[k] - e0[k]) * f
	}
	return e0
}

// accumulate is the host form of accumulate_point.
func (p *iterPlan) accumulate(a *iterArgs, t *hostThread) {
	pt := t.p
	c := t.color
	if p.final {
		fx := &a.xforms[p.nxf]
		if fx.Opacity == 1 || t.rng.Float01() < fx.Opacity {
			pt = p.apply(a, t, uint32(p.nxf), pt, &c)
			if badPoint(pt) {
				return
			}
		}
	}
	q := p.project(&a.fd, &t.rng, pt)
	ix, iy, ok := a.cm.Raster(q[0], q[1])
	if !ok {
		return
	}
	op := a.xforms[max(t.last, 1)-1].VizOpacity
	if op == 0 {
		return
	}
	v := p.paletteColor(a.palette, c)
	bi := int(iy*a.cm.RasW+ix) * 4
	if bi+3 >= len(a.hist) {
		return
	}
	for k := range v {
		atomicAddF32(&a.hist[bi+k], v[k]*op)
	}
}

// atomicAddF32 adds v to the float stored in w with a compare-and-swap
// loop, like the locked kernel variant. Host launches always use it since
// work-groups run concurrently.
func atomicAddF32(w *uint32, v float32) {
	for {
		old := atomic.LoadUint32(w)
		if atomic.CompareAndSwapUint32(w, old, u32bits(f32(old)+v)) {
			return
		}
	}
}
