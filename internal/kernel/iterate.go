// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/internal/funcs"
	"github.com/gogpu/flame/internal/gpudata"
	"github.com/gogpu/flame/variation"
)

//go:embed shaders/iterate_common.wgsl
var shaderIterateCommon string

//go:embed shaders/iterate_entry.wgsl
var shaderIterateEntry string

// EntryIterate is the entry point of every iteration program.
const EntryIterate = "iterate"

// Work-group shape of the iteration kernel. Each row of BlockX threads
// shares one transform choice per step.
const (
	BlockX = 32
	BlockY = 8

	// GroupSize is the number of threads sharing the shuffle buffers.
	GroupSize = BlockX * BlockY

	// MaxRetry is the number of attempts to replace a non-finite point.
	MaxRetry = 5

	// swapStride is odd, so lidx*swapStride+off is a permutation mod
	// GroupSize.
	swapStride = 37
)

// Iteration program bindings, in @binding order.
var iterBindings = []Binding{
	{Name: "flame", Kind: BindUniform},
	{Name: "xforms", Kind: BindStorageRead},
	{Name: "params", Kind: BindStorageRead},
	{Name: "dist", Kind: BindStorageRead},
	{Name: "cmap", Kind: BindUniform},
	{Name: "palette", Kind: BindTexture},
	{Name: "iter", Kind: BindUniform},
	{Name: "seeds", Kind: BindStorage},
	{Name: "points", Kind: BindStorage},
	{Name: "state", Kind: BindStorage},
	{Name: "hist", Kind: BindStorage},
}

// Binding indices of the iteration program.
const (
	IterFlame = iota
	IterXforms
	IterParams
	IterDist
	IterCoordMap
	IterPalette
	IterIter
	IterSeeds
	IterPoints
	IterState
	IterHist
)

// IterOptions selects variants of the iteration program.
type IterOptions struct {
	// Lock accumulates with atomic compare-and-swap loops instead of plain
	// read-modify-write.
	Lock bool
}

// Generator emits the programs of a renderer. It is safe for concurrent
// use.
type Generator struct {
	funcs *funcs.Registry
}

// NewGenerator returns a generator drawing helpers from reg.
func NewGenerator(reg *funcs.Registry) *Generator {
	return &Generator{funcs: reg}
}

// Iterate builds the chaos game program specialized for the structure of f.
// The program stays valid for any flame with the same Signature.
func (g *Generator) Iterate(f *flame.Flame, opts IterOptions) (*Program, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	all := f.AllXforms()
	layout := Pack(f)

	b := NewBuilder()
	iterHeader(b, f, layout)
	b.Add(SlotStructs, wgslFlameData)
	b.Add(SlotStructs, wgslXformData)
	b.Add(SlotStructs, wgslCoordMap)
	b.Add(SlotStructs, wgslIterParams)
	b.Add(SlotStructs, wgslPoint)
	iterBindingDecls(b, opts.Lock)

	b.Once(SlotHelpers, "rand", shaderRand)
	helpers := []string{"zeps"}
	for _, x := range all {
		for _, v := range x.Ordered() {
			helpers = append(helpers, v.Spec().Helpers...)
			if s := v.Spec().Shared; s != "" {
				b.Once(SlotHelpers, "shared:"+v.Spec().Name, s)
			}
		}
	}
	src, err := g.funcs.Source(helpers...)
	if err != nil {
		return nil, fmt.Errorf("kernel: iterate: %w", err)
	}
	b.Add(SlotHelpers, src)

	for xi, x := range all {
		b.Add(SlotXforms, xformFunc(xi, x))
	}
	b.Add(SlotXforms, applyFunc(len(all)))
	b.Add(SlotXforms, chooseFunc(f.HasXaos()))
	b.Add(SlotXforms, initStateFunc(all))
	b.Add(SlotXforms, paletteFunc(f.Palette.Mode))
	b.Add(SlotXforms, projectFunc(f.Projection()))
	b.Add(SlotXforms, shaderIterateCommon)
	b.Add(SlotXforms, accumulateFunc(f, opts.Lock))
	b.Add(SlotEntry, shaderIterateEntry)

	plan := newIterPlan(f, layout, opts)
	return &Program{
		Entry:     EntryIterate,
		Source:    b.String(),
		Bindings:  iterBindings,
		Workgroup: [2]int{BlockX, BlockY},
		Host:      plan.run,
	}, nil
}

func iterHeader(b *Builder, f *flame.Flame, l ParamLayout) {
	b.Addf(SlotHeader, "const EPS: f32 = %s;", wgslFloat(variation.Eps))
	b.Addf(SlotHeader, "const PI: f32 = %s;", wgslFloat(variation.Pi))
	b.Addf(SlotHeader, "const TWO_PI: f32 = %s;", wgslFloat(variation.TwoPi))
	b.Addf(SlotHeader, "const INV_PI: f32 = %s;", wgslFloat(variation.InvPi))
	b.Addf(SlotHeader, "const GRAIN: u32 = %du;", gpudata.Grain)
	b.Addf(SlotHeader, "const MAX_RETRY: u32 = %du;", MaxRetry)
	b.Addf(SlotHeader, "const SWAP_STRIDE: u32 = %du;", swapStride)
	b.Addf(SlotHeader, "const XFORM_COUNT: u32 = %du;", len(f.Xforms))
	b.Addf(SlotHeader, "const FINAL_INDEX: u32 = %du;", len(f.Xforms))
	b.Addf(SlotHeader, "const STATE_STRIDE: u32 = %du;", l.StateStride)

	for _, s := range l.Params {
		b.Addf(SlotConsts, "const %s: u32 = %du;", s.Const, s.Offset)
	}
	for _, s := range l.State {
		b.Addf(SlotConsts, "const %s: u32 = %du;", s.Const, s.Offset)
	}
}

func iterBindingDecls(b *Builder, lock bool) {
	hist := "array<vec4<f32>>"
	if lock {
		hist = "array<atomic<u32>>"
	}
	decls := []string{
		"var<uniform> flame: FlameData;",
		"var<storage, read> xforms: array<XformData>;",
		"var<storage, read> params: array<f32>;",
		"var<storage, read> dist: array<u32>;",
		"var<uniform> cmap: CoordMap;",
		"var palette: texture_2d<f32>;",
		"var<uniform> iter: IterParams;",
		"var<storage, read_write> seeds: array<vec2<u32>>;",
		"var<storage, read_write> points: array<Point>;",
		"var<storage, read_write> state: array<f32>;",
		"var<storage, read_write> hist: " + hist + ";",
	}
	for i, d := range decls {
		b.Addf(SlotBindings, "@group(0) @binding(%d) %s", i, d)
	}
}

// wgslFloat formats v as an f32 literal that round-trips.
func wgslFloat(v float32) string {
	s := fmt.Sprintf("%.9g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// =============================================================================
// Transform functions
// =============================================================================

// precalcLines declares the pre_* values of needs for point v_in. Values not
// needed are declared zero so every variation body compiles.
func precalcLines(needs variation.Needs, indent string) []string {
	needs = needs.Normalize()
	val := func(n variation.Needs, expr string) string {
		if needs.Has(n) {
			return expr
		}
		return "0.0"
	}
	return []string{
		indent + "let pre_sumsq = " + val(variation.NeedSumSquares, "v_in.x * v_in.x + v_in.y * v_in.y") + ";",
		indent + "let pre_sqrt = " + val(variation.NeedSqrt, "sqrt(pre_sumsq)") + ";",
		indent + "let pre_sina = " + val(variation.NeedAngles, "v_in.x / zeps(pre_sqrt)") + ";",
		indent + "let pre_cosa = " + val(variation.NeedAngles, "v_in.y / zeps(pre_sqrt)") + ";",
		indent + "let pre_atanxy = " + val(variation.NeedAtanXY, "atan2(v_in.x, v_in.y)") + ";",
		indent + "let pre_atanyx = " + val(variation.NeedAtanYX, "atan2(v_in.y, v_in.x)") + ";",
	}
}

func phaseNeeds(vars []*variation.Instance, phase variation.Phase) variation.Needs {
	var n variation.Needs
	for _, v := range vars {
		if v.Phase() == phase {
			n |= v.Spec().Needs
		}
	}
	return n
}

// varBlock emits one variation applied to input, then writeback.
func varBlock(sb *strings.Builder, xi, k int, v *variation.Instance, input string, writeback string) {
	fmt.Fprintf(sb, "    // %s\n", v.Name())
	sb.WriteString("    {\n")
	fmt.Fprintf(sb, "        let v_in = %s;\n", input)
	for _, l := range precalcLines(v.Spec().Needs, "        ") {
		sb.WriteString(l + "\n")
	}
	sb.WriteString("        var v_out = vec3<f32>(0.0);\n")
	sb.WriteString("        {\n")
	fmt.Fprintf(sb, "            let w = xfd.var_weights[%du];\n", k)
	e := variation.NewEmitter(v, xi, "            ")
	v.Spec().Emit(e)
	for _, l := range e.Lines() {
		sb.WriteString(l + "\n")
	}
	sb.WriteString("        }\n")
	fmt.Fprintf(sb, "        %s\n", writeback)
	sb.WriteString("    }\n")
}

func writesColor(vars []*variation.Instance) bool {
	for _, v := range vars {
		if v.Spec().DirectColor {
			return true
		}
	}
	return false
}

func assignWriteback(target string, a variation.Assign) string {
	if a == variation.AssignSum {
		return target + " = " + target + " + v_out;"
	}
	return target + " = v_out;"
}

// xformFunc emits xform_<xi>: affine, pre variations on the affine point,
// regular variations summed into the output, post variations on the sum,
// post affine, then color blending.
func xformFunc(xi int, x *flame.Xform) string {
	vars := x.Ordered()
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn xform_%d(p: vec3<f32>, color: ptr<function, f32>, mwc: ptr<function, vec2<u32>>, sbase: u32) -> vec3<f32> {\n", xi)
	fmt.Fprintf(&sb, "    let xfd = xforms[%du];\n", xi)
	sb.WriteString("    var p_aff = vec3<f32>(xfd.a * p.x + xfd.b * p.y + xfd.c, xfd.d * p.x + xfd.e * p.y + xfd.f, p.z);\n")
	sb.WriteString("    let temp_color = xfd.color_speed_cache + xfd.one_minus_color_cache * (*color);\n")
	if writesColor(vars) {
		sb.WriteString("    var out_color = temp_color;\n")
	} else {
		sb.WriteString("    let out_color = temp_color;\n")
	}
	sb.WriteString("    var p_acc = vec3<f32>(0.0);\n")

	for k, v := range vars {
		if v.Phase() == variation.PhasePre {
			varBlock(&sb, xi, k, v, "p_aff", assignWriteback("p_aff", v.Spec().Assign))
		}
	}

	if hasPhase(vars, variation.PhaseRegular) {
		sb.WriteString("    {\n")
		sb.WriteString("        let v_in = p_aff;\n")
		for _, l := range precalcLines(phaseNeeds(vars, variation.PhaseRegular), "        ") {
			sb.WriteString(l + "\n")
		}
		for k, v := range vars {
			if v.Phase() != variation.PhaseRegular {
				continue
			}
			fmt.Fprintf(&sb, "        // %s\n", v.Name())
			sb.WriteString("        {\n")
			sb.WriteString("            var v_out = vec3<f32>(0.0);\n")
			sb.WriteString("            {\n")
			fmt.Fprintf(&sb, "                let w = xfd.var_weights[%du];\n", k)
			e := variation.NewEmitter(v, xi, "                ")
			v.Spec().Emit(e)
			for _, l := range e.Lines() {
				sb.WriteString(l + "\n")
			}
			sb.WriteString("            }\n")
			sb.WriteString("            p_acc = p_acc + v_out;\n")
			sb.WriteString("        }\n")
		}
		sb.WriteString("    }\n")
	}

	for k, v := range vars {
		if v.Phase() == variation.PhasePost {
			varBlock(&sb, xi, k, v, "p_acc", assignWriteback("p_acc", v.Spec().Assign))
		}
	}

	if x.HasPost() {
		sb.WriteString("    p_acc = vec3<f32>(xfd.pa * p_acc.x + xfd.pb * p_acc.y + xfd.pc, xfd.pd * p_acc.x + xfd.pe * p_acc.y + xfd.pf, p_acc.z);\n")
	}
	sb.WriteString("    *color = temp_color + xfd.direct_color * (out_color - temp_color);\n")
	sb.WriteString("    return p_acc;\n")
	sb.WriteString("}\n")
	return sb.String()
}

func hasPhase(vars []*variation.Instance, phase variation.Phase) bool {
	for _, v := range vars {
		if v.Phase() == phase {
			return true
		}
	}
	return false
}

func applyFunc(n int) string {
	var sb strings.Builder
	sb.WriteString("fn apply_xform(xf: u32, p: vec3<f32>, color: ptr<function, f32>, mwc: ptr<function, vec2<u32>>, sbase: u32) -> vec3<f32> {\n")
	sb.WriteString("    switch (xf) {\n")
	for i := range n {
		fmt.Fprintf(&sb, "        case %du: { return xform_%d(p, color, mwc, sbase); }\n", i, i)
	}
	sb.WriteString("        default: { return p; }\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n")
	return sb.String()
}

func chooseFunc(xaos bool) string {
	row := "0u"
	if xaos {
		row = "last_xf"
	}
	return fmt.Sprintf(`fn choose_xform(mwc: ptr<function, vec2<u32>>, last_xf: u32) -> u32 {
    let r = rand_u32(mwc) & (GRAIN - 1u);
    return dist[%s * GRAIN + r];
}
`, row)
}

func initStateFunc(all []*flame.Xform) string {
	var sb strings.Builder
	sb.WriteString("fn init_state(mwc: ptr<function, vec2<u32>>, sbase: u32) {\n")
	for xi, x := range all {
		for _, v := range x.Ordered() {
			if v.Spec().EmitState == nil {
				continue
			}
			e := variation.NewEmitter(v, xi, "    ")
			v.Spec().EmitState(e)
			for _, l := range e.Lines() {
				sb.WriteString(l + "\n")
			}
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func paletteFunc(mode flame.PaletteMode) string {
	if mode == flame.PaletteLinear {
		return `fn palette_color(c: f32) -> vec4<f32> {
    let pos = max(c, 0.0) * 256.0;
    let i = min(u32(pos), 255u);
    let e0 = textureLoad(palette, vec2<i32>(i32(i), 0), 0);
    if (i == 255u) {
        return e0;
    }
    let e1 = textureLoad(palette, vec2<i32>(i32(i) + 1, 0), 0);
    return mix(e0, e1, pos - f32(i));
}
`
	}
	return `fn palette_color(c: f32) -> vec4<f32> {
    let i = min(u32(c * 256.0), 255u);
    return textureLoad(palette, vec2<i32>(i32(i), 0), 0);
}
`
}

// projectFunc emits the camera projection selected by the flame's
// projection bits.
func projectFunc(p flame.Projection) string {
	var body string
	switch {
	case p == 0:
		body = "    return p;\n"
	case p&flame.ProjectionBlur != 0 && p&flame.ProjectionYaw != 0:
		body = `    let t = rand01(mwc) * TWO_PI;
    var z = p.z - flame.cam_z_pos;
    let x = flame.cam00 * p.x + flame.cam10 * p.y;
    let y = flame.cam01 * p.x + flame.cam11 * p.y + flame.cam21 * z;
    z = flame.cam02 * p.x + flame.cam12 * p.y + flame.cam22 * z;
    let zr = zeps(1.0 - flame.persp * z);
    let dr = rand01(mwc) * flame.blur_coef * z;
    return vec3<f32>((x + dr * cos(t)) / zr, (y + dr * sin(t)) / zr, p.z - flame.cam_z_pos);
`
	case p&flame.ProjectionBlur != 0:
		body = `    let t = rand01(mwc) * TWO_PI;
    var z = p.z - flame.cam_z_pos;
    let y = flame.cam11 * p.y + flame.cam21 * z;
    z = flame.cam12 * p.y + flame.cam22 * z;
    let zr = zeps(1.0 - flame.persp * z);
    let dr = rand01(mwc) * flame.blur_coef * z;
    return vec3<f32>((p.x + dr * cos(t)) / zr, (y + dr * sin(t)) / zr, p.z - flame.cam_z_pos);
`
	case p&flame.ProjectionYaw != 0:
		body = `    let z = p.z - flame.cam_z_pos;
    let x = flame.cam00 * p.x + flame.cam10 * p.y;
    let y = flame.cam01 * p.x + flame.cam11 * p.y + flame.cam21 * z;
    let zr = zeps(1.0 - flame.persp * (flame.cam02 * p.x + flame.cam12 * p.y + flame.cam22 * z));
    return vec3<f32>(x / zr, y / zr, z);
`
	case p&flame.ProjectionPitch != 0:
		body = `    let z = p.z - flame.cam_z_pos;
    let y = flame.cam11 * p.y + flame.cam21 * z;
    let zr = zeps(1.0 - flame.persp * (flame.cam12 * p.y + flame.cam22 * z));
    return vec3<f32>(p.x / zr, y / zr, z);
`
	default:
		body = `    let zr = zeps(1.0 - flame.persp * (p.z - flame.cam_z_pos));
    return vec3<f32>(p.x / zr, p.y / zr, p.z - flame.cam_z_pos);
`
	}
	return "fn project(p: vec3<f32>, mwc: ptr<function, vec2<u32>>) -> vec3<f32> {\n" + body + "}\n"
}

// accumulateFunc emits accumulate_point: final transform, projection,
// raster mapping and the histogram add.
func accumulateFunc(f *flame.Flame, lock bool) string {
	var sb strings.Builder
	if lock {
		sb.WriteString(`fn atomic_add_f32(i: u32, v: f32) {
    var old = atomicLoad(&hist[i]);
    loop {
        let r = atomicCompareExchangeWeak(&hist[i], old, bitcast<u32>(bitcast<f32>(old) + v));
        if (r.exchanged) {
            break;
        }
        old = r.old_value;
    }
}

`)
	}
	sb.WriteString("fn accumulate_point(p0: vec3<f32>, color0: f32, last_xf: u32, mwc: ptr<function, vec2<u32>>, sbase: u32) {\n")
	sb.WriteString("    var p = p0;\n")
	sb.WriteString("    var c = color0;\n")
	if f.HasFinal() {
		sb.WriteString(`    let fxd = xforms[FINAL_INDEX];
    if (fxd.opacity == 1.0 || rand01(mwc) < fxd.opacity) {
        p = xform_` + fmt.Sprint(len(f.Xforms)) + `(p, &c, mwc, sbase);
        if (bad_point(p)) {
            return;
        }
    }
`)
	}
	sb.WriteString(`    let q = project(p, mwc);
    let ras = to_raster(q);
    if (ras.x < 0) {
        return;
    }
    let op = xforms[max(last_xf, 1u) - 1u].viz_opacity;
    if (op == 0.0) {
        return;
    }
    let v = palette_color(c) * op;
    let bi = u32(ras.y) * cmap.ras_w + u32(ras.x);
`)
	if lock {
		sb.WriteString(`    atomic_add_f32(bi * 4u, v.r);
    atomic_add_f32(bi * 4u + 1u, v.g);
    atomic_add_f32(bi * 4u + 2u, v.b);
    atomic_add_f32(bi * 4u + 3u, v.a);
`)
	} else {
		sb.WriteString("    hist[bi] = hist[bi] + v;\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
