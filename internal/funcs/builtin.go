package funcs

// builtin is ordered so that every helper follows its dependencies.
var builtin = []Helper{
	{
		Name: "zeps",
		Source: `fn zeps(x: f32) -> f32 {
    return select(x, EPS, x == 0.0);
}`,
	},
	{
		Name: "sqr",
		Source: `fn sqr(x: f32) -> f32 {
    return x * x;
}`,
	},
	{
		Name: "cube",
		Source: `fn cube(x: f32) -> f32 {
    return x * x * x;
}`,
	},
	{
		Name: "safe_sqrt",
		Source: `fn safe_sqrt(x: f32) -> f32 {
    return sqrt(max(x, 0.0));
}`,
	},
	{
		Name: "safe_div",
		Deps: []string{"zeps"},
		Source: `fn safe_div(a: f32, b: f32) -> f32 {
    return a / zeps(b);
}`,
	},
	{
		Name: "lerp",
		Source: `fn lerp(a: f32, b: f32, t: f32) -> f32 {
    return a + (b - a) * t;
}`,
	},
	{
		Name: "hypot",
		Source: `fn hypot(x: f32, y: f32) -> f32 {
    return sqrt(x * x + y * y);
}`,
	},
	{
		Name: "sign_nz",
		Source: `fn sign_nz(x: f32) -> f32 {
    return select(1.0, -1.0, x < 0.0);
}`,
	},
	{
		Name: "spread",
		Deps: []string{"hypot", "sign_nz"},
		Source: `fn spread(a: f32, b: f32) -> f32 {
    return hypot(a, b) * sign_nz(a);
}`,
	},
	{
		Name: "fmod",
		Source: `fn fmod(x: f32, y: f32) -> f32 {
    return x - y * trunc(x / y);
}`,
	},
	{
		Name: "clamp_sign",
		Deps: []string{"sign_nz"},
		Source: `fn clamp_sign(x: f32, lim: f32) -> f32 {
    return sign_nz(x) * min(abs(x), lim);
}`,
	},
	{
		Name: "swap_xy",
		Source: `fn swap_xy(p: vec3<f32>) -> vec3<f32> {
    return vec3<f32>(p.y, p.x, p.z);
}`,
	},
}
