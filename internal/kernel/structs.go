// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

// WGSL declarations of the gpudata records. Field order and types match
// the Go structs exactly.

const wgslFlameData = `struct FlameData {
    cam00: f32, cam01: f32, cam02: f32,
    cam10: f32, cam11: f32, cam12: f32,
    cam20: f32, cam21: f32, cam22: f32,
    cam_z_pos: f32,
    persp: f32,
    yaw: f32,
    pitch: f32,
    dof: f32,
    blur_coef: f32,
    pal_size: f32,
}`

const wgslXformData = `struct XformData {
    a: f32, b: f32, c: f32, d: f32, e: f32, f: f32,
    pa: f32, pb: f32, pc: f32, pd: f32, pe: f32, pf: f32,
    opacity: f32,
    viz_opacity: f32,
    color_speed_cache: f32,
    one_minus_color_cache: f32,
    direct_color: f32,
    pad0: f32, pad1: f32, pad2: f32,
    var_weights: array<f32, 8>,
}`

const wgslCoordMap = `struct CoordMap {
    car_ll_x: f32, car_ll_y: f32,
    car_ur_x: f32, car_ur_y: f32,
    ppu: f32,
    ras_ll_x: f32, ras_ll_y: f32,
    ras_w: u32, ras_h: u32,
    rot00: f32, rot01: f32,
    rot10: f32, rot11: f32,
    center_x: f32, center_y: f32,
    pad0: u32,
}`

const wgslIterParams = `struct IterParams {
    iters_per_thread: u32,
    fuse: u32,
    fuse_count: u32,
    xform_count: u32,
    hist_w: u32,
    hist_h: u32,
    state_stride: u32,
    xaos: u32,
}`

const wgslPoint = `struct Point {
    x: f32, y: f32, z: f32,
    color_x: f32,
    last_xf: u32,
    pad0: u32, pad1: u32, pad2: u32,
}`

const wgslDensityParams = `struct DensityParams {
    min_rad: f32, max_rad: f32, curve: f32,
    supersample: f32,
    k1: f32, k2: f32,
    width: u32, height: u32,
    half_width: u32,
    pass_x: u32, pass_y: u32,
    stride: u32,
}`

const wgslFinalParams = `struct FinalParams {
    inv_gamma: f32, lin_range: f32,
    vibrancy: f32, high_pow: f32,
    bg_r: f32, bg_g: f32, bg_b: f32,
    pad0: f32,
    super_w: u32, super_h: u32,
    out_w: u32, out_h: u32,
    supersample: u32,
    filter_width: u32,
    pad1: u32, pad2: u32,
}`

const wgslZeroParams = `struct ZeroParams {
    words: u32,
    row_len: u32,
    pad0: u32, pad1: u32,
}`

const wgslSumParams = `struct SumParams {
    count: u32,
    clear: u32,
    row_len: u32,
    pad0: u32,
}`
