// Package gpudata defines the fixed-layout records uploaded to compute
// devices and the host-side math that fills them.
//
// Every record holds only 32-bit scalars and arrays of them, so its
// little-endian encoding matches the WGSL struct of the same name field for
// field. Uniform records are padded to a multiple of 16 bytes.
package gpudata

import (
	"encoding/binary"
	"fmt"
)

// Real is the device floating point type. Every device record and every
// host kernel uses it.
type Real = float32

const (
	// MaxVars is the number of variation weight slots of one transform.
	MaxVars = 8

	// Grain is the number of entries per block of the transform
	// distribution table.
	Grain = 16384
)

// FlameData carries the camera of one flame.
type FlameData struct {
	CamMat   [9]Real // CamMat[i*3+j] is row j of column i
	CamZPos  Real
	Persp    Real
	Yaw      Real
	Pitch    Real
	DOF      Real
	BlurCoef Real
	PalSize  Real
}

// XformData carries one transform. VarWeights follows the transform's
// execution order of variations.
type XformData struct {
	A, B, C, D, E, F       Real
	PA, PB, PC, PD, PE, PF Real

	// Opacity gates the final transform. VizOpacity weights accumulation.
	Opacity            Real
	VizOpacity         Real
	ColorSpeedCache    Real
	OneMinusColorCache Real
	DirectColor        Real
	_                  [3]Real

	VarWeights [MaxVars]Real
}

// CoordMap maps flame space to the supersampled raster.
type CoordMap struct {
	CarLLX, CarLLY Real
	CarURX, CarURY Real
	PPU            Real
	RasLLX, RasLLY Real
	RasW, RasH     uint32
	Rot00, Rot01   Real
	Rot10, Rot11   Real
	CenterX        Real
	CenterY        Real
	_              uint32
}

// IterParams controls one iteration launch.
type IterParams struct {
	ItersPerThread uint32
	Fuse           uint32 // 1 starts fresh points
	FuseCount      uint32
	XformCount     uint32
	HistW, HistH   uint32
	StateStride    uint32
	Xaos           uint32
}

// Point is the persisted per-thread chaos game state.
type Point struct {
	X, Y, Z Real
	ColorX  Real
	LastXf  uint32
	_       [3]uint32
}

// DensityParams controls log scaling and the DE filter. The pass fields
// select the tiles of one DE pass.
type DensityParams struct {
	MinRad, MaxRad, Curve Real
	Supersample           Real
	K1, K2                Real
	Width, Height         uint32
	HalfWidth             uint32
	PassX, PassY          uint32
	Stride                uint32
}

// FinalParams controls gamma correction and final accumulation.
type FinalParams struct {
	InvGamma, LinRange Real
	Vibrancy, HighPow  Real
	BgR, BgG, BgB      Real
	_                  Real
	SuperW, SuperH     uint32
	OutW, OutH         uint32
	Supersample        uint32
	FilterWidth        uint32
	_                  [2]uint32
}

// ZeroParams controls the zeroize kernel.
type ZeroParams struct {
	Words  uint32
	RowLen uint32
	_      [2]uint32
}

// SumParams controls the histogram sum kernel.
type SumParams struct {
	Count  uint32 // buckets
	Clear  uint32
	RowLen uint32
	_      uint32
}

// Encode returns the little-endian encoding of v, a record or a slice of
// records or scalars.
func Encode(v any) []byte {
	b, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		// Every type in this package has a fixed size.
		panic(fmt.Sprintf("gpudata: encode %T: %v", v, err))
	}
	return b
}

// Decode fills v from b.
func Decode(b []byte, v any) error {
	if _, err := binary.Decode(b, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("gpudata: decode %T: %w", v, err)
	}
	return nil
}

// Size returns the encoded size of v.
func Size(v any) int { return binary.Size(v) }

// Words returns the number of 32-bit words covering n bytes.
func Words(n int) int { return (n + 3) / 4 }
