package filter

import "math"

// TileSize is the edge of the square tile one DE work-group filters.
const TileSize = 16

// DE is the density estimation filter of one render, in supersampled
// buckets.
type DE struct {
	MinRadius   float64
	MaxRadius   float64
	Curve       float64
	Supersample int
}

// Enabled reports whether the filter does anything.
func (d DE) Enabled() bool { return d.MaxRadius > 0 }

// HalfWidth is the largest distance in buckets a sample can be spread.
func (d DE) HalfWidth() int {
	if !d.Enabled() {
		return 0
	}
	return int(math.Ceil(d.MaxRadius * float64(max(d.Supersample, 1))))
}

// Radius returns the filter radius in buckets for a bucket of the given
// density.
func (d DE) Radius(density float64) float64 {
	ss := float64(max(d.Supersample, 1))
	r := d.MaxRadius / math.Pow(density+1, d.Curve)
	return max(d.MinRadius, r) * ss
}

// Pass is one DE dispatch: the tiles (tx, ty) with tx%Stride == X and
// ty%Stride == Y.
type Pass struct {
	X, Y   int
	Stride int
	// Tiles is the number of tiles in each direction this pass covers.
	TilesX, TilesY int
}

// Plan returns the passes covering a w x h raster. Tiles of one pass are
// Stride tiles apart, far enough that their write regions, each the tile
// grown by the half width, never overlap.
func (d DE) Plan(w, h int) []Pass {
	hw := d.HalfWidth()
	k := 1 + (2*hw+TileSize-1)/TileSize
	ntx := (w + TileSize - 1) / TileSize
	nty := (h + TileSize - 1) / TileSize
	var passes []Pass
	for y := 0; y < k && y < nty; y++ {
		for x := 0; x < k && x < ntx; x++ {
			passes = append(passes, Pass{
				X: x, Y: y, Stride: k,
				TilesX: (ntx - x + k - 1) / k,
				TilesY: (nty - y + k - 1) / k,
			})
		}
	}
	return passes
}
