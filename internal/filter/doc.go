// Package filter computes the filter coefficients and launch plans used when
// turning a flame histogram into an image.
//
// Two filters are involved:
//   - the spatial filter, a separable Gaussian that averages supersampled
//     buckets into output pixels
//   - the density estimation (DE) filter, a per-bucket Gaussian whose
//     radius shrinks as bucket density grows
//
// The DE filter scatters into overlapping neighborhoods. Plan splits the
// raster into tile passes whose write regions never overlap, so the device
// kernel needs no atomic writes.
package filter
