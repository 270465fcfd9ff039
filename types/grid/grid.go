// Package grid models the target raster: two strictly monotonic
// 1D coordinate axes, latitude and longitude, in degrees.
package grid

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInputShape marks a grid whose coordinates are not genuine
// strictly-monotonic 1D axes.
var ErrInputShape = errors.New("grid coordinates are not monotonic 1D axes")

// Axis is one ordered coordinate axis.
// Coordinates may ascend or descend, but strictly; no two
// coordinates need be equally spaced.
type Axis []float64

// Ascending reports whether the axis coordinates increase with index.
// A single-element axis counts as ascending.
func (a Axis) Ascending() bool {
	return len(a) < 2 || a[0] < a[len(a)-1]
}

// Monotonic reports whether the axis is strictly monotonic.
func (a Axis) Monotonic() bool {
	if len(a) < 2 {
		return len(a) == 1
	}
	asc := a.Ascending()
	for i := 1; i < len(a); i++ {
		if asc && a[i] <= a[i-1] {
			return false
		}
		if !asc && a[i] >= a[i-1] {
			return false
		}
	}
	return true
}

// Window returns the contiguous index range [i0, i1] of coordinates
// falling within [lo, hi], found by boundary search rather than a
// full scan (the axis is monotonic).
//
// When a boundary search finds no satisfying index, that bound
// defaults to the array extremity. A bounding box lying entirely
// outside the axis coverage therefore degenerates to the full axis
// range. That fallback is a deliberate safety net against silently
// skipping polygons at the grid edge; do not "fix" it.
//
// A legitimately empty window (lo..hi falls strictly between two
// adjacent coordinates) comes back with i1 < i0.
func (a Axis) Window(lo, hi float64) (i0, i1 int) {
	n := len(a)
	if n == 0 {
		return 0, -1
	}
	if a.Ascending() {
		// First coordinate >= lo.
		i0 = sort.Search(n, func(i int) bool { return a[i] >= lo })
		if i0 == n {
			i0 = 0
		}
		// Last coordinate <= hi.
		i1 = sort.Search(n, func(i int) bool { return a[i] > hi }) - 1
		if i1 < 0 {
			i1 = n - 1
		}
		return i0, i1
	}
	// Descending: in-range coordinates start at the first one <= hi
	// and end at the last one >= lo.
	i0 = sort.Search(n, func(i int) bool { return a[i] <= hi })
	if i0 == n {
		i0 = 0
	}
	i1 = sort.Search(n, func(i int) bool { return a[i] < lo }) - 1
	if i1 < 0 {
		i1 = n - 1
	}
	return i0, i1
}

// Grid is the pair of coordinate axes of the 2D field being masked.
type Grid struct {
	Lat Axis `json:"lat"`
	Lon Axis `json:"lon"`
}

// Shape returns (nlat, nlon).
func (g *Grid) Shape() (nlat, nlon int) {
	return len(g.Lat), len(g.Lon)
}

// Validate returns ErrInputShape (wrapped, naming the offending axis)
// unless both axes are non-empty and strictly monotonic.
func (g *Grid) Validate() error {
	if !g.Lat.Monotonic() {
		return fmt.Errorf("%w: lat (n=%d)", ErrInputShape, len(g.Lat))
	}
	if !g.Lon.Monotonic() {
		return fmt.Errorf("%w: lon (n=%d)", ErrInputShape, len(g.Lon))
	}
	return nil
}
