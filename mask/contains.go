package mask

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// containsFunc answers whether a (lat, lon) degree point lies inside
// (or on the boundary of) one prepared ring.
type containsFunc func(lat, lon float64) bool

// geodesicRing prepares a great-circle containment test for one ring.
//
// The ring vertices become an s2.Loop whose edges are geodesic arcs;
// the loop is normalized so its interior is the smaller of the two
// regions it bounds, regardless of vertex winding. Containment is
// then s2's edge-crossing parity from a reference point.
//
// Boundary policy: a point within eps great-circle distance of any
// edge is inside. This keeps shared edges of adjacent polygons from
// leaving parity-dependent gaps, and matches the mark-once-never-
// unmark mask semantics.
func geodesicRing(lons, lats []float64, epsDeg float64) containsFunc {
	n := len(lons)
	// Drop an explicit closing vertex; s2 loops close implicitly.
	if n > 1 && lons[0] == lons[n-1] && lats[0] == lats[n-1] {
		n--
	}
	if n < 3 {
		return func(float64, float64) bool { return false }
	}
	pts := make([]s2.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(lats[i], lons[i]))
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	eps := s1.Angle(epsDeg) * s1.Degree

	return func(lat, lon float64) bool {
		p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
		if loop.ContainsPoint(p) {
			return true
		}
		for i := 0; i < loop.NumEdges(); i++ {
			e := loop.Edge(i)
			if s2.DistanceFromSegment(p, e.V0, e.V1) <= eps {
				return true
			}
		}
		return false
	}
}

// planarRing prepares a flat even-odd ray cast (PNPoly) for one ring,
// treating lon/lat as Cartesian x/y. Valid only for rings that stay
// away from the poles and do not wrap the antimeridian; the geodesic
// test is the default for a reason.
//
// Boundary policy matches geodesicRing: on-edge points are inside.
func planarRing(lons, lats []float64, epsDeg float64) containsFunc {
	n := len(lons)
	if n > 1 && lons[0] == lons[n-1] && lats[0] == lats[n-1] {
		n--
	}
	if n < 3 {
		return func(float64, float64) bool { return false }
	}
	return func(lat, lon float64) bool {
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			if pointOnSegment(lon, lat, lons[j], lats[j], lons[i], lats[i], epsDeg) {
				return true
			}
		}
		inside := false
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			xi, yi := lons[i], lats[i]
			xj, yj := lons[j], lats[j]
			if (yi > lat) != (yj > lat) &&
				lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
				inside = !inside
			}
		}
		return inside
	}
}

// pointOnSegment reports whether (x, y) lies on the segment
// (x1,y1)-(x2,y2) within eps, in coordinate units.
func pointOnSegment(x, y, x1, y1, x2, y2, eps float64) bool {
	cross := (x2-x1)*(y-y1) - (y2-y1)*(x-x1)
	if cross > eps || cross < -eps {
		return false
	}
	if x < min(x1, x2)-eps || x > max(x1, x2)+eps {
		return false
	}
	if y < min(y1, y2)-eps || y > max(y1, y2)+eps {
		return false
	}
	return true
}
