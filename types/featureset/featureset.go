// Package featureset holds a flattened polygon feature collection:
// one global pair of vertex coordinate arrays, a ring table indexing
// into them, and a feature table indexing into the ring table.
// This mirrors the segment/point indexing of shapefile-style polygon
// containers and keeps the masking hot loop pointer-free.
package featureset

import (
	"errors"
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrGeometryType marks a source whose geometry is not polygonal.
// Lines and points are a load-time rejection, not a masking concern.
var ErrGeometryType = errors.New("geometry type is not polygon")

// Ring identifies one closed polygon boundary as the vertex
// sub-range [Start, Start+Count) of the set's coordinate arrays.
// The boundary is implicitly closed; a duplicated closing vertex is
// tolerated but not required.
type Ring struct {
	Start int
	Count int
}

// Feature identifies one polygon entity as the ring sub-range
// [FirstRing, FirstRing+RingCount) of the ring table. Every ring of
// a feature independently marks cells inside; no outer/hole
// distinction is drawn.
type Feature struct {
	FirstRing int
	RingCount int
}

// FeatureSet is the whole flattened collection. Immutable once loaded.
type FeatureSet struct {
	Lons     []float64
	Lats     []float64
	Rings    []Ring
	Features []Feature
}

func (fs *FeatureSet) NumFeatures() int { return len(fs.Features) }
func (fs *FeatureSet) NumVertices() int { return len(fs.Lons) }

// RingCoords returns the vertex sub-slices for a ring.
// The slices alias the set's arrays; callers must not mutate them.
func (fs *FeatureSet) RingCoords(r Ring) (lons, lats []float64) {
	return fs.Lons[r.Start : r.Start+r.Count], fs.Lats[r.Start : r.Start+r.Count]
}

// FeatureRings returns the ring table entries belonging to a feature.
func (fs *FeatureSet) FeatureRings(f Feature) []Ring {
	return fs.Rings[f.FirstRing : f.FirstRing+f.RingCount]
}

// Validate checks the index invariants: parallel coordinate arrays,
// every ring a valid vertex range, every feature a valid ring range.
func (fs *FeatureSet) Validate() error {
	if len(fs.Lons) != len(fs.Lats) {
		return fmt.Errorf("vertex arrays not parallel: %d lons, %d lats", len(fs.Lons), len(fs.Lats))
	}
	nv := len(fs.Lons)
	for i, r := range fs.Rings {
		if r.Start < 0 || r.Count < 1 || r.Start+r.Count > nv {
			return fmt.Errorf("ring %d out of vertex range: start=%d count=%d nv=%d", i, r.Start, r.Count, nv)
		}
	}
	for i, f := range fs.Features {
		if f.FirstRing < 0 || f.RingCount < 1 || f.FirstRing+f.RingCount > len(fs.Rings) {
			return fmt.Errorf("feature %d out of ring range: first=%d count=%d nrings=%d", i, f.FirstRing, f.RingCount, len(fs.Rings))
		}
	}
	return nil
}

// Checksum is a stable hash over the whole set, used as a cache key
// component.
func (fs *FeatureSet) Checksum() (uint64, error) {
	return hashstructure.Hash(fs, hashstructure.FormatV2, nil)
}

// appendRing flattens one orb.Ring onto the vertex arrays and
// returns its ring table entry.
func (fs *FeatureSet) appendRing(ring orb.Ring) Ring {
	r := Ring{Start: len(fs.Lons), Count: len(ring)}
	for _, pt := range ring {
		fs.Lons = append(fs.Lons, pt.Lon())
		fs.Lats = append(fs.Lats, pt.Lat())
	}
	return r
}

// AddGeometry flattens one polygonal geometry as a single feature.
// Non-polygon geometries return ErrGeometryType.
func (fs *FeatureSet) AddGeometry(geom orb.Geometry) error {
	f := Feature{FirstRing: len(fs.Rings)}
	switch g := geom.(type) {
	case orb.Polygon:
		for _, ring := range g {
			fs.Rings = append(fs.Rings, fs.appendRing(ring))
			f.RingCount++
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, ring := range poly {
				fs.Rings = append(fs.Rings, fs.appendRing(ring))
				f.RingCount++
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrGeometryType, geom.GeoJSONType())
	}
	if f.RingCount == 0 {
		// Empty polygons contribute nothing, but keep feature
		// indices aligned with the source collection.
		return nil
	}
	fs.Features = append(fs.Features, f)
	return nil
}

// FromCollection flattens a parsed GeoJSON feature collection.
// The first non-polygon feature aborts the load.
func FromCollection(fc *geojson.FeatureCollection) (*FeatureSet, error) {
	fs := &FeatureSet{}
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if err := fs.AddGeometry(f.Geometry); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return fs, nil
}
