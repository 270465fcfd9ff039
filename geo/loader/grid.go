package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotblauer/gridmask/types/grid"
)

// gridDescriptor is the accepted grid source document:
//
//	{"lat": [10, 20, 30], "lon": {"n": 144, "start": 0, "step": 2.5}}
//
// Each axis is either an explicit 1D coordinate array or a uniform
// range spec. Anything else (a 2D array, an object missing n) is an
// improper coordinate axis and fails with grid.ErrInputShape.
type gridDescriptor struct {
	Lat axisSpec `json:"lat"`
	Lon axisSpec `json:"lon"`

	// FlipLon rewrites a 0..360 longitude axis to -180..180.
	// The mask consumer owns the matching column reorder of its
	// data; the permutation is the same one FlipLon360 returns.
	FlipLon bool `json:"flipLon,omitempty"`
}

type axisSpec struct {
	coords grid.Axis
}

type uniformAxis struct {
	N     int     `json:"n"`
	Start float64 `json:"start"`
	Step  float64 `json:"step"`
}

func (a *axisSpec) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err == nil {
		a.coords = coords
		return nil
	}
	var u uniformAxis
	if err := json.Unmarshal(data, &u); err == nil && u.N > 0 && u.Step != 0 {
		a.coords = make(grid.Axis, u.N)
		for i := range a.coords {
			a.coords[i] = u.Start + float64(i)*u.Step
		}
		return nil
	}
	return fmt.Errorf("%w: not a 1D coordinate axis: %s", grid.ErrInputShape, truncate(data, 64))
}

// LoadGrid resolves and parses a grid descriptor, validating that
// both axes are genuine strictly-monotonic 1D coordinates.
func LoadGrid(ctx context.Context, uri string) (*grid.Grid, error) {
	data, err := fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	data, err = maybeGunzip(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", uri, err)
	}
	return ParseGrid(data)
}

// ParseGrid parses a grid descriptor document.
func ParseGrid(data []byte) (*grid.Grid, error) {
	var d gridDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	g := &grid.Grid{Lat: d.Lat.coords, Lon: d.Lon.coords}
	if d.FlipLon {
		g.Lon, _ = grid.FlipLon360(g.Lon)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
