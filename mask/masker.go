package mask

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/rotblauer/gridmask/params"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/rotblauer/gridmask/types/grid"
	"golang.org/x/sync/errgroup"
)

// Masker computes inclusion masks. Zero-cost to create; reusable
// across grids and feature sets.
type Masker struct {
	config *params.MaskConfig
	logger *slog.Logger
}

func NewMasker(config *params.MaskConfig) *Masker {
	if config == nil {
		config = params.DefaultMaskConfig()
	}
	return &Masker{
		config: config,
		logger: slog.With("pkg", "mask"),
	}
}

// Compute rasterizes the feature set onto the grid.
//
// On success the mask holds Inside for every grid cell lying inside
// (or on the boundary of) any ring of any feature, Outside elsewhere.
//
// Degrade, don't crash: a failed precondition (malformed grid axes,
// invalid feature indexing) logs a diagnostic and returns a full-size
// all-Missing mask TOGETHER WITH the typed error, never a partial
// mask and never a panic. Callers in batch pipelines can test either.
//
// Context cancellation between rings returns the sentinel and ctx.Err().
func (mk *Masker) Compute(ctx context.Context, g *grid.Grid, fs *featureset.FeatureSet) (*Mask, error) {
	nlat, nlon := g.Shape()

	if err := g.Validate(); err != nil {
		mk.logger.Error("Unmaskable grid", "error", err)
		return NewSentinel(nlat, nlon), err
	}
	if err := fs.Validate(); err != nil {
		mk.logger.Error("Unmaskable feature set", "error", err)
		return NewSentinel(nlat, nlon), err
	}

	start := time.Now()
	m := New(nlat, nlon)
	windowCells := 0

	for _, f := range fs.Features {
		for _, ring := range fs.FeatureRings(f) {
			select {
			case <-ctx.Done():
				return NewSentinel(nlat, nlon), ctx.Err()
			default:
			}
			lons, lats := fs.RingCoords(ring)
			contains := mk.ringContains(lons, lats)

			b := ringBound(lons, lats)
			r0, r1 := g.Lat.Window(b.Min.Lat(), b.Max.Lat())
			c0, c1 := g.Lon.Window(b.Min.Lon(), b.Max.Lon())
			if r1 < r0 || c1 < c0 {
				continue
			}
			windowCells += (r1 - r0 + 1) * (c1 - c0 + 1)

			if err := mk.scanWindow(ctx, m, g, contains, r0, r1, c0, c1); err != nil {
				return NewSentinel(nlat, nlon), err
			}
		}
	}

	inside := 0
	for _, v := range m.Values {
		if v == Inside {
			inside++
		}
	}
	mk.logger.Info("Masked grid",
		"shape", fmt.Sprintf("(%d,%d)", nlat, nlon),
		"features", fs.NumFeatures(),
		"vertices", humanize.Comma(int64(fs.NumVertices())),
		"window-cells", humanize.Comma(int64(windowCells)),
		"inside", humanize.Comma(int64(inside)),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return m, nil
}

// scanWindow tests every still-Outside cell of the candidate window.
// Rows are independent; they share no mask cells. Skipping cells
// already Inside is purely an optimization: re-testing is harmless
// under OR-accumulation, just wasted work.
func (mk *Masker) scanWindow(ctx context.Context, m *Mask, g *grid.Grid, contains containsFunc, r0, r1, c0, c1 int) error {
	scanRow := func(r int) {
		row := m.Row(r)
		lat := g.Lat[r]
		for c := c0; c <= c1; c++ {
			if row[c] == Inside {
				continue
			}
			if contains(lat, g.Lon[c]) {
				row[c] = Inside
			}
		}
	}

	if mk.config.Workers <= 1 || r1-r0 < 1 {
		for r := r0; r <= r1; r++ {
			scanRow(r)
		}
		return nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(mk.config.Workers)
	for r := r0; r <= r1; r++ {
		r := r
		eg.Go(func() error {
			scanRow(r)
			return nil
		})
	}
	return eg.Wait()
}

func (mk *Masker) ringContains(lons, lats []float64) containsFunc {
	if mk.config.Planar {
		return planarRing(lons, lats, mk.config.BoundaryEpsilonDegrees)
	}
	return geodesicRing(lons, lats, mk.config.BoundaryEpsilonDegrees)
}

// ringBound is the ring's axis-aligned bounding box.
// Antimeridian-wrapping rings get a conservative (near-global) box;
// the candidate window is a prefilter, never a correctness gate.
func ringBound(lons, lats []float64) orb.Bound {
	ring := make(orb.Ring, len(lons))
	for i := range lons {
		ring[i] = orb.Point{lons[i], lats[i]}
	}
	return ring.Bound()
}
