package mask

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotblauer/gridmask/common"
	"github.com/rotblauer/gridmask/params"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/rotblauer/gridmask/types/grid"
)

func rectPoly(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func setOf(t *testing.T, polys ...orb.Polygon) *featureset.FeatureSet {
	t.Helper()
	fs := &featureset.FeatureSet{}
	for _, p := range polys {
		if err := fs.AddGeometry(p); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

// The worked example: a 4x4 grid and one rectangle covering its
// middle four cells.
func TestComputeRectangle(t *testing.T) {
	g := &grid.Grid{
		Lat: grid.Axis{10, 20, 30, 40},
		Lon: grid.Axis{10, 20, 30, 40},
	}
	fs := setOf(t, rectPoly(15, 15, 35, 35))

	m, err := NewMasker(nil).Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := Outside
			if (r == 1 || r == 2) && (c == 1 || c == 2) {
				want = Inside
			}
			if got := m.At(r, c); got != want {
				t.Errorf("mask[%d][%d] (lat=%v lon=%v) = %d, want %d",
					r, c, g.Lat[r], g.Lon[c], got, want)
			}
		}
	}

	s := m.Summarize()
	if s.Inside != 4 || s.Cells != 16 || s.Missing {
		t.Fatalf("summary = %+v", s)
	}
}

func TestComputeIdempotent(t *testing.T) {
	g := &grid.Grid{
		Lat: grid.Axis{-10, 0, 10, 20, 30},
		Lon: grid.Axis{100, 110, 120, 130},
	}
	fs := setOf(t, rectPoly(105, -5, 125, 25))
	mk := NewMasker(nil)

	a, err := mk.Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mk.Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatal("identical inputs must yield identical masks")
	}
}

// OR-accumulation is commutative: feature processing order cannot
// change the final mask.
func TestComputeOrderInvariant(t *testing.T) {
	g := &grid.Grid{
		Lat: grid.Axis{0, 10, 20, 30, 40, 50},
		Lon: grid.Axis{0, 10, 20, 30, 40, 50},
	}
	polys := []orb.Polygon{
		rectPoly(5, 5, 25, 25),
		rectPoly(15, 15, 45, 45), // overlaps the first
		rectPoly(35, 0, 55, 15),
	}
	mk := NewMasker(nil)

	forward, err := mk.Compute(context.Background(), g, setOf(t, polys...))
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]orb.Polygon, len(polys))
		copy(shuffled, polys)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		permuted, err := mk.Compute(context.Background(), g, setOf(t, shuffled...))
		if err != nil {
			t.Fatal(err)
		}
		if !forward.Equal(permuted) {
			t.Fatalf("trial %d: permuted feature order changed the mask", trial)
		}
	}
}

// bruteForce tests every grid cell against every ring, no candidate
// window. The pruned algorithm must match it bit for bit.
func bruteForce(mk *Masker, g *grid.Grid, fs *featureset.FeatureSet) *Mask {
	nlat, nlon := g.Shape()
	m := New(nlat, nlon)
	for _, f := range fs.Features {
		for _, ring := range fs.FeatureRings(f) {
			lons, lats := fs.RingCoords(ring)
			contains := mk.ringContains(lons, lats)
			for r := 0; r < nlat; r++ {
				for c := 0; c < nlon; c++ {
					if m.At(r, c) == Inside {
						continue
					}
					if contains(g.Lat[r], g.Lon[c]) {
						m.Set(r, c, Inside)
					}
				}
			}
		}
	}
	return m
}

// The planar test keeps ring coverage exactly inside the bounding
// box, so pruned and unpruned scans must agree cell for cell on any
// fixture. (Geodesic edges can bulge poleward of the vertex bbox;
// the candidate window logic under test is containment-agnostic.)
func TestPruningEquivalence(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	rng := rand.New(rand.NewSource(42))

	randomAxis := func(n int, start, maxStep float64, descending bool) grid.Axis {
		a := make(grid.Axis, n)
		v := start
		for i := 0; i < n; i++ {
			v += 0.5 + rng.Float64()*maxStep
			a[i] = v
		}
		if descending {
			for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
				a[i], a[j] = a[j], a[i]
			}
		}
		return a
	}

	for trial := 0; trial < 20; trial++ {
		g := &grid.Grid{
			Lat: randomAxis(8+rng.Intn(8), -60+rng.Float64()*40, 5, trial%2 == 0),
			Lon: randomAxis(8+rng.Intn(8), -100+rng.Float64()*80, 8, trial%3 == 0),
		}
		polys := make([]orb.Polygon, 0, 3)
		for p := 0; p < 1+rng.Intn(3); p++ {
			// Random rectangles, some straddling or entirely
			// outside the grid's coverage.
			minLon := -150 + rng.Float64()*250
			minLat := -80 + rng.Float64()*130
			polys = append(polys, rectPoly(minLon, minLat,
				minLon+1+rng.Float64()*60, minLat+1+rng.Float64()*40))
		}
		fs := setOf(t, polys...)
		cfg := params.DefaultMaskConfig()
		cfg.Planar = true
		mk := NewMasker(cfg)

		pruned, err := mk.Compute(context.Background(), g, fs)
		if err != nil {
			t.Fatal(err)
		}
		if !pruned.Equal(bruteForce(mk, g, fs)) {
			t.Fatalf("trial %d: pruned and brute-force masks differ", trial)
		}
	}
}

// A ring whose bounding box lies wholly outside the grid still gets
// its (full-range fallback) window scanned: no error, no panic, and
// since no cell is inside, an all-Outside mask.
func TestOutOfCoverageRing(t *testing.T) {
	g := &grid.Grid{
		Lat: grid.Axis{10, 20, 30},
		Lon: grid.Axis{10, 20, 30},
	}
	fs := setOf(t, rectPoly(100, 50, 120, 60))

	m, err := NewMasker(nil).Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range m.Values {
		if v != Outside {
			t.Fatalf("cell %d = %d, want all Outside", i, v)
		}
	}
}

func TestComputeDegradesToSentinel(t *testing.T) {
	okGrid := &grid.Grid{Lat: grid.Axis{10, 20}, Lon: grid.Axis{10, 20, 30}}
	okSet := setOf(t, rectPoly(0, 0, 50, 50))
	mk := NewMasker(nil)

	t.Run("bad grid axes", func(t *testing.T) {
		g := &grid.Grid{Lat: grid.Axis{10, 10, 20}, Lon: grid.Axis{10, 20}}
		m, err := mk.Compute(context.Background(), g, okSet)
		if !errors.Is(err, grid.ErrInputShape) {
			t.Fatalf("want ErrInputShape, got %v", err)
		}
		if m.Nlat != 3 || m.Nlon != 2 || !m.IsSentinel() {
			t.Fatalf("want full-shape sentinel, got (%d,%d) sentinel=%v", m.Nlat, m.Nlon, m.IsSentinel())
		}
	})

	t.Run("bad feature indexing", func(t *testing.T) {
		fs := &featureset.FeatureSet{
			Lons:     []float64{0, 1},
			Lats:     []float64{0, 1},
			Rings:    []featureset.Ring{{Start: 0, Count: 5}},
			Features: []featureset.Feature{{FirstRing: 0, RingCount: 1}},
		}
		m, err := mk.Compute(context.Background(), okGrid, fs)
		if err == nil {
			t.Fatal("want validation error")
		}
		if !m.IsSentinel() || m.Nlat != 2 || m.Nlon != 3 {
			t.Fatalf("want full-shape sentinel, got (%d,%d)", m.Nlat, m.Nlon)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m, err := mk.Compute(ctx, okGrid, okSet)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
		if !m.IsSentinel() {
			t.Fatal("canceled compute must not return a partial mask")
		}
	})
}

func TestComputeParallelMatchesSerial(t *testing.T) {
	g := &grid.Grid{
		Lat: grid.Axis{-40, -30, -20, -10, 0, 10, 20, 30, 40},
		Lon: grid.Axis{-40, -30, -20, -10, 0, 10, 20, 30, 40},
	}
	fs := setOf(t, rectPoly(-35, -35, 35, 35), rectPoly(-5, -45, 45, 5))

	serial, err := NewMasker(nil).Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	parallelCfg := params.DefaultMaskConfig()
	parallelCfg.Workers = 4
	parallel, err := NewMasker(parallelCfg).Compute(context.Background(), g, fs)
	if err != nil {
		t.Fatal(err)
	}
	if !serial.Equal(parallel) {
		t.Fatal("parallel row scanning changed the mask")
	}
}

func TestMaskOrMerge(t *testing.T) {
	a := New(2, 2)
	a.Set(0, 0, Inside)
	b := New(2, 2)
	b.Set(1, 1, Inside)
	if err := a.Or(b); err != nil {
		t.Fatal(err)
	}
	if a.At(0, 0) != Inside || a.At(1, 1) != Inside || a.At(0, 1) != Outside {
		t.Fatalf("merged mask wrong: %v", a.Values)
	}
	if err := a.Or(New(3, 2)); err == nil {
		t.Fatal("want shape mismatch error")
	}
}
