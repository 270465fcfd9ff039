package grid

import (
	"errors"
	"testing"
)

func TestAxisMonotonic(t *testing.T) {
	cases := []struct {
		name string
		a    Axis
		want bool
	}{
		{"ascending", Axis{10, 20, 30, 40}, true},
		{"descending", Axis{40, 30, 20, 10}, true},
		{"single", Axis{5}, true},
		{"empty", Axis{}, false},
		{"repeat", Axis{10, 10, 20}, false},
		{"zigzag", Axis{10, 30, 20}, false},
		{"irregular ascending", Axis{-90, -85.5, 0, 1, 90}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Monotonic(); got != c.want {
				t.Errorf("Monotonic(%v) = %v, want %v", c.a, got, c.want)
			}
		})
	}
}

func TestAxisWindow(t *testing.T) {
	asc := Axis{10, 20, 30, 40}
	desc := Axis{40, 30, 20, 10}

	cases := []struct {
		name   string
		a      Axis
		lo, hi float64
		i0, i1 int
	}{
		{"interior", asc, 15, 35, 1, 2},
		{"exact bounds", asc, 20, 30, 1, 2},
		{"covers all", asc, 0, 100, 0, 3},
		{"between coords is empty", asc, 21, 29, 2, 1},
		// A bounding box entirely outside the axis coverage falls
		// back to the full range: the failed boundary search
		// defaults to the array extremity.
		{"above coverage full fallback", asc, 50, 60, 0, 3},
		{"below coverage full fallback", asc, -10, 5, 0, 3},
		{"descending interior", desc, 15, 35, 1, 2},
		{"descending above fallback", desc, 50, 60, 0, 3},
		{"descending below fallback", desc, -10, 5, 0, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			i0, i1 := c.a.Window(c.lo, c.hi)
			if i0 != c.i0 || i1 != c.i1 {
				t.Errorf("Window(%v, %v) = (%d, %d), want (%d, %d)", c.lo, c.hi, i0, i1, c.i0, c.i1)
			}
		})
	}
}

// Window must return exactly the indices whose coordinate falls in
// range whenever any do; the fallback only fires when none do.
func TestAxisWindowMembership(t *testing.T) {
	a := Axis{-90, -45.5, -10, 0, 3, 33, 88}
	lo, hi := -46.0, 3.0
	i0, i1 := a.Window(lo, hi)
	for i := range a {
		inWindow := i >= i0 && i <= i1
		inRange := a[i] >= lo && a[i] <= hi
		if inWindow != inRange {
			t.Errorf("index %d (coord %v): window=%v range=%v", i, a[i], inWindow, inRange)
		}
	}
}

func TestGridValidate(t *testing.T) {
	g := &Grid{Lat: Axis{10, 20}, Lon: Axis{0, 5, 10}}
	if err := g.Validate(); err != nil {
		t.Fatalf("valid grid: %v", err)
	}
	if nlat, nlon := g.Shape(); nlat != 2 || nlon != 3 {
		t.Fatalf("Shape() = (%d, %d)", nlat, nlon)
	}

	bad := &Grid{Lat: Axis{10, 10}, Lon: Axis{0, 5}}
	if err := bad.Validate(); !errors.Is(err, ErrInputShape) {
		t.Fatalf("want ErrInputShape, got %v", err)
	}
	empty := &Grid{Lat: Axis{10, 20}, Lon: Axis{}}
	if err := empty.Validate(); !errors.Is(err, ErrInputShape) {
		t.Fatalf("want ErrInputShape for empty axis, got %v", err)
	}
}

func TestFlipLon360(t *testing.T) {
	lon := Axis{0, 90, 180, 270}
	flipped, perm := FlipLon360(lon)
	wantAxis := Axis{-90, 0, 90, 180}
	wantPerm := []int{3, 0, 1, 2}
	for i := range wantAxis {
		if flipped[i] != wantAxis[i] || perm[i] != wantPerm[i] {
			t.Fatalf("FlipLon360 = %v %v, want %v %v", flipped, perm, wantAxis, wantPerm)
		}
	}
	if !flipped.Monotonic() {
		t.Fatal("flipped axis must stay monotonic")
	}

	already := Axis{-180, -90, 0, 90}
	same, id := FlipLon360(already)
	for i := range already {
		if same[i] != already[i] || id[i] != i {
			t.Fatalf("in-range axis should be identity: %v %v", same, id)
		}
	}
}
