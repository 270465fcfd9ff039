// Package mask rasterizes a flattened polygon feature set onto a
// lat/lon grid, producing a binary inclusion mask.
package mask

import "fmt"

// Cell values. Missing fills the whole mask when a precondition
// fails; it never appears in a successfully computed mask.
const (
	Outside int8 = 0
	Inside  int8 = 1
	Missing int8 = -1
)

// Mask is a dense (nlat, nlon) cell grid, row-major.
// Invariant: once a cell is Inside it is never reset (OR-accumulation
// across features and rings).
type Mask struct {
	Nlat   int    `json:"nlat"`
	Nlon   int    `json:"nlon"`
	Values []int8 `json:"values"`
}

// New returns an all-Outside mask of the given shape.
func New(nlat, nlon int) *Mask {
	return &Mask{Nlat: nlat, Nlon: nlon, Values: make([]int8, nlat*nlon)}
}

// NewSentinel returns an all-Missing mask of the given shape.
// This is the uniform "no usable mask" result for degraded runs.
func NewSentinel(nlat, nlon int) *Mask {
	m := New(nlat, nlon)
	for i := range m.Values {
		m.Values[i] = Missing
	}
	return m
}

func (m *Mask) At(r, c int) int8     { return m.Values[r*m.Nlon+c] }
func (m *Mask) Set(r, c int, v int8) { m.Values[r*m.Nlon+c] = v }

// Row returns the row slice, aliasing the mask storage. Rows are
// disjoint, so concurrent writers on different rows need no locking.
func (m *Mask) Row(r int) []int8 { return m.Values[r*m.Nlon : (r+1)*m.Nlon] }

// IsSentinel reports whether the mask is entirely Missing.
func (m *Mask) IsSentinel() bool {
	if len(m.Values) == 0 {
		return false
	}
	for _, v := range m.Values {
		if v != Missing {
			return false
		}
	}
	return true
}

// Or merges another mask of identical shape by logical OR.
// Used to combine partial masks accumulated by independent workers.
func (m *Mask) Or(other *Mask) error {
	if m.Nlat != other.Nlat || m.Nlon != other.Nlon {
		return fmt.Errorf("shape mismatch: (%d,%d) vs (%d,%d)", m.Nlat, m.Nlon, other.Nlat, other.Nlon)
	}
	for i, v := range other.Values {
		if v == Inside {
			m.Values[i] = Inside
		}
	}
	return nil
}

// Equal reports shape and cell-wise equality.
func (m *Mask) Equal(other *Mask) bool {
	if m.Nlat != other.Nlat || m.Nlon != other.Nlon {
		return false
	}
	for i, v := range m.Values {
		if v != other.Values[i] {
			return false
		}
	}
	return true
}
