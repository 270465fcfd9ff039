package params

// MaskConfig tunes the grid masking computation.
type MaskConfig struct {
	// Planar selects the flat even-odd ray cast instead of the
	// geodesic (great-circle) containment test. Cheaper, but only
	// trustworthy for rings well away from the poles and the
	// antimeridian seam.
	Planar bool

	// Workers bounds the number of grid rows scanned concurrently
	// within a ring's candidate window. <= 1 means serial.
	Workers int

	// BoundaryEpsilonDegrees is the tolerance within which a grid
	// point is considered to lie ON a ring edge.
	// On-boundary points are classified inside.
	BoundaryEpsilonDegrees float64
}

func DefaultMaskConfig() *MaskConfig {
	return &MaskConfig{
		Planar:                 false,
		Workers:                1,
		BoundaryEpsilonDegrees: 1e-9, // ~0.1mm of ground distance
	}
}
