package grid

// FlipLon360 rewrites an ascending 0..360 longitude axis to the
// -180..180 convention, rotating the axis so it stays monotonic.
// The returned permutation maps new column index -> old column index,
// for the caller to reorder co-registered data columns.
// Axes already within -180..180 come back unchanged with an
// identity permutation.
func FlipLon360(lon Axis) (flipped Axis, perm []int) {
	n := len(lon)
	perm = make([]int, n)
	split := -1
	for i, v := range lon {
		perm[i] = i
		if split < 0 && v > 180 {
			split = i
		}
	}
	if split < 0 {
		return lon, perm
	}
	flipped = make(Axis, 0, n)
	perm = perm[:0]
	for i := split; i < n; i++ {
		flipped = append(flipped, lon[i]-360)
		perm = append(perm, i)
	}
	for i := 0; i < split; i++ {
		flipped = append(flipped, lon[i])
		perm = append(perm, i)
	}
	return flipped, perm
}
