package position

// Normalizer maps raw spawn coordinates onto the canonical half of a
// map that is symmetric across its top-left to bottom-right diagonal,
// so that mirror-image spawns from the two teams collapse onto the
// same point.
type Normalizer struct {
	width  float64
	height float64
}

// NewNormalizer constructs a Normalizer for a map of the given
// dimensions.
func NewNormalizer(width, height float64) Normalizer {
	return Normalizer{width: width, height: height}
}

// Normalize returns the canonical coordinates for a raw (x, z) spawn.
// A point in the mirrored team's quadrant (x strictly left of center
// AND z strictly below center) is reflected through the map center:
// (W-x, H-z). Every other point, including points exactly on the
// center lines or the symmetry diagonal, passes through unchanged;
// boundary points stay on their raw side rather than being resolved to
// either team.
//
// The function is idempotent: a reflected point lands in the canonical
// quadrant, where the predicate no longer holds.
func (n Normalizer) Normalize(x, z float64) Point {
	centerX := n.width / 2
	centerZ := n.height / 2
	if x < centerX && z > centerZ {
		return Point{X: n.width - x, Z: n.height - z}
	}
	return Point{X: x, Z: z}
}

// NormalizePoint is a convenience wrapper over Normalize.
func (n Normalizer) NormalizePoint(p Point) Point {
	return n.Normalize(p.X, p.Z)
}
