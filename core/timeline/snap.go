package timeline

import "math"

// Defaults match the product grid: 15 divisions over a 30s project gives a
// 2s grid line spacing, with a tolerance band of 20% of one step.
const (
	DefaultSnapDivisions = 15
	DefaultSnapTolerance = 0.2
)

// Snapper pulls normalized timeline positions onto the nearest grid line
// when they fall inside the tolerance band around it.
type Snapper struct {
	Divisions int     // number of grid steps across the full timeline
	Tolerance float64 // band half-width as a fraction of one step
}

// NewSnapper returns a Snapper with the product defaults.
func NewSnapper() Snapper {
	return Snapper{Divisions: DefaultSnapDivisions, Tolerance: DefaultSnapTolerance}
}

// Snap returns the grid line nearest to p when it lies within the tolerance
// band, otherwise p unchanged. disabled is the modifier-key escape hatch.
// Snap is idempotent: a position already on a grid line stays there.
func (s Snapper) Snap(p float64, disabled bool) float64 {
	if disabled || s.Divisions <= 0 {
		return p
	}
	step := 100.0 / float64(s.Divisions)
	nearest := math.Round(p/step) * step
	if math.Abs(p-nearest) > step*s.Tolerance {
		return p
	}
	return nearest
}
