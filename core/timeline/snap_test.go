package timeline

import (
	"math"
	"testing"
)

func TestSnap_Idempotent(t *testing.T) {
	s := NewSnapper()
	for p := -10.0; p <= 110.0; p += 0.37 {
		once := s.Snap(p, false)
		twice := s.Snap(once, false)
		if once != twice {
			t.Fatalf("snap not idempotent at %v: snap=%v, snap(snap)=%v", p, once, twice)
		}
	}
}

func TestSnap_ToleranceBand(t *testing.T) {
	s := NewSnapper() // step = 100/15, band = 20% of a step
	step := 100.0 / float64(s.Divisions)

	tests := []struct {
		name     string
		position float64
		snapped  bool
	}{
		{"on the grid line", step, true},
		{"inside the band", step * 1.15, true},
		{"just outside the band", step * 1.25, false},
		{"mid-step", step * 1.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Snap(tt.position, false)
			if tt.snapped {
				if math.Abs(got-step) > 1e-9 {
					t.Errorf("Snap(%v) = %v, want grid line %v", tt.position, got, step)
				}
			} else if got != tt.position {
				t.Errorf("Snap(%v) = %v, want unchanged", tt.position, got)
			}
		})
	}
}

func TestSnap_Disabled(t *testing.T) {
	s := NewSnapper()
	step := 100.0 / float64(s.Divisions)
	p := step * 1.05 // well inside the band
	if got := s.Snap(p, true); got != p {
		t.Errorf("disabled Snap(%v) = %v, want unchanged", p, got)
	}
}

func TestSnap_NoDivisions(t *testing.T) {
	s := Snapper{Divisions: 0, Tolerance: 0.2}
	if got := s.Snap(42.5, false); got != 42.5 {
		t.Errorf("Snap with no grid = %v, want unchanged", got)
	}
}
