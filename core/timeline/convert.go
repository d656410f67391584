package timeline

import "math"

// Pure time/pixel arithmetic shared by the drag controller and the renderers.
// All functions are total: out-of-range inputs are clamped, never rejected.

// TimeToPercent maps a project timestamp to a normalized 0-100 position.
func TimeToPercent(t, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return clampFloat(float64(t)/float64(total)*100, 0, 100)
}

// PercentToTime maps a normalized 0-100 position back to a project
// timestamp, rounding to the nearest millisecond.
func PercentToTime(p float64, total int64) int64 {
	if total <= 0 {
		return 0
	}
	t := int64(math.Round(p / 100 * float64(total)))
	return clampInt64(t, 0, total)
}

// PercentToPixel maps a normalized position to a pixel offset inside an
// un-zoomed container of the given width.
func PercentToPixel(p, containerWidth float64) float64 {
	return p / 100 * containerWidth
}

// ApplyZoom scales a pixel value by the zoom factor (100 = no zoom).
func ApplyZoom(px, zoomPercent float64) float64 {
	return px * zoomPercent / 100
}

// UnapplyZoom converts a pointer-space pixel delta, measured against a
// zoomed timeline, back to a logical delta in un-zoomed container space.
func UnapplyZoom(px, zoomPercent float64) float64 {
	if zoomPercent == 0 {
		return px
	}
	return px / (zoomPercent / 100)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
