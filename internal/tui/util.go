package tui

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// globe scale in micro-pixels per normalised screen unit
func microScale(w, h int) float64 {
	return float64(min(w*2, h*4)) / 2 * 0.95
}

// screenToMicro maps normalised screen coordinates to the braille microgrid
// of a w x h cell canvas.
func screenToMicro(x, y float64, w, h int) (int, int) {
	s := microScale(w, h)
	return int(float64(w*2)/2 + x*s), int(float64(h*4)/2 + y*s)
}

// cellToScreen maps the centre of cell (cx, cy) back to normalised screen
// coordinates.
func cellToScreen(cx, cy, w, h int) (float64, float64) {
	s := microScale(w, h)
	mx := float64(cx*2) + 1
	my := float64(cy*4) + 2
	return (mx - float64(w*2)/2) / s, (my - float64(h*4)/2) / s
}
