package placement

// Rect is an axis-aligned box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Within reports whether r lies inside a w by h area.
func (r Rect) Within(w, h float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= w && r.Y+r.Height <= h
}

// Box converts r into an absolute rectangle for a panel of the given
// content size. Unset dimensions fall back to the content size, capped by
// MaxHeight; edge offsets are measured from the matching viewport edge.
func (r Result) Box(vp Viewport, content Size) Rect {
	w := nonNeg(content.Width)
	if r.Width != nil {
		w = *r.Width
	}
	h := nonNeg(content.Height)
	if r.Height != nil {
		h = *r.Height
	}
	if r.MaxHeight != nil {
		h = min(h, *r.MaxHeight)
	}

	vw, vh := nonNeg(vp.Width), nonNeg(vp.Height)
	box := Rect{Width: w, Height: h}
	switch {
	case r.Left != nil:
		box.X = *r.Left
	case r.Right != nil:
		box.X = vw - *r.Right - w
	}
	switch {
	case r.Top != nil:
		box.Y = *r.Top
	case r.Bottom != nil:
		box.Y = vh - *r.Bottom - h
	}
	return box
}
