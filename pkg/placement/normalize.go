package placement

// Normalize returns a request that computes the same result as req while
// being safe to encode and compare: non-finite numbers are replaced, an
// invalid anchor is dropped, hints are canonicalized and the visibility
// flag, which the engine never reads, is cleared.
//
// Compute(Normalize(r)) always equals Compute(r).
func Normalize(req Request) Request {
	out := req
	if req.Anchor != nil {
		if req.Anchor.Valid() {
			a := *req.Anchor
			out.Anchor = &a
		} else {
			out.Anchor = nil
		}
	}
	out.Viewport.Width = nonNeg(req.Viewport.Width)
	out.Viewport.Height = nonNeg(req.Viewport.Height)
	out.Content = Size{Width: nonNeg(req.Content.Width), Height: nonNeg(req.Content.Height)}
	out.Constraints.MinWidth = finiteDimension(req.Constraints.MinWidth)
	out.Constraints.MinHeight = finiteDimension(req.Constraints.MinHeight)
	out.Constraints.MaxHeight = finiteDimension(req.Constraints.MaxHeight)

	out.Hints = Hints{}
	if s, ok := ParseSide(req.Hints.Position); ok {
		out.Hints.Position = s.String()
	}
	if ax := ParseAxis(req.Hints.Axis); ax != AxisNone {
		out.Hints.Axis = ax.String()
	}
	out.Flags.Visible = false
	return out
}

func finiteDimension(d Dimension) Dimension {
	if !finite(d.Value) {
		return Dimension{}
	}
	return d
}
