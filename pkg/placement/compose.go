package placement

// env is the normalized input shared by candidate construction and the fit
// predicates.
type env struct {
	anchor   Anchor
	vp       Viewport
	content  Size
	resolved Resolved
	spaces   SpaceMap
	opts     *Options
}

func newEnv(req Request, opts *Options) env {
	vp := Viewport{Width: nonNeg(req.Viewport.Width), Height: nonNeg(req.Viewport.Height), Class: req.Viewport.Class}
	return env{
		anchor:   *req.Anchor,
		vp:       vp,
		content:  Size{Width: nonNeg(req.Content.Width), Height: nonNeg(req.Content.Height)},
		resolved: Resolve(req.Constraints, vp),
		spaces:   Analyze(*req.Anchor, vp),
		opts:     opts,
	}
}

// buildCandidate lays the panel out against side. XPlacement and YPlacement
// record the direction the panel grows from the offset that was set: a set
// Left grows Right, a set Top grows Bottom.
func buildCandidate(side Side, e env) Result {
	a, sp := e.anchor, e.spaces
	w := e.width()
	res := Result{Placement: side, Width: ptr(w)}

	switch side {
	case Top, Bottom:
		e.alignHorizontal(&res, w)
		if side == Bottom {
			res.Top = ptr(a.Bottom() + e.correction())
			res.YPlacement = Bottom
		} else {
			res.Bottom = ptr(sp.Bottom + a.Height)
			res.YPlacement = Top
		}
		inset := e.opts.MaxHeightInset
		res.MaxHeight = ptr(e.maxHeight(max(sp.Top-inset, sp.Bottom-inset)))

	case Left, Right:
		if side == Right {
			res.Left = ptr(a.Right())
			res.XPlacement = Right
		} else {
			res.Right = ptr(sp.Right + a.Width)
			res.XPlacement = Left
		}
		var avail float64
		if sp.MaxVertical() == Bottom {
			res.Top = ptr(a.PageY + e.correction())
			res.YPlacement = Bottom
			avail = sp.Bottom
		} else {
			res.Bottom = ptr(sp.Bottom)
			res.YPlacement = Top
			avail = sp.Top
		}
		res.MaxHeight = ptr(e.maxHeight(avail))
	}

	if e.resolved.MinHeight > 0 {
		res.Height = ptr(min(max(e.content.Height, e.resolved.MinHeight), *res.MaxHeight))
	}
	return res
}

// width applies the same-width rule or clamps the panel's own width to the
// viewport. The minimum always wins.
func (e env) width() float64 {
	r := e.resolved
	if r.SameWidth {
		return max(r.MinWidth, e.anchor.Width)
	}
	return max(min(e.content.Width, e.vp.Width), r.MinWidth)
}

// alignHorizontal aligns the panel with the anchor when it fits in the
// anchor's footprint extended toward the roomier side, and otherwise pins
// it to the viewport edge on that side.
func (e env) alignHorizontal(res *Result, w float64) {
	a, sp, pad := e.anchor, e.spaces, e.opts.Padding
	if sp.MaxHorizontal() == Right {
		if w <= a.Width+sp.Right-pad {
			res.Left = ptr(a.PageX)
			res.XPlacement = Right
			return
		}
		res.Right = ptr(e.edgeInset(w))
		res.XPlacement = Left
		return
	}
	if w <= a.Width+sp.Left-pad {
		res.Right = ptr(sp.Right)
		res.XPlacement = Left
		return
	}
	res.Left = ptr(e.edgeInset(w))
	res.XPlacement = Right
}

// edgeInset keeps padding from the viewport edge when the panel leaves room
// for it.
func (e env) edgeInset(w float64) float64 {
	return nonNeg(min(e.opts.Padding, e.vp.Width-w))
}

// maxHeight applies the two-tier constraint policy to a natural bound. A
// generous constraint can only lower the natural bound; a tight one is
// applied directly. The minimum height wins over both and the viewport
// height caps the result.
func (e env) maxHeight(natural float64) float64 {
	m := nonNeg(natural)
	if c := e.resolved.MaxHeight; c > 0 {
		switch {
		case c >= e.opts.GenerousMaxHeightRatio*e.vp.Height:
			m = min(m, c)
		case c < e.opts.TightMaxHeight:
			m = c
		default:
			m = min(m, c)
		}
	}
	return min(max(m, e.resolved.MinHeight), e.vp.Height)
}

func (e env) correction() float64 {
	if e.opts.Native {
		return e.opts.NativeCorrection
	}
	return 0
}
