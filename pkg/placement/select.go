package placement

var (
	horizontalOrder = []Side{Left, Right}
	verticalOrder   = []Side{Bottom, Top}
	defaultOrder    = []Side{Bottom, Left, Top, Right}
)

// Candidate is one evaluated placement.
type Candidate struct {
	Side Side   `json:"side"`
	Box  Result `json:"box"`
	Fits bool   `json:"fits"`
}

// preferredSide resolves the initial candidate. A recognized explicit
// position wins, then the axis hint, then the default heuristic.
func (e env) preferredSide(h Hints) Side {
	if s, ok := ParseSide(h.Position); ok {
		return s
	}
	sp := e.spaces
	switch ParseAxis(h.Axis) {
	case AxisHorizontal:
		return sp.MaxHorizontal()
	case AxisVertical:
		return sp.MaxVertical()
	}
	if e.content.Height >= e.opts.ContentHeightThreshold || !(sp.Top > sp.Bottom) {
		return Bottom
	}
	return Top
}

// candidateOrder returns the fallback walk for the axis hint.
func candidateOrder(h Hints) []Side {
	switch ParseAxis(h.Axis) {
	case AxisHorizontal:
		return horizontalOrder
	case AxisVertical:
		return verticalOrder
	}
	return defaultOrder
}

// fits evaluates the predicate for the candidate's own side.
func (e env) fits(c Result) bool {
	sp, pad := e.spaces, e.opts.Padding
	switch c.Placement {
	case Top:
		return sp.MaxVertical() == Top
	case Bottom:
		return *c.Top+e.content.Height <= e.vp.Height-pad || sp.MaxVertical() == Bottom
	case Left:
		return sp.MaxHorizontal() == Left
	case Right:
		return *c.Left+*c.Width <= e.vp.Width-pad || sp.MaxHorizontal() == Right
	}
	return false
}

type selection struct {
	preferred  Side
	order      []Side
	chosen     Result
	candidates []Candidate
}

// selectSide evaluates the preferred candidate and, when it does not fit,
// walks the fallback order. With no fitting candidate the preferred one is
// kept and may overflow the viewport. Only the candidate's own side
// predicate is checked, so a fitting candidate can still overflow on its
// cross axis.
func (e env) selectSide(h Hints) selection {
	pref := e.preferredSide(h)
	order := candidateOrder(h)

	first := buildCandidate(pref, e)
	evaluated := []Candidate{{Side: pref, Box: first, Fits: e.fits(first)}}
	if evaluated[0].Fits {
		return selection{pref, order, first, evaluated}
	}
	for _, s := range order {
		if s == pref {
			continue
		}
		c := buildCandidate(s, e)
		ok := e.fits(c)
		evaluated = append(evaluated, Candidate{Side: s, Box: c, Fits: ok})
		if ok {
			return selection{pref, order, c, evaluated}
		}
	}
	return selection{pref, order, first, evaluated}
}
