package placement

// SpaceMap is the available distance between each anchor edge and the
// matching viewport edge. Values are never negative.
type SpaceMap struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Analyze measures the space around a within vp. Anchors partially off
// screen produce zero rather than negative space.
func Analyze(a Anchor, vp Viewport) SpaceMap {
	return SpaceMap{
		Top:    nonNeg(a.PageY),
		Bottom: nonNeg(vp.Height - a.Bottom()),
		Left:   nonNeg(a.PageX),
		Right:  nonNeg(vp.Width - a.Right()),
	}
}

// Get returns the space on side s.
func (m SpaceMap) Get(s Side) float64 {
	switch s {
	case Top:
		return m.Top
	case Left:
		return m.Left
	case Right:
		return m.Right
	}
	return m.Bottom
}

// MaxVertical returns the vertical side with the most room. Ties go to
// Bottom, the earlier side in the vertical order.
func (m SpaceMap) MaxVertical() Side {
	if m.Top > m.Bottom {
		return Top
	}
	return Bottom
}

// MaxHorizontal returns the horizontal side with the most room. Ties go to
// Left, the earlier side in the horizontal order.
func (m SpaceMap) MaxHorizontal() Side {
	if m.Right > m.Left {
		return Right
	}
	return Left
}

func nonNeg(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}
