package placement

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ModeKind discriminates [Mode].
type ModeKind int

const (
	ModeNone ModeKind = iota
	ModeBottomSheet
	ModeNavigation
)

// String returns the mode kind name.
func (k ModeKind) String() string {
	switch k {
	case ModeBottomSheet:
		return "bottom_sheet"
	case ModeNavigation:
		return "navigation"
	}
	return "none"
}

// Mode decides whether anchor-relative geometry or a fixed-geometry
// override is produced. Side is meaningful only for ModeNavigation.
type Mode struct {
	Kind ModeKind
	Side Side
}

// String formats the mode, including the side for navigation panels.
func (m Mode) String() string {
	if m.Kind == ModeNavigation {
		return fmt.Sprintf("%s(%s)", m.Kind, m.Side)
	}
	return m.Kind.String()
}

type modeJSON struct {
	Kind string `json:"kind"`
	Side *Side  `json:"side,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	v := modeJSON{Kind: m.Kind.String()}
	if m.Kind == ModeNavigation {
		s := m.Side
		v.Side = &s
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var v modeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.Kind {
	case "none", "":
		*m = Mode{}
	case "bottom_sheet":
		*m = Mode{Kind: ModeBottomSheet}
	case "navigation":
		*m = Mode{Kind: ModeNavigation}
		if v.Side != nil {
			m.Side = *v.Side
		}
	default:
		return fmt.Errorf("unknown mode %q", v.Kind)
	}
	return nil
}

// ResolveMode picks the override mode for req. It is evaluated on every
// computation; no mode carries over between calls.
func ResolveMode(req Request, opts Options) Mode {
	if req.Anchor == nil || !req.Anchor.Valid() {
		return Mode{Kind: ModeBottomSheet}
	}
	class := req.Viewport.Class
	if req.Flags.Navigation && slices.Contains(opts.NavigationClasses, class) {
		return Mode{Kind: ModeNavigation, Side: navigationSide(*req.Anchor, req.Viewport)}
	}
	if req.Flags.BottomSheet && slices.Contains(opts.BottomSheetClasses, class) {
		return Mode{Kind: ModeBottomSheet}
	}
	return Mode{}
}

// navigationSide slides the panel in from the right when the anchor's
// center is past the viewport midpoint.
func navigationSide(a Anchor, vp Viewport) Side {
	if a.CenterX() > vp.Width/2 {
		return Right
	}
	return Left
}

func bottomSheet(vp Viewport) Result {
	return Result{
		Placement:  Bottom,
		XPlacement: Right,
		YPlacement: Top,
		Mode:       Mode{Kind: ModeBottomSheet},
		Width:      ptr(nonNeg(vp.Width)),
		Height:     ptr(nonNeg(vp.Height)),
	}
}

func navigationPanel(side Side, vp Viewport, opts *Options) Result {
	w := nonNeg(min(opts.NavWidthRatio*vp.Width, opts.NavMaxWidth))
	res := Result{
		Placement:  side,
		YPlacement: Bottom,
		Mode:       Mode{Kind: ModeNavigation, Side: side},
		Top:        ptr(0),
		Width:      ptr(w),
		Height:     ptr(nonNeg(vp.Height)),
	}
	if side == Right {
		res.Right = ptr(0)
		res.XPlacement = Left
	} else {
		res.Left = ptr(0)
		res.XPlacement = Right
	}
	return res
}
