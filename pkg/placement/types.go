package placement

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Side
// =============================================================================

// Side is one of the four cardinal placement directions.
type Side int

const (
	Bottom Side = iota
	Top
	Left
	Right
)

var sideNames = [...]string{Bottom: "bottom", Top: "top", Left: "left", Right: "right"}

// String returns the lowercase side name.
func (s Side) String() string {
	if s < Bottom || s > Right {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// IsVertical reports whether s is Top or Bottom.
func (s Side) IsVertical() bool { return s == Top || s == Bottom }

// ParseSide parses a side name. Matching is case-insensitive and ignores
// surrounding whitespace; unrecognized values report false.
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bottom":
		return Bottom, true
	case "top":
		return Top, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return Bottom, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s < Bottom || s > Right {
		return nil, fmt.Errorf("invalid side %d", int(s))
	}
	return []byte(sideNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(b []byte) error {
	v, ok := ParseSide(string(b))
	if !ok {
		return fmt.Errorf("unknown side %q", string(b))
	}
	*s = v
	return nil
}

// =============================================================================
// Axis and Device Class
// =============================================================================

// Axis is the caller's preferred placement axis.
type Axis int

const (
	AxisNone Axis = iota
	AxisHorizontal
	AxisVertical
)

// String returns the axis name, or "none".
func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	}
	return "none"
}

// ParseAxis parses an axis hint. Unknown values yield AxisNone.
func ParseAxis(s string) Axis {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal":
		return AxisHorizontal
	case "vertical":
		return AxisVertical
	}
	return AxisNone
}

// DeviceClass is a coarse screen-size category.
type DeviceClass int

const (
	Large DeviceClass = iota
	Medium
	Compact
)

// String returns the class name.
func (c DeviceClass) String() string {
	switch c {
	case Compact:
		return "compact"
	case Medium:
		return "medium"
	}
	return "large"
}

// ParseDeviceClass parses a device class name. Unknown values yield Large.
func ParseDeviceClass(s string) DeviceClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return Compact
	case "medium":
		return Medium
	}
	return Large
}

// MarshalText implements encoding.TextMarshaler.
func (c DeviceClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *DeviceClass) UnmarshalText(b []byte) error {
	*c = ParseDeviceClass(string(b))
	return nil
}

// =============================================================================
// Geometry Inputs
// =============================================================================

// Anchor is the trigger element's bounding box in viewport coordinates.
type Anchor struct {
	PageX  float64 `json:"page_x"`
	PageY  float64 `json:"page_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether every field is finite and the size is non-negative.
func (a Anchor) Valid() bool {
	for _, v := range [...]float64{a.PageX, a.PageY, a.Width, a.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return a.Width >= 0 && a.Height >= 0
}

// Right returns the x coordinate of the anchor's right edge.
func (a Anchor) Right() float64 { return a.PageX + a.Width }

// Bottom returns the y coordinate of the anchor's bottom edge.
func (a Anchor) Bottom() float64 { return a.PageY + a.Height }

// CenterX returns the horizontal center of the anchor.
func (a Anchor) CenterX() float64 { return a.PageX + a.Width/2 }

// Viewport is the visible area available for layout.
type Viewport struct {
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Class  DeviceClass `json:"device_class"`
}

// Size is the panel's own measured size, reported by the rendering layer
// after a first layout pass.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Constraints are the caller's size constraints before resolution.
type Constraints struct {
	MinWidth  Dimension `json:"min_width,omitempty"`
	MinHeight Dimension `json:"min_height,omitempty"`
	MaxHeight Dimension `json:"max_height,omitempty"`
	SameWidth bool      `json:"same_width,omitempty"`
}

// Hints carry the raw placement hints. They stay strings so that
// unrecognized values are ignored rather than rejected.
type Hints struct {
	Position string `json:"position,omitempty"`
	Axis     string `json:"axis,omitempty"`
}

// Flags are caller toggles that participate in mode resolution.
type Flags struct {
	Visible     bool `json:"visible"`
	BottomSheet bool `json:"bottom_sheet,omitempty"`
	Navigation  bool `json:"navigation,omitempty"`
}

// Request bundles every input of one computation. A nil Anchor means no
// measurement is available.
type Request struct {
	Anchor      *Anchor     `json:"anchor,omitempty"`
	Viewport    Viewport    `json:"viewport"`
	Content     Size        `json:"content"`
	Constraints Constraints `json:"constraints"`
	Hints       Hints       `json:"hints"`
	Flags       Flags       `json:"flags"`
}

// =============================================================================
// Output
// =============================================================================

// Result is the single authoritative output of a computation. In
// anchor-relative mode exactly one of Left/Right and one of Top/Bottom is set.
type Result struct {
	Placement  Side     `json:"computed_placement"`
	XPlacement Side     `json:"x_placement"`
	YPlacement Side     `json:"y_placement"`
	Mode       Mode     `json:"mode"`
	Left       *float64 `json:"left,omitempty"`
	Top        *float64 `json:"top,omitempty"`
	Right      *float64 `json:"right,omitempty"`
	Bottom     *float64 `json:"bottom,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	MaxHeight  *float64 `json:"max_height,omitempty"`
}

// Equal reports whether r and o are field-for-field identical.
func (r Result) Equal(o Result) bool {
	return r.Placement == o.Placement &&
		r.XPlacement == o.XPlacement &&
		r.YPlacement == o.YPlacement &&
		r.Mode == o.Mode &&
		eqPtr(r.Left, o.Left) && eqPtr(r.Top, o.Top) &&
		eqPtr(r.Right, o.Right) && eqPtr(r.Bottom, o.Bottom) &&
		eqPtr(r.Width, o.Width) && eqPtr(r.Height, o.Height) &&
		eqPtr(r.MaxHeight, o.MaxHeight)
}

func eqPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptr(v float64) *float64 { return &v }
