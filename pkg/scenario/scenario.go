// Package scenario reads and writes placement scenarios.
//
// A scenario is a file describing one placement request: the viewport, the
// anchor's bounding box, the content size, constraints, hints and flags.
// Scenarios drive the CLI, the sweep checker and the HTTP API fixtures, and
// are accepted as TOML, YAML or JSON:
//
//	name = "overflow menu"
//
//	[viewport]
//	width = 390
//	height = 844
//	device_class = "compact"
//
//	[anchor]
//	page_x = 340
//	page_y = 60
//	width = 40
//	height = 40
//
//	[content]
//	width = 220
//	height = 180
//
//	[constraints]
//	min_width = "40%"
//	max_height = 320
//
// Unlike the engine, which normalizes anything, loading is strict:
// non-finite or negative geometry and unknown hint values are rejected so
// mistakes in hand-written files surface early.
package scenario

import (
	"strings"

	"github.com/matzehuels/popover/pkg/errors"
	"github.com/matzehuels/popover/pkg/placement"
)

// Scenario is one placement request as written in a file.
type Scenario struct {
	Name        string      `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Description string      `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Viewport    Viewport    `toml:"viewport" yaml:"viewport" json:"viewport"`
	Anchor      *Anchor     `toml:"anchor,omitempty" yaml:"anchor,omitempty" json:"anchor,omitempty"`
	Content     Size        `toml:"content" yaml:"content" json:"content"`
	Constraints Constraints `toml:"constraints" yaml:"constraints" json:"constraints"`
	Hints       Hints       `toml:"hints" yaml:"hints" json:"hints"`
	Flags       Flags       `toml:"flags" yaml:"flags" json:"flags"`
	Engine      *Engine     `toml:"engine,omitempty" yaml:"engine,omitempty" json:"engine,omitempty"`
}

// Viewport is the visible area. DeviceClass is one of large, medium or
// compact; empty means large.
type Viewport struct {
	Width       float64 `toml:"width" yaml:"width" json:"width"`
	Height      float64 `toml:"height" yaml:"height" json:"height"`
	DeviceClass string  `toml:"device_class,omitempty" yaml:"device_class,omitempty" json:"device_class,omitempty"`
}

// Anchor is the trigger's bounding box in page coordinates.
type Anchor struct {
	PageX  float64 `toml:"page_x" yaml:"page_x" json:"page_x"`
	PageY  float64 `toml:"page_y" yaml:"page_y" json:"page_y"`
	Width  float64 `toml:"width" yaml:"width" json:"width"`
	Height float64 `toml:"height" yaml:"height" json:"height"`
}

// Size is the measured content size.
type Size struct {
	Width  float64 `toml:"width" yaml:"width" json:"width"`
	Height float64 `toml:"height" yaml:"height" json:"height"`
}

// Constraints accept numbers (pixels) or "NN%" strings.
type Constraints struct {
	MinWidth  placement.Dimension `toml:"min_width,omitempty" yaml:"min_width,omitempty" json:"min_width,omitempty"`
	MinHeight placement.Dimension `toml:"min_height,omitempty" yaml:"min_height,omitempty" json:"min_height,omitempty"`
	MaxHeight placement.Dimension `toml:"max_height,omitempty" yaml:"max_height,omitempty" json:"max_height,omitempty"`
	SameWidth bool                `toml:"same_width,omitempty" yaml:"same_width,omitempty" json:"same_width,omitempty"`
}

// Hints are the requested side and axis.
type Hints struct {
	Position string `toml:"position,omitempty" yaml:"position,omitempty" json:"position,omitempty"`
	Axis     string `toml:"axis,omitempty" yaml:"axis,omitempty" json:"axis,omitempty"`
}

// Flags toggle visibility and the full-screen modes. Visible defaults to
// true when the file does not mention it.
type Flags struct {
	Visible     *bool `toml:"visible,omitempty" yaml:"visible,omitempty" json:"visible,omitempty"`
	BottomSheet bool  `toml:"bottom_sheet,omitempty" yaml:"bottom_sheet,omitempty" json:"bottom_sheet,omitempty"`
	Navigation  bool  `toml:"navigation,omitempty" yaml:"navigation,omitempty" json:"navigation,omitempty"`
}

// Engine holds per-scenario engine overrides applied on top of the
// configured engine.
type Engine struct {
	Padding          *float64 `toml:"padding,omitempty" yaml:"padding,omitempty" json:"padding,omitempty"`
	Native           *bool    `toml:"native,omitempty" yaml:"native,omitempty" json:"native,omitempty"`
	NativeCorrection *float64 `toml:"native_correction,omitempty" yaml:"native_correction,omitempty" json:"native_correction,omitempty"`
}

// Validate checks the scenario for values a host would never produce.
func (s *Scenario) Validate() error {
	type check struct {
		field string
		v     float64
	}
	sizes := []check{
		{"viewport.width", s.Viewport.Width},
		{"viewport.height", s.Viewport.Height},
		{"content.width", s.Content.Width},
		{"content.height", s.Content.Height},
	}
	if a := s.Anchor; a != nil {
		if err := errors.ValidateFinite("anchor.page_x", a.PageX); err != nil {
			return err
		}
		if err := errors.ValidateFinite("anchor.page_y", a.PageY); err != nil {
			return err
		}
		sizes = append(sizes, check{"anchor.width", a.Width}, check{"anchor.height", a.Height})
	}
	for _, c := range sizes {
		if err := errors.ValidateNonNegative(c.field, c.v); err != nil {
			return err
		}
	}

	switch strings.ToLower(strings.TrimSpace(s.Viewport.DeviceClass)) {
	case "", placement.Large.String(), placement.Medium.String(), placement.Compact.String():
	default:
		return errors.New(errors.ErrCodeInvalidScenario, "unknown device_class %q (want large, medium or compact)", s.Viewport.DeviceClass)
	}
	if s.Hints.Position != "" {
		if _, ok := placement.ParseSide(s.Hints.Position); !ok {
			return errors.New(errors.ErrCodeInvalidScenario, "unknown hints.position %q (want top, bottom, left or right)", s.Hints.Position)
		}
	}
	if s.Hints.Axis != "" && placement.ParseAxis(s.Hints.Axis) == placement.AxisNone {
		return errors.New(errors.ErrCodeInvalidScenario, "unknown hints.axis %q (want horizontal or vertical)", s.Hints.Axis)
	}
	if e := s.Engine; e != nil {
		if e.Padding != nil {
			if err := errors.ValidateNonNegative("engine.padding", *e.Padding); err != nil {
				return err
			}
		}
		if e.NativeCorrection != nil {
			if err := errors.ValidateFinite("engine.native_correction", *e.NativeCorrection); err != nil {
				return err
			}
		}
	}
	return nil
}

// Request converts the scenario into an engine request.
func (s *Scenario) Request() placement.Request {
	req := placement.Request{
		Viewport: placement.Viewport{
			Width:  s.Viewport.Width,
			Height: s.Viewport.Height,
			Class:  placement.ParseDeviceClass(s.Viewport.DeviceClass),
		},
		Content: placement.Size{Width: s.Content.Width, Height: s.Content.Height},
		Constraints: placement.Constraints{
			MinWidth:  s.Constraints.MinWidth,
			MinHeight: s.Constraints.MinHeight,
			MaxHeight: s.Constraints.MaxHeight,
			SameWidth: s.Constraints.SameWidth,
		},
		Hints: placement.Hints{Position: s.Hints.Position, Axis: s.Hints.Axis},
		Flags: placement.Flags{
			Visible:     s.Flags.Visible == nil || *s.Flags.Visible,
			BottomSheet: s.Flags.BottomSheet,
			Navigation:  s.Flags.Navigation,
		},
	}
	if a := s.Anchor; a != nil {
		req.Anchor = &placement.Anchor{PageX: a.PageX, PageY: a.PageY, Width: a.Width, Height: a.Height}
	}
	return req
}

// EngineOptions returns the scenario's engine overrides as options.
func (s *Scenario) EngineOptions() []placement.Option {
	if s.Engine == nil {
		return nil
	}
	var opts []placement.Option
	if s.Engine.Padding != nil {
		opts = append(opts, placement.WithPadding(*s.Engine.Padding))
	}
	if s.Engine.Native != nil {
		opts = append(opts, placement.WithNative(*s.Engine.Native))
	}
	if s.Engine.NativeCorrection != nil {
		opts = append(opts, placement.WithNativeCorrection(*s.Engine.NativeCorrection))
	}
	return opts
}

// FromRequest builds a scenario describing req.
func FromRequest(name string, req placement.Request) *Scenario {
	visible := req.Flags.Visible
	s := &Scenario{
		Name: name,
		Viewport: Viewport{
			Width:       req.Viewport.Width,
			Height:      req.Viewport.Height,
			DeviceClass: req.Viewport.Class.String(),
		},
		Content: Size{Width: req.Content.Width, Height: req.Content.Height},
		Constraints: Constraints{
			MinWidth:  req.Constraints.MinWidth,
			MinHeight: req.Constraints.MinHeight,
			MaxHeight: req.Constraints.MaxHeight,
			SameWidth: req.Constraints.SameWidth,
		},
		Hints: Hints{Position: req.Hints.Position, Axis: req.Hints.Axis},
		Flags: Flags{Visible: &visible, BottomSheet: req.Flags.BottomSheet, Navigation: req.Flags.Navigation},
	}
	if a := req.Anchor; a != nil {
		s.Anchor = &Anchor{PageX: a.PageX, PageY: a.PageY, Width: a.Width, Height: a.Height}
	}
	return s
}
