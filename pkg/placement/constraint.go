package placement

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Dimension is a size constraint expressed either in absolute pixels or as
// a percentage of the matching viewport dimension. The zero value resolves
// to zero.
type Dimension struct {
	Value   float64
	Percent bool
}

// Px returns an absolute pixel dimension.
func Px(v float64) Dimension { return Dimension{Value: v} }

// Percent returns a percentage-of-viewport dimension.
func Percent(v float64) Dimension { return Dimension{Value: v, Percent: true} }

// ParseDimension parses "NN%" as a percentage and a bare number as pixels.
// Anything else yields the zero Dimension.
func ParseDimension(s string) Dimension {
	s = strings.TrimSpace(s)
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || !finite(v) {
			return Dimension{}
		}
		return Percent(v)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil || !finite(v) {
		return Dimension{}
	}
	return Px(v)
}

// Resolve returns the dimension in pixels against basis. The result is
// never negative.
func (d Dimension) Resolve(basis float64) float64 {
	v := d.Value
	if d.Percent {
		v = basis * d.Value / 100
	}
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

// IsZero reports whether the dimension is unset.
func (d Dimension) IsZero() bool { return d == Dimension{} }

// String formats percentages with a trailing "%".
func (d Dimension) String() string {
	s := strconv.FormatFloat(d.Value, 'f', -1, 64)
	if d.Percent {
		return s + "%"
	}
	return s
}

// MarshalJSON encodes pixels as a number and percentages as a string.
func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Percent {
		return json.Marshal(d.String())
	}
	return json.Marshal(d.Value)
}

// MarshalText encodes the dimension as its String form for TOML and YAML.
func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts a number, a string, or null. Malformed values
// decode to the zero Dimension instead of failing.
func (d *Dimension) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*d = Dimension{}
		return nil
	}
	*d = dimensionFrom(raw)
	return nil
}

// UnmarshalTOML lets TOML documents use either form.
func (d *Dimension) UnmarshalTOML(v any) error {
	*d = dimensionFrom(v)
	return nil
}

// UnmarshalYAML lets YAML documents use either form.
func (d *Dimension) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		*d = Dimension{}
		return nil
	}
	*d = dimensionFrom(raw)
	return nil
}

func dimensionFrom(v any) Dimension {
	switch v := v.(type) {
	case float64:
		if finite(v) {
			return Px(v)
		}
	case int64:
		return Px(float64(v))
	case int:
		return Px(float64(v))
	case string:
		return ParseDimension(v)
	}
	return Dimension{}
}

// Resolved holds constraints converted to absolute pixels.
type Resolved struct {
	MinWidth  float64 `json:"min_width"`
	MinHeight float64 `json:"min_height"`
	MaxHeight float64 `json:"max_height"`
	SameWidth bool    `json:"same_width"`
}

// Resolve converts c to pixels. Width constraints resolve against the
// viewport width and height constraints against the viewport height.
func Resolve(c Constraints, vp Viewport) Resolved {
	return Resolved{
		MinWidth:  c.MinWidth.Resolve(vp.Width),
		MinHeight: c.MinHeight.Resolve(vp.Height),
		MaxHeight: c.MaxHeight.Resolve(vp.Height),
		SameWidth: c.SameWidth,
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
