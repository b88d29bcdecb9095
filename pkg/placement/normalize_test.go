package placement

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalizePreservesResult(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	anchor := Anchor{PageX: 300, PageY: 200, Width: 60, Height: 30}

	tests := []struct {
		name string
		req  Request
	}{
		{"plain", baseRequest()},
		{"non-finite viewport", Request{Anchor: &anchor, Viewport: Viewport{Width: nan, Height: inf}}},
		{"invalid anchor", Request{Anchor: &Anchor{PageX: nan}, Viewport: Viewport{Width: 800, Height: 600}}},
		{"mixed-case hints", Request{
			Anchor:   &anchor,
			Viewport: Viewport{Width: 800, Height: 600},
			Content:  Size{Width: 100, Height: 40},
			Hints:    Hints{Position: "Left", Axis: "HORIZONTAL"},
		}},
		{"unknown hints", Request{
			Anchor:   &anchor,
			Viewport: Viewport{Width: 800, Height: 600},
			Hints:    Hints{Position: "diagonal", Axis: "z"},
		}},
		{"non-finite constraints", Request{
			Anchor:      &anchor,
			Viewport:    Viewport{Width: 800, Height: 600},
			Content:     Size{Width: inf, Height: -3},
			Constraints: Constraints{MinWidth: Px(inf), MaxHeight: Percent(nan), MinHeight: Px(80)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm := Normalize(tt.req)
			if got, want := Compute(norm), Compute(tt.req); !got.Equal(want) {
				t.Errorf("Compute(Normalize(r)) = %+v, want %+v", got, want)
			}
			if _, err := json.Marshal(norm); err != nil {
				t.Errorf("normalized request should encode: %v", err)
			}
		})
	}
}

func TestNormalizeCanonicalizes(t *testing.T) {
	a := Anchor{PageX: 1, PageY: 2, Width: 3, Height: 4}
	req := Request{
		Anchor:   &a,
		Viewport: Viewport{Width: 800, Height: 600},
		Hints:    Hints{Position: " TOP ", Axis: "Vertical"},
		Flags:    Flags{Visible: true, BottomSheet: true},
	}
	norm := Normalize(req)

	if norm.Hints != (Hints{Position: "top", Axis: "vertical"}) {
		t.Errorf("Hints = %+v, want canonical", norm.Hints)
	}
	if norm.Flags.Visible {
		t.Error("Visible should be cleared")
	}
	if !norm.Flags.BottomSheet {
		t.Error("BottomSheet should be kept")
	}
	if norm.Anchor == req.Anchor {
		t.Error("Normalize should copy the anchor")
	}
	if !equalRequest(Normalize(norm), norm) {
		t.Error("Normalize should be idempotent")
	}
}

func equalRequest(a, b Request) bool {
	if (a.Anchor == nil) != (b.Anchor == nil) {
		return false
	}
	if a.Anchor != nil && *a.Anchor != *b.Anchor {
		return false
	}
	a.Anchor, b.Anchor = nil, nil
	return a == b
}
