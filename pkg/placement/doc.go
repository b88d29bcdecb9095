// Package placement computes where a transient overlay panel (a contextual
// menu or popover) is positioned relative to its trigger element inside a
// bounded viewport.
//
// # Overview
//
// The engine is a deterministic, side-effect-free function of its inputs:
// the anchor's bounding box, the viewport dimensions and device class, size
// constraints, and placement hints. It never renders, never blocks, and keeps
// no state between calls. Identical requests always yield value-equal results.
//
// A computation runs through five stages:
//
//  1. Override: [ResolveMode] decides whether a fixed-geometry mode
//     (bottom sheet or navigation panel) replaces anchor-relative layout.
//  2. Constraints: [Resolve] turns pixel and percentage constraints into
//     absolute pixels.
//  3. Space: [Analyze] measures the room between each anchor edge and the
//     matching viewport edge.
//  4. Selection: a preferred [Side] is chosen from hints or a heuristic and
//     validated with fit predicates, walking a fallback order when it fails.
//  5. Composition: the chosen side becomes an absolute box in a [Result].
//
// # Usage
//
//	res := placement.Compute(placement.Request{
//	    Anchor:   &placement.Anchor{PageX: 100, PageY: 500, Width: 50, Height: 20},
//	    Viewport: placement.Viewport{Width: 800, Height: 600},
//	    Content:  placement.Size{Width: 180, Height: 60},
//	    Flags:    placement.Flags{Visible: true},
//	})
//	// res.Placement == placement.Bottom
//
// Engines with non-default tunables are built with [New]:
//
//	eng := placement.New(placement.WithPadding(12), placement.WithNative(true))
//	res := eng.Compute(req)
//
// Use [Engine.Explain] to inspect the candidates the selector evaluated.
//
// # Degenerate Inputs
//
// Inputs are normalized, never rejected. A missing or invalid anchor forces the
// bottom-sheet mode so a panel is always renderable. Zero or negative viewport
// dimensions clamp every space to zero. Malformed percentages resolve to zero
// and unknown position or axis hints are ignored.
package placement
