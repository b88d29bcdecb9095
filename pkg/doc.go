// Package pkg provides the libraries behind popover, an anchored overlay
// placement engine.
//
// # Overview
//
// Popover decides where a floating panel (menu, popover, tooltip) goes
// relative to the element that opened it. The pkg directory is organized
// by concern:
//
//  1. [placement] - The pure engine (constraints, space analysis, side
//     selection, layout and device-class overrides)
//  2. [overlay] - A reactive controller that recomputes on input changes
//     and discards stale anchor measurements
//  3. [scenario] - TOML, YAML and JSON scenario files
//  4. [pipeline] - Cached, hooked execution shared by the CLI and API
//  5. [cache], [config], [errors], [observability], [buildinfo] -
//     Supporting infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	scenario file / HTTP body
//	         ↓
//	    [scenario] package (decode + validate)
//	         ↓
//	    [pipeline] package (normalize, hash, cache lookup)
//	         ↓
//	    [placement] package (compute)
//	         ↓
//	    Result JSON / YAML / TOML
//
// Interactive hosts skip the pipeline and drive [overlay.Controller]
// directly.
//
// # Quick Start
//
//	import "github.com/matzehuels/popover/pkg/placement"
//
//	res := placement.Compute(placement.Request{
//	    Anchor:   &placement.Anchor{PageX: 100, PageY: 500, Width: 50, Height: 20},
//	    Viewport: placement.Viewport{Width: 800, Height: 600},
//	    Content:  placement.Size{Width: 180, Height: 60},
//	})
//	fmt.Println(res.Placement) // bottom
package pkg
