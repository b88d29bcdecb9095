package placement

import "slices"

// Engine computes placements with a fixed set of tunables. An Engine is
// immutable and safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an engine from [DefaultOptions] with opts applied in order.
func New(opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o}
}

// Options returns a copy of the engine's tunables.
func (e *Engine) Options() Options {
	o := e.opts
	o.BottomSheetClasses = slices.Clone(o.BottomSheetClasses)
	o.NavigationClasses = slices.Clone(o.NavigationClasses)
	return o
}

// Trace records how a result was reached. Fields other than Mode and Result
// are empty when an override mode short-circuits anchor-relative layout.
type Trace struct {
	Mode       Mode        `json:"mode"`
	Spaces     SpaceMap    `json:"spaces"`
	Resolved   Resolved    `json:"resolved"`
	Preferred  Side        `json:"preferred"`
	Order      []Side      `json:"order,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Result     Result      `json:"result"`
}

// Compute returns the placement for req.
func (e *Engine) Compute(req Request) Result {
	return e.Explain(req).Result
}

// Explain computes the placement for req and reports the intermediate steps.
func (e *Engine) Explain(req Request) Trace {
	mode := ResolveMode(req, e.opts)
	switch mode.Kind {
	case ModeBottomSheet:
		return Trace{Mode: mode, Result: bottomSheet(req.Viewport)}
	case ModeNavigation:
		return Trace{Mode: mode, Result: navigationPanel(mode.Side, req.Viewport, &e.opts)}
	}

	env := newEnv(req, &e.opts)
	sel := env.selectSide(req.Hints)
	return Trace{
		Mode:       mode,
		Spaces:     env.spaces,
		Resolved:   env.resolved,
		Preferred:  sel.preferred,
		Order:      slices.Clone(sel.order),
		Candidates: sel.candidates,
		Result:     sel.chosen,
	}
}

var defaultEngine = New()

// Compute returns the placement for req using default tunables.
func Compute(req Request) Result {
	return defaultEngine.Compute(req)
}
