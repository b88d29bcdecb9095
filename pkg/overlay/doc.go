// Package overlay drives the placement engine from a host UI.
//
// Hosts feed a [Controller] with the inputs the engine depends on (viewport,
// anchor measurement, content size, constraints, hints and flags) as they
// change. The controller recomputes only when an input actually changed,
// defers work while the panel is hidden, and notifies subscribers with each
// new [placement.Result].
//
// Anchor measurement is asynchronous. Every measurement request is tagged
// with a token by a [Tracker]; a newer request supersedes older ones, and a
// result that arrives for a superseded token is discarded:
//
//	ctrl := overlay.NewController(placement.New())
//	ctrl.SetViewport(placement.Viewport{Width: 390, Height: 844, Class: placement.Compact})
//	ctrl.SetContent(placement.Size{Width: 220, Height: 180})
//	unsubscribe := ctrl.Subscribe(func(r placement.Result) { render(r) })
//	defer unsubscribe()
//
//	if err := ctrl.Open(ctx, measurer); err != nil {
//	    return err
//	}
package overlay
