package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matzehuels/popover/pkg/placement"
)

// ErrStale is returned by Measure when a newer measurement superseded the
// one that just finished. The result was discarded.
var ErrStale = errors.New("measurement superseded")

// Measurer obtains the anchor's bounding box from the host.
type Measurer interface {
	Measure(ctx context.Context) (placement.Anchor, error)
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func(ctx context.Context) (placement.Anchor, error)

// Measure calls f(ctx).
func (f MeasurerFunc) Measure(ctx context.Context) (placement.Anchor, error) { return f(ctx) }

// Subscriber receives every new result.
type Subscriber func(placement.Result)

// Controller holds the engine inputs for one overlay and recomputes the
// placement when they change. It is safe for concurrent use; subscribers
// are called without the controller's lock held, one delivery at a time,
// and the last result they see is always the controller's latest.
type Controller struct {
	engine  *placement.Engine
	tracker Tracker

	mu       sync.Mutex
	req      placement.Request
	anchor   placement.Anchor
	measured bool

	last       placement.Request // normalized inputs of the last computation
	result     placement.Result
	computed   bool
	recomputes int

	subs   map[int]Subscriber
	nextID int

	// seq counts published results; delivered is the seq subscribers last
	// saw. Only the goroutine that set delivering fans out.
	seq        uint64
	delivered  uint64
	delivering bool
}

// NewController creates a hidden controller. A nil engine uses the
// defaults.
func NewController(engine *placement.Engine) *Controller {
	if engine == nil {
		engine = placement.New()
	}
	return &Controller{engine: engine, subs: make(map[int]Subscriber)}
}

// =============================================================================
// Inputs
// =============================================================================

// SetViewport updates the viewport size and device class.
func (c *Controller) SetViewport(vp placement.Viewport) {
	c.update(func(r *placement.Request) { r.Viewport = vp })
}

// SetContent updates the measured panel size.
func (c *Controller) SetContent(s placement.Size) {
	c.update(func(r *placement.Request) { r.Content = s })
}

// SetConstraints updates the size constraints.
func (c *Controller) SetConstraints(cs placement.Constraints) {
	c.update(func(r *placement.Request) { r.Constraints = cs })
}

// SetHints updates the position and axis hints.
func (c *Controller) SetHints(h placement.Hints) {
	c.update(func(r *placement.Request) { r.Hints = h })
}

// SetModes toggles the bottom-sheet and navigation flags.
func (c *Controller) SetModes(bottomSheet, navigation bool) {
	c.update(func(r *placement.Request) {
		r.Flags.BottomSheet = bottomSheet
		r.Flags.Navigation = navigation
	})
}

// SetVisible shows or hides the overlay. Hiding drops any in-flight
// measurement.
func (c *Controller) SetVisible(visible bool) {
	if !visible {
		c.tracker.Invalidate()
	}
	c.update(func(r *placement.Request) { r.Flags.Visible = visible })
}

// SetAnchor applies an anchor measurement directly. A nil anchor clears it.
func (c *Controller) SetAnchor(a *placement.Anchor) {
	c.mu.Lock()
	c.setAnchorLocked(a)
	notify := c.recomputeLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) setAnchorLocked(a *placement.Anchor) {
	if a == nil {
		c.measured = false
		c.anchor = placement.Anchor{}
		return
	}
	c.measured = true
	c.anchor = *a
}

// Request returns a copy of the current inputs.
func (c *Controller) Request() placement.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

// =============================================================================
// Measurement
// =============================================================================

// Measure requests a fresh anchor measurement and applies it unless a newer
// request superseded it meanwhile, in which case ErrStale is returned.
func (c *Controller) Measure(ctx context.Context, m Measurer) error {
	tok := c.tracker.Begin()
	a, err := m.Measure(ctx)

	// The token check and the anchor write share one critical section so
	// a newer measurement cannot land between them.
	c.mu.Lock()
	if !c.tracker.Accept(tok) {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("measure anchor: %w", err)
	}
	c.setAnchorLocked(&a)
	notify := c.recomputeLocked()
	c.mu.Unlock()
	notify()
	return nil
}

// Open makes the overlay visible and measures its anchor.
func (c *Controller) Open(ctx context.Context, m Measurer) error {
	c.SetVisible(true)
	return c.Measure(ctx, m)
}

// Close hides the overlay.
func (c *Controller) Close() {
	c.SetVisible(false)
}

// =============================================================================
// Results
// =============================================================================

// Result returns the latest computed result and whether one exists.
func (c *Controller) Result() (placement.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.computed
}

// Explain reports how the latest result was selected. It returns false
// while nothing has been computed.
func (c *Controller) Explain() (placement.Trace, bool) {
	c.mu.Lock()
	last, ok := c.last, c.computed
	c.mu.Unlock()
	if !ok {
		return placement.Trace{}, false
	}
	return c.engine.Explain(last), true
}

// Recomputes reports how many times the engine has run.
func (c *Controller) Recomputes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputes
}

// Subscribe registers fn for future results and returns a function that
// removes it.
func (c *Controller) Subscribe(fn Subscriber) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// =============================================================================
// Recomputation
// =============================================================================

func (c *Controller) update(fn func(*placement.Request)) {
	c.mu.Lock()
	fn(&c.req)
	notify := c.recomputeLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) requestLocked() placement.Request {
	r := c.req
	if c.measured {
		a := c.anchor
		r.Anchor = &a
	}
	return r
}

// recomputeLocked runs the engine if the overlay is visible and its inputs
// differ from the last computation. It returns the notification to send once
// the lock is released.
func (c *Controller) recomputeLocked() func() {
	if !c.req.Flags.Visible {
		return func() {}
	}
	norm := placement.Normalize(c.requestLocked())
	if c.computed && sameInputs(norm, c.last) {
		return func() {}
	}

	res := c.engine.Compute(norm)
	c.recomputes++
	c.last = norm
	changed := !c.computed || !res.Equal(c.result)
	c.result, c.computed = res, true
	if !changed {
		return func() {}
	}
	c.seq++
	return c.deliver
}

// deliver fans out results until subscribers have seen the latest one.
// While another goroutine is delivering it returns at once; that goroutine
// picks up the newer result before it stops. Results published in between
// may be coalesced, but an older result never follows a newer one.
func (c *Controller) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for c.delivered != c.seq {
		res := c.result
		c.delivered = c.seq
		subs := make([]Subscriber, 0, len(c.subs))
		for _, fn := range c.subs {
			subs = append(subs, fn)
		}
		c.mu.Unlock()
		for _, fn := range subs {
			fn(res)
		}
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

// sameInputs compares two normalized requests field by field.
func sameInputs(a, b placement.Request) bool {
	if (a.Anchor == nil) != (b.Anchor == nil) {
		return false
	}
	if a.Anchor != nil && *a.Anchor != *b.Anchor {
		return false
	}
	a.Anchor, b.Anchor = nil, nil
	return a == b
}
