package overlay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matzehuels/popover/pkg/placement"
)

var menuAnchor = placement.Anchor{PageX: 100, PageY: 500, Width: 50, Height: 20}

func fixedMeasurer(a placement.Anchor) Measurer {
	return MeasurerFunc(func(context.Context) (placement.Anchor, error) { return a, nil })
}

func newMenuController() *Controller {
	c := NewController(nil)
	c.SetViewport(placement.Viewport{Width: 800, Height: 600})
	c.SetContent(placement.Size{Width: 180, Height: 60})
	return c
}

func TestControllerOpenComputes(t *testing.T) {
	c := newMenuController()
	if _, ok := c.Result(); ok {
		t.Fatal("hidden controller should not compute")
	}

	if err := c.Open(context.Background(), fixedMeasurer(menuAnchor)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	res, ok := c.Result()
	if !ok {
		t.Fatal("Open() should produce a result")
	}

	want := placement.Compute(placement.Request{
		Anchor:   &menuAnchor,
		Viewport: placement.Viewport{Width: 800, Height: 600},
		Content:  placement.Size{Width: 180, Height: 60},
	})
	if !res.Equal(want) {
		t.Errorf("Result() = %+v, want %+v", res, want)
	}
	if res.Placement != placement.Bottom {
		t.Errorf("Placement = %v, want bottom", res.Placement)
	}
}

func TestControllerSkipsWhileHidden(t *testing.T) {
	c := newMenuController()
	c.SetAnchor(&menuAnchor)
	c.SetHints(placement.Hints{Axis: "horizontal"})
	c.SetContent(placement.Size{Width: 200, Height: 80})
	if n := c.Recomputes(); n != 0 {
		t.Fatalf("Recomputes() = %d while hidden, want 0", n)
	}

	c.SetVisible(true)
	if n := c.Recomputes(); n != 1 {
		t.Errorf("Recomputes() = %d after showing, want 1", n)
	}
	if res, _ := c.Result(); res.Placement != placement.Right {
		t.Errorf("Placement = %v, want right from the axis hint", res.Placement)
	}
}

func TestControllerEqualInputsDoNotRecompute(t *testing.T) {
	c := newMenuController()
	c.SetVisible(true)
	c.SetAnchor(&menuAnchor)
	base := c.Recomputes()

	a := menuAnchor
	c.SetAnchor(&a)
	c.SetViewport(placement.Viewport{Width: 800, Height: 600})
	c.SetHints(placement.Hints{})
	c.SetHints(placement.Hints{Position: "nonsense"}) // ignored hint normalizes away
	if n := c.Recomputes(); n != base {
		t.Errorf("Recomputes() = %d after equal inputs, want %d", n, base)
	}

	c.SetViewport(placement.Viewport{Width: 1024, Height: 768})
	if n := c.Recomputes(); n != base+1 {
		t.Errorf("Recomputes() = %d after viewport change, want %d", n, base+1)
	}

	// Hiding and re-showing with unchanged inputs reuses the result
	c.Close()
	c.SetVisible(true)
	if n := c.Recomputes(); n != base+1 {
		t.Errorf("Recomputes() = %d after reopen, want %d", n, base+1)
	}
}

func TestControllerSubscribe(t *testing.T) {
	c := newMenuController()
	var got []placement.Result
	unsubscribe := c.Subscribe(func(r placement.Result) { got = append(got, r) })

	c.SetVisible(true)
	c.SetAnchor(&menuAnchor)
	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2 (bottom sheet, then anchored)", len(got))
	}
	if got[0].Mode.Kind != placement.ModeBottomSheet {
		t.Errorf("first result mode = %v, want bottom sheet without anchor", got[0].Mode)
	}
	if got[1].Placement != placement.Bottom {
		t.Errorf("second result placement = %v, want bottom", got[1].Placement)
	}

	// An input change that yields the same result does not notify
	c.SetConstraints(placement.Constraints{MinWidth: placement.Px(100)})
	if len(got) != 2 {
		t.Errorf("notifications = %d after no-op change, want 2", len(got))
	}

	unsubscribe()
	unsubscribe()
	c.SetViewport(placement.Viewport{Width: 1024, Height: 768})
	if len(got) != 2 {
		t.Errorf("unsubscribed callback still called, notifications = %d", len(got))
	}
}

func TestControllerSubscriberMayCallBack(t *testing.T) {
	c := newMenuController()
	c.Subscribe(func(placement.Result) {
		// Reading state from a callback must not deadlock
		_ = c.Request()
		_, _ = c.Result()
	})
	c.SetVisible(true)
}

func TestControllerStaleMeasurementDiscarded(t *testing.T) {
	c := newMenuController()
	c.SetVisible(true)

	release := make(chan struct{})
	started := make(chan struct{})
	slow := MeasurerFunc(func(context.Context) (placement.Anchor, error) {
		close(started)
		<-release
		return placement.Anchor{PageX: 600, PageY: 10, Width: 50, Height: 20}, nil
	})

	errc := make(chan error, 1)
	go func() { errc <- c.Measure(context.Background(), slow) }()
	<-started

	if err := c.Measure(context.Background(), fixedMeasurer(menuAnchor)); err != nil {
		t.Fatalf("newer Measure() error = %v", err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, ErrStale) {
		t.Errorf("older Measure() = %v, want ErrStale", err)
	}
	req := c.Request()
	if req.Anchor == nil || *req.Anchor != menuAnchor {
		t.Errorf("Anchor = %+v, want the newer measurement", req.Anchor)
	}
}

func TestControllerCloseDropsInflightMeasurement(t *testing.T) {
	c := newMenuController()
	c.SetVisible(true)

	m := MeasurerFunc(func(context.Context) (placement.Anchor, error) {
		c.Close()
		return menuAnchor, nil
	})
	if err := c.Measure(context.Background(), m); !errors.Is(err, ErrStale) {
		t.Errorf("Measure() after Close = %v, want ErrStale", err)
	}
	if c.Request().Anchor != nil {
		t.Error("stale measurement should not be applied")
	}
}

func TestControllerMeasureError(t *testing.T) {
	c := newMenuController()
	boom := errors.New("layout not ready")
	err := c.Open(context.Background(), MeasurerFunc(func(context.Context) (placement.Anchor, error) {
		return placement.Anchor{}, boom
	}))
	if !errors.Is(err, boom) {
		t.Errorf("Open() = %v, want wrapped measurer error", err)
	}

	// Without an anchor the visible overlay falls back to a bottom sheet
	res, ok := c.Result()
	if !ok || res.Mode.Kind != placement.ModeBottomSheet {
		t.Errorf("Result() = %+v, %v; want bottom sheet", res, ok)
	}
}

func TestControllerConcurrentUpdates(t *testing.T) {
	c := newMenuController()
	c.SetVisible(true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := placement.Anchor{PageX: float64(i * 10), PageY: 300, Width: 40, Height: 20}
			c.SetAnchor(&a)
			_, _ = c.Result()
		}()
	}
	wg.Wait()

	res, ok := c.Result()
	if !ok {
		t.Fatal("Result() should exist")
	}
	if want := placement.Compute(c.Request()); !res.Equal(want) {
		t.Errorf("final result %+v does not match final inputs %+v", res, want)
	}
}

func TestControllerModes(t *testing.T) {
	c := NewController(nil)
	c.SetViewport(placement.Viewport{Width: 390, Height: 844, Class: placement.Compact})
	c.SetAnchor(&placement.Anchor{PageX: 340, PageY: 10, Width: 40, Height: 40})
	c.SetModes(false, true)
	c.SetVisible(true)

	res, _ := c.Result()
	if res.Mode != (placement.Mode{Kind: placement.ModeNavigation, Side: placement.Right}) {
		t.Errorf("Mode = %v, want navigation from the right", res.Mode)
	}
}

func TestControllerExplain(t *testing.T) {
	c := newMenuController()
	if _, ok := c.Explain(); ok {
		t.Fatal("Explain() before any computation should report false")
	}

	if err := c.Open(context.Background(), fixedMeasurer(menuAnchor)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	trace, ok := c.Explain()
	if !ok {
		t.Fatal("Explain() after Open() should report true")
	}
	res, _ := c.Result()
	if !trace.Result.Equal(res) {
		t.Errorf("trace result = %+v, want %+v", trace.Result, res)
	}
	if trace.Preferred != placement.Bottom || len(trace.Candidates) == 0 {
		t.Errorf("trace = %+v, want bottom preferred with candidates", trace)
	}
}

func TestControllerOlderMeasurementNeverWinsRace(t *testing.T) {
	older := placement.Anchor{PageX: 600, PageY: 10, Width: 50, Height: 20}

	for i := 0; i < 500; i++ {
		c := newMenuController()
		c.SetVisible(true)

		measured := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- c.Measure(context.Background(), MeasurerFunc(func(context.Context) (placement.Anchor, error) {
				close(measured)
				return older, nil
			}))
		}()

		// Start the newer measurement once the older one has its anchor but
		// may not have applied it yet.
		<-measured
		if err := c.Measure(context.Background(), fixedMeasurer(menuAnchor)); err != nil {
			t.Fatalf("run %d: newer Measure() error = %v", i, err)
		}
		if err := <-done; err != nil && !errors.Is(err, ErrStale) {
			t.Fatalf("run %d: older Measure() error = %v", i, err)
		}

		if a := c.Request().Anchor; a == nil || *a != menuAnchor {
			t.Fatalf("run %d: Anchor = %+v, want the newer measurement", i, a)
		}
	}
}

func TestControllerSubscriberEndsOnLatestResult(t *testing.T) {
	for run := 0; run < 100; run++ {
		c := newMenuController()
		c.SetVisible(true)

		var mu sync.Mutex
		var last placement.Result
		var seen bool
		c.Subscribe(func(r placement.Result) {
			mu.Lock()
			last, seen = r, true
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					a := placement.Anchor{PageX: float64(g*170 + i*5), PageY: float64(i * 25), Width: 40, Height: 20}
					c.SetAnchor(&a)
				}
			}()
		}
		wg.Wait()

		res, _ := c.Result()
		mu.Lock()
		if !seen || !last.Equal(res) {
			t.Fatalf("run %d: subscriber's last result %+v, controller result %+v", run, last, res)
		}
		mu.Unlock()
	}
}

func TestControllerSubscriberMaySetInputs(t *testing.T) {
	c := newMenuController()
	var calls int
	c.Subscribe(func(r placement.Result) {
		calls++
		if calls == 1 {
			// Setting inputs from a callback must not deadlock; the new
			// result is delivered after this callback returns
			c.SetAnchor(&menuAnchor)
		}
	})
	c.SetVisible(true)

	if calls != 2 {
		t.Fatalf("callbacks = %d, want 2 (bottom sheet, then anchored)", calls)
	}
	res, _ := c.Result()
	if res.Placement != placement.Bottom || res.Mode.Kind != placement.ModeNone {
		t.Errorf("Result() = %+v, want anchored bottom placement", res)
	}
}
