package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popover/pkg/cache"
	"github.com/matzehuels/popover/pkg/observability"
	"github.com/matzehuels/popover/pkg/placement"
)

// memCache is an in-memory cache that counts operations.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
	fail error
	ttls []time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail != nil {
		return nil, false, c.fail
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.ttls = append(c.ttls, ttl)
	if c.fail != nil {
		return c.fail
	}
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

// recordingHooks captures cache and placement events.
type recordingHooks struct {
	observability.NoopCacheHooks
	observability.NoopPlacementHooks
	mu     sync.Mutex
	hits   int
	misses int
	errs   int
	events []observability.PlaceEvent
}

func (h *recordingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *recordingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func (h *recordingHooks) OnCacheError(context.Context, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs++
}

func (h *recordingHooks) OnPlaceComplete(_ context.Context, ev observability.PlaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func installHooks(t *testing.T) *recordingHooks {
	t.Helper()
	h := &recordingHooks{}
	observability.SetCacheHooks(h)
	observability.SetPlacementHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func menuRequest() placement.Request {
	return placement.Request{
		Anchor:   &placement.Anchor{PageX: 100, PageY: 500, Width: 50, Height: 20},
		Viewport: placement.Viewport{Width: 800, Height: 600},
		Content:  placement.Size{Width: 180, Height: 60},
		Flags:    placement.Flags{Visible: true},
	}
}

func TestRunnerPlaceCachesResults(t *testing.T) {
	hooks := installHooks(t)
	c := newMemCache()
	r := NewRunner(c, nil, nil, nil)
	ctx := context.Background()

	first, err := r.Place(ctx, menuRequest(), Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if first.CacheInfo.Hit {
		t.Error("first Place() should miss")
	}

	second, err := r.Place(ctx, menuRequest(), Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if !second.CacheInfo.Hit {
		t.Error("second Place() should hit")
	}
	if !second.Placement.Equal(first.Placement) {
		t.Errorf("cached result differs:\n got %+v\nwant %+v", second.Placement, first.Placement)
	}
	if !second.Placement.Equal(placement.Compute(menuRequest())) {
		t.Error("cached result should equal a direct computation")
	}
	if first.RequestHash != second.RequestHash {
		t.Error("equal requests should hash equally")
	}

	if hooks.hits != 1 || hooks.misses != 1 {
		t.Errorf("hooks hits/misses = %d/%d, want 1/1", hooks.hits, hooks.misses)
	}
	if len(hooks.events) != 2 || !hooks.events[1].Cached || hooks.events[0].Placement != "bottom" {
		t.Errorf("placement events = %+v", hooks.events)
	}
	if c.ttls[0] != cache.DefaultTTL {
		t.Errorf("stored TTL = %v, want default", c.ttls[0])
	}
}

func TestRunnerWithoutCacheSkipsCacheHooks(t *testing.T) {
	hooks := installHooks(t)
	r := NewRunner(nil, nil, nil, nil)

	res, err := r.Place(context.Background(), menuRequest(), Options{Explain: true})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if res.CacheInfo.Hit || res.CacheInfo.TraceHit {
		t.Error("a disabled cache never hits")
	}
	if hooks.hits+hooks.misses+hooks.errs != 0 {
		t.Errorf("cache hooks fired %d/%d/%d times, want none", hooks.hits, hooks.misses, hooks.errs)
	}
	if len(hooks.events) != 1 {
		t.Errorf("placement events = %d, want 1", len(hooks.events))
	}
}

func TestRunnerNormalizesBeforeKeying(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil, nil)
	ctx := context.Background()

	a := menuRequest()
	a.Hints = placement.Hints{Position: "Bottom"}
	b := menuRequest()
	b.Hints = placement.Hints{Position: " bottom "}
	b.Flags.Visible = false

	ra, _ := r.Place(ctx, a, Options{})
	rb, _ := r.Place(ctx, b, Options{})
	if !rb.CacheInfo.Hit || ra.RequestHash != rb.RequestHash {
		t.Error("requests equal after normalization should share a cache entry")
	}
}

func TestRunnerEngineOptionsSeparateKeys(t *testing.T) {
	c := newMemCache()
	ctx := context.Background()

	def := NewRunner(c, nil, nil, placement.New())
	native := NewRunner(c, nil, nil, placement.New(placement.WithNative(true)))

	_, _ = def.Place(ctx, menuRequest(), Options{})
	res, _ := native.Place(ctx, menuRequest(), Options{})
	if res.CacheInfo.Hit {
		t.Error("different engine options must not share cache entries")
	}
	if *res.Placement.Top != 524 {
		t.Errorf("native Top = %v, want 524", *res.Placement.Top)
	}
}

func TestRunnerWithEngineOptions(t *testing.T) {
	c := newMemCache()
	base := NewRunner(c, nil, nil, placement.New(placement.WithPadding(12)))

	if got := base.WithEngineOptions(); got != base {
		t.Error("WithEngineOptions() without options should return the receiver")
	}

	derived := base.WithEngineOptions(placement.WithNative(true))
	if derived.Cache != base.Cache {
		t.Error("derived runner should share the cache")
	}
	opts := derived.Engine.Options()
	if !opts.Native || opts.Padding != 12 {
		t.Errorf("derived options = %+v, want native with padding 12", opts)
	}
	if base.Engine.Options().Native {
		t.Error("base engine must not change")
	}
}

func TestRunnerRefresh(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil, nil)
	ctx := context.Background()

	_, _ = r.Place(ctx, menuRequest(), Options{})
	res, _ := r.Place(ctx, menuRequest(), Options{Refresh: true})
	if res.CacheInfo.Hit {
		t.Error("Refresh should bypass the cache lookup")
	}
	if c.sets != 2 {
		t.Errorf("Refresh should still store, sets = %d", c.sets)
	}
}

func TestRunnerCacheFailureDegrades(t *testing.T) {
	hooks := installHooks(t)
	c := newMemCache()
	c.fail = errors.New("backend down")

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})
	r := NewRunner(c, nil, logger, nil)

	res, err := r.Place(context.Background(), menuRequest(), Options{})
	if err != nil {
		t.Fatalf("cache failures should not fail Place(): %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("failed lookup should count as miss")
	}
	if hooks.errs != 2 {
		t.Errorf("OnCacheError calls = %d, want 2 (get and set)", hooks.errs)
	}
	if !strings.Contains(buf.String(), "cache lookup failed") {
		t.Errorf("runner logger should report the failure, got %q", buf.String())
	}
}

func TestRunnerCorruptEntry(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil, nil)
	ctx := context.Background()

	first, _ := r.Place(ctx, menuRequest(), Options{})
	key := r.Keyer.PlacementKey(first.RequestHash, r.keyOpts)
	c.data[key] = []byte("{broken")

	res, err := r.Place(ctx, menuRequest(), Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("corrupt entry should be recomputed")
	}
	if !res.Placement.Equal(first.Placement) {
		t.Error("recomputed result should match")
	}
}

func TestRunnerExplain(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil, nil)
	ctx := context.Background()

	trace, hit, err := r.ExplainWithCacheInfo(ctx, menuRequest(), Options{})
	if err != nil {
		t.Fatalf("ExplainWithCacheInfo() error = %v", err)
	}
	if hit {
		t.Error("first explain should miss")
	}
	if len(trace.Candidates) == 0 {
		t.Error("trace should list candidates")
	}

	again, hit, _ := r.ExplainWithCacheInfo(ctx, menuRequest(), Options{})
	if !hit {
		t.Error("second explain should hit")
	}
	if !again.Result.Equal(trace.Result) || len(again.Candidates) != len(trace.Candidates) {
		t.Error("cached trace should match")
	}

	res, hit, _ := r.PlaceWithCacheInfo(ctx, menuRequest(), Options{})
	if !hit || !res.Equal(trace.Result) {
		t.Error("placement computed alongside the trace should be cached")
	}
}

func TestRunnerPlaceAll(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil, nil)

	var reqs []placement.Request
	for y := 0.0; y < 600; y += 50 {
		req := menuRequest()
		req.Anchor.PageY = y
		reqs = append(reqs, req)
	}

	results, err := r.PlaceAll(context.Background(), reqs, Options{Concurrency: 3})
	if err != nil {
		t.Fatalf("PlaceAll() error = %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(reqs))
	}
	for i, res := range results {
		if want := placement.Compute(reqs[i]); !res.Placement.Equal(want) {
			t.Errorf("results[%d] out of order or wrong: got %+v, want %+v", i, res.Placement, want)
		}
	}
}

func TestRunnerPlaceAllProgress(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	reqs := make([]placement.Request, 25)
	for i := range reqs {
		reqs[i] = menuRequest()
		reqs[i].Anchor.PageX = float64(i * 10)
	}

	var mu sync.Mutex
	seen := map[int]bool{}
	_, err := r.PlaceAll(context.Background(), reqs, Options{
		Concurrency: 4,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != len(reqs) {
				t.Errorf("Progress total = %d, want %d", total, len(reqs))
			}
			seen[done] = true
		},
	})
	if err != nil {
		t.Fatalf("PlaceAll() error = %v", err)
	}
	for n := 1; n <= len(reqs); n++ {
		if !seen[n] {
			t.Errorf("Progress never reported %d done", n)
		}
	}
}

func TestRunnerOptionsWithoutJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	nan := NewRunner(nil, nil, logger, placement.New(placement.WithPadding(math.NaN())))
	inf := NewRunner(nil, nil, logger, placement.New(placement.WithPadding(math.Inf(1))))
	def := NewRunner(nil, nil, logger, nil)

	if nan.keyOpts.OptionsHash == "" || inf.keyOpts.OptionsHash == "" {
		t.Fatal("options without a JSON encoding should still hash")
	}
	if nan.keyOpts.OptionsHash == inf.keyOpts.OptionsHash || nan.keyOpts.OptionsHash == def.keyOpts.OptionsHash {
		t.Error("distinct options must hash differently")
	}
	if again := NewRunner(nil, nil, logger, placement.New(placement.WithPadding(math.NaN()))); again.keyOpts.OptionsHash != nan.keyOpts.OptionsHash {
		t.Error("equal options must hash equally")
	}
	if !strings.Contains(buf.String(), "not JSON encodable") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestRunnerCanceledContext(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Place(ctx, menuRequest(), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Place() on canceled context = %v, want context.Canceled", err)
	}
	if _, err := r.PlaceAll(ctx, []placement.Request{menuRequest()}, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("PlaceAll() on canceled context = %v, want context.Canceled", err)
	}
}

func TestRunnerWithFileCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, cache.NewScopedKeyer(nil, "test:"), nil, nil)
	defer r.Close()
	ctx := context.Background()

	_, _ = r.Place(ctx, menuRequest(), Options{})
	res, _ := r.Place(ctx, menuRequest(), Options{})
	if !res.CacheInfo.Hit {
		t.Error("file cache should serve the second call")
	}
}
