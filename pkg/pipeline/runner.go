package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/popover/pkg/buildinfo"
	"github.com/matzehuels/popover/pkg/cache"
	"github.com/matzehuels/popover/pkg/observability"
	"github.com/matzehuels/popover/pkg/placement"
)

// Cache key types reported to observability hooks.
const (
	keyTypePlacement = "placement"
	keyTypeTrace     = "trace"
)

// Runner encapsulates placement execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, logger and engine. Multiple
// goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Engine *placement.Engine

	keyOpts cache.PlacementKeyOpts
}

// NewRunner creates a runner with the given cache, keyer and engine.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If engine is nil, an engine with default options is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, engine *placement.Engine) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if engine == nil {
		engine = placement.New()
	}
	optsHash := optionsHash(engine.Options(), logger)
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Engine:  engine,
		keyOpts: cache.PlacementKeyOpts{OptionsHash: optsHash, Version: buildinfo.Version},
	}
}

// Place runs one request through the pipeline.
func (r *Runner) Place(ctx context.Context, req placement.Request, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	norm := placement.Normalize(req)
	hash, err := requestHash(norm)
	if err != nil {
		return nil, err
	}
	class := norm.Viewport.Class.String()
	observability.Placement().OnPlaceStart(ctx, class)

	res := &Result{Request: norm, RequestHash: hash}
	res.Placement, res.CacheInfo.Hit = r.placeHashed(ctx, norm, hash, opts)
	if opts.Explain {
		trace, hit := r.explainHashed(ctx, norm, hash, opts)
		res.Trace = &trace
		res.CacheInfo.TraceHit = hit
	}
	res.Stats.Duration = time.Since(start)

	observability.Placement().OnPlaceComplete(ctx, observability.PlaceEvent{
		Class:     class,
		Placement: res.Placement.Placement.String(),
		Mode:      res.Placement.Mode.Kind.String(),
		Cached:    res.CacheInfo.Hit,
		Duration:  res.Stats.Duration,
	})
	opts.Logger.Debug("computed placement",
		"placement", res.Placement.Placement,
		"mode", res.Placement.Mode,
		"cached", res.CacheInfo.Hit,
		"duration", res.Stats.Duration)
	return res, nil
}

// PlaceWithCacheInfo computes the placement for req and reports whether it
// came from the cache.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, req placement.Request, opts Options) (placement.Result, bool, error) {
	res, err := r.Place(ctx, req, opts)
	if err != nil {
		return placement.Result{}, false, err
	}
	return res.Placement, res.CacheInfo.Hit, nil
}

// ExplainWithCacheInfo computes the selection trace for req and reports
// whether it came from the cache.
func (r *Runner) ExplainWithCacheInfo(ctx context.Context, req placement.Request, opts Options) (placement.Trace, bool, error) {
	opts.Explain = true
	res, err := r.Place(ctx, req, opts)
	if err != nil {
		return placement.Trace{}, false, err
	}
	return *res.Trace, res.CacheInfo.TraceHit, nil
}

// PlaceAll runs a batch of requests concurrently. Results keep the order of
// reqs. The first error cancels the remaining work.
func (r *Runner) PlaceAll(ctx context.Context, reqs []placement.Request, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if len(reqs) > MaxBatch {
		return nil, fmt.Errorf("batch of %d requests exceeds limit of %d", len(reqs), MaxBatch)
	}

	results := make([]*Result, len(reqs))
	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range reqs {
		g.Go(func() error {
			res, err := r.Place(ctx, reqs[i], opts)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(reqs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WithEngineOptions returns a runner sharing r's cache, keyer and logger
// whose engine applies extra on top of r's engine options. With no extra
// options r itself is returned.
func (r *Runner) WithEngineOptions(extra ...placement.Option) *Runner {
	if len(extra) == 0 {
		return r
	}
	opts := append([]placement.Option{placement.WithOptions(r.Engine.Options())}, extra...)
	return NewRunner(r.Cache, r.Keyer, r.Logger, placement.New(opts...))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Cached Stages
// =============================================================================

func (r *Runner) placeHashed(ctx context.Context, req placement.Request, hash string, opts Options) (placement.Result, bool) {
	key := r.Keyer.PlacementKey(hash, r.keyOpts)
	return cached(ctx, r, opts, key, keyTypePlacement, func() placement.Result {
		return r.Engine.Compute(req)
	})
}

func (r *Runner) explainHashed(ctx context.Context, req placement.Request, hash string, opts Options) (placement.Trace, bool) {
	key := r.Keyer.TraceKey(hash, r.keyOpts)
	return cached(ctx, r, opts, key, keyTypeTrace, func() placement.Trace {
		return r.Engine.Explain(req)
	})
}

// cached returns the value stored under key, or computes and stores it.
// Backend and decoding failures degrade to a recompute.
func cached[T any](ctx context.Context, r *Runner, opts Options, key, keyType string, compute func() T) (T, bool) {
	if cache.Disabled(r.Cache) {
		return compute(), false
	}
	logger := opts.Logger
	hooks := observability.Cache()

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache lookup failed", "type", keyType, "error", err)
			hooks.OnCacheError(ctx, keyType, err)
		case hit:
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				hooks.OnCacheHit(ctx, keyType)
				return v, true
			}
			// Undecodable entry: drop it and recompute
			_ = r.Cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	v := compute()
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("encode result for cache", "type", keyType, "error", err)
		return v, false
	}
	if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
		logger.Warn("cache store failed", "type", keyType, "error", err)
		hooks.OnCacheError(ctx, keyType, err)
		return v, false
	}
	hooks.OnCacheSet(ctx, keyType, len(data))
	return v, false
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// optionsHash hashes the engine options for cache keys. Options holding a
// NaN or infinity have no JSON encoding; they hash their Go syntax instead
// so such engines still get a key of their own.
func optionsHash(o placement.Options, logger *log.Logger) string {
	h, err := cache.HashJSON(o)
	if err == nil {
		return h
	}
	logger.Warn("engine options are not JSON encodable, hashing their Go syntax", "error", err)
	return cache.Hash(fmt.Appendf(nil, "%#v", o))
}

// requestHash hashes a normalized request.
func requestHash(req placement.Request) (string, error) {
	h, err := cache.HashJSON(req)
	if err != nil {
		return "", fmt.Errorf("hash request: %w", err)
	}
	return h, nil
}
