// Package pipeline runs placement requests through the engine with result
// caching, hooks and logging.
//
// This package is shared by the CLI and the HTTP API so both entry points
// normalize, key, cache and report placements the same way.
//
// # Architecture
//
// A request flows through three stages:
//
//  1. Normalize: [placement.Normalize] canonicalizes the request and the
//     normalized form is hashed together with the engine options.
//  2. Lookup: the hash keys the result cache; a hit is decoded and returned.
//  3. Compute: on a miss the engine runs and the result is stored.
//
// Cache failures never fail a placement. They are logged, reported through
// [observability.CacheHooks] and treated as misses.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger, placement.New())
//	res, err := runner.Place(ctx, req, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Placement.Placement, res.CacheInfo.Hit)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popover/pkg/cache"
	"github.com/matzehuels/popover/pkg/placement"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConcurrency bounds PlaceAll when Options.Concurrency is zero.
	DefaultConcurrency = 8

	// MaxBatch is the largest batch PlaceAll accepts.
	MaxBatch = 10000
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline call.
type Options struct {
	// Explain records the full selection trace alongside the result.
	Explain bool `json:"explain,omitempty"`

	// Refresh skips the cache lookup but still stores the fresh result.
	Refresh bool `json:"refresh,omitempty"`

	// TTL is the cache lifetime of stored results.
	TTL time.Duration `json:"-"`

	// Concurrency bounds the number of parallel computations in PlaceAll.
	Concurrency int `json:"-"`

	// Logger overrides the runner's logger for this call.
	Logger *log.Logger `json:"-"`

	// Progress is called by PlaceAll after each request completes with the
	// number done so far and the batch size. Calls may come from several
	// goroutines at once.
	Progress func(done, total int) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative: %v", o.TTL)
	}
	if o.TTL == 0 {
		o.TTL = cache.DefaultTTL
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative: %d", o.Concurrency)
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of one placement run.
type Result struct {
	// Request is the normalized request that was computed.
	Request placement.Request `json:"request"`

	// RequestHash is the structural hash of Request.
	RequestHash string `json:"request_hash"`

	// Placement is the computed layout.
	Placement placement.Result `json:"placement"`

	// Trace is set when Options.Explain was requested.
	Trace *placement.Trace `json:"trace,omitempty"`

	// Stats contains timing information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks whether the cache served the result.
	CacheInfo CacheInfo `json:"cache"`
}

// Stats contains execution statistics.
type Stats struct {
	Duration time.Duration `json:"duration_ns"`
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	Hit      bool `json:"hit"`       // Whether the placement came from cache
	TraceHit bool `json:"trace_hit"` // Whether the trace came from cache
}
