package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/eduanalytics/schoolsmcp/config"
)

// Limits captures the concurrency and row guardrails configured for the server.
type Limits struct {
	MaxConcurrentRequests int

	// Row bounds
	MaxRowsPerRead int
	SampleRowLimit int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits from config with fallbacks for unset values.
func NewLimits(cfg *config.Config) Limits {
	l := Limits{
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		MaxRowsPerRead:        cfg.MaxRowsPerRead,
		SampleRowLimit:        cfg.SampleRowLimit,
		OperationTimeout:      cfg.OperationTimeout.Std(),
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
	if l.MaxConcurrentRequests <= 0 {
		l.MaxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if l.MaxRowsPerRead <= 0 {
		l.MaxRowsPerRead = config.DefaultMaxRowsPerRead
	}
	if l.SampleRowLimit <= 0 {
		l.SampleRowLimit = config.DefaultSampleRowLimit
	}
	if l.OperationTimeout <= 0 {
		l.OperationTimeout = config.DefaultOperationTimeout
	}
	return l
}

// Controller coordinates the request-capacity semaphore.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by a weighted semaphore.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and tools.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
