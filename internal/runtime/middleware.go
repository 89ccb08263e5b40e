package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/eduanalytics/schoolsmcp/pkg/mcperr"
)

// Middleware guards every tool call with the request semaphore and the
// operation timeout, and logs call durations.
type Middleware struct {
	ctrl   *Controller
	logger zerolog.Logger
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl, logger: zerolog.Nop()}
}

// WithLogger returns a copy of the middleware that logs call durations.
func (m *Middleware) WithLogger(logger zerolog.Logger) *Middleware {
	return &Middleware{ctrl: m.ctrl, logger: logger}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limits := m.ctrl.LimitsSnapshot()

		acquireCtx := ctx
		if limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, limits.AcquireRequestTimeout)
			defer cancel()
		}
		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			// Tool-level error so the client can back off and retry.
			msg := fmt.Sprintf("concurrent request limit reached (max=%d)", limits.MaxConcurrentRequests)
			return mcperr.New(mcperr.BusyResource, msg), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		if limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, limits.OperationTimeout)
		}
		defer cancel()

		start := time.Now()
		res, err := next(callCtx, req)
		m.logger.Debug().
			Str("tool", req.Params.Name).
			Dur("elapsed", time.Since(start)).
			Msg("tool call completed")

		// A fired deadline surfaces as a TIMEOUT tool error, not a transport error.
		if err == context.DeadlineExceeded || (err == nil && res == nil && callCtx.Err() == context.DeadlineExceeded) {
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		return res, err
	}
}
