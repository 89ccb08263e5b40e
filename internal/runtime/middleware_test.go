package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/eduanalytics/schoolsmcp/config"
)

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMiddlewareBusyResource(t *testing.T) {
	limits := NewLimits(config.Default())
	limits.MaxConcurrentRequests = 1
	limits.AcquireRequestTimeout = 30 * time.Millisecond
	limits.OperationTimeout = time.Second

	mw := NewMiddleware(NewController(limits))

	release := make(chan struct{})
	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-release
		return mcp.NewToolResultText("ok"), nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := handler(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		require.False(t, res.IsError)
	}()

	// Give the first call time to take the only slot.
	time.Sleep(10 * time.Millisecond)

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res), "BUSY_RESOURCE")

	close(release)
	wg.Wait()
}

func TestMiddlewareOperationTimeout(t *testing.T) {
	limits := NewLimits(config.Default())
	limits.OperationTimeout = 20 * time.Millisecond

	mw := NewMiddleware(NewController(limits))
	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res), "TIMEOUT")
}

func TestMiddlewarePassThrough(t *testing.T) {
	mw := NewMiddleware(NewController(NewLimits(config.Default())))
	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("done"), nil
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "done", textOf(t, res))
}
