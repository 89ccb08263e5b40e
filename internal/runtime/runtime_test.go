package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eduanalytics/schoolsmcp/config"
)

func TestNewLimitsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxConcurrentRequests = 3
	cfg.MaxRowsPerRead = 100
	cfg.SampleRowLimit = 5

	limits := NewLimits(cfg)
	require.Equal(t, 3, limits.MaxConcurrentRequests)
	require.Equal(t, 100, limits.MaxRowsPerRead)
	require.Equal(t, 5, limits.SampleRowLimit)
	require.Equal(t, config.DefaultOperationTimeout, limits.OperationTimeout)
	require.Equal(t, config.DefaultAcquireRequestTimeout, limits.AcquireRequestTimeout)
}

func TestNewLimitsFallbacks(t *testing.T) {
	cfg := &config.Config{}
	limits := NewLimits(cfg)
	require.Equal(t, config.DefaultMaxConcurrentRequests, limits.MaxConcurrentRequests)
	require.Equal(t, config.DefaultMaxRowsPerRead, limits.MaxRowsPerRead)
	require.Equal(t, config.DefaultSampleRowLimit, limits.SampleRowLimit)
	require.Equal(t, config.DefaultOperationTimeout, limits.OperationTimeout)
}

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(config.Default())
	limits.MaxConcurrentRequests = 1
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))

	// Second acquire blocks until release; a short deadline surfaces that.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, controller.AcquireRequest(ctx))

	controller.ReleaseRequest()
	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()
}
