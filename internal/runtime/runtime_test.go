package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(1, 1)
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()

	require.NoError(t, controller.AcquireWorkbook(context.Background()))
	controller.ReleaseWorkbook()
}

func TestControllerAcquireBlocksAtCapacity(t *testing.T) {
	controller := NewController(NewLimits(1, 1))

	require.NoError(t, controller.AcquireRequest(context.Background()))
	defer controller.ReleaseRequest()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, controller.AcquireRequest(ctx))
}

func TestNewLimitsDefaults(t *testing.T) {
	limits := NewLimits(0, 0)
	require.Positive(t, limits.MaxConcurrentRequests)
	require.Positive(t, limits.MaxOpenWorkbooks)
	require.Positive(t, limits.MaxCellsPerOp)
	require.Positive(t, limits.OperationTimeout)
}
