package xcluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFutureCompletedAndFailed(t *testing.T) {
	f := Completed(42)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, PhaseComplete, f.State())

	boom := errors.New("boom")
	ff := Failed[int](boom)
	_, err = ff.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, PhaseFailed, ff.State())
}

func TestFutureResolveOnlyOnce(t *testing.T) {
	f, resolve := NewFuture[int]()
	assert.True(t, resolve(1, nil))
	assert.False(t, resolve(2, nil))
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureWaitRespectsCallerContext(t *testing.T) {
	f, _ := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, PhaseInProgress, f.State())
}

func TestFutureCancelledState(t *testing.T) {
	f, resolve := NewFuture[int]()
	resolve(0, context.Canceled)
	assert.Equal(t, PhaseCanceled, f.State())
}

func TestFutureCancelledStateWrappedError(t *testing.T) {
	f, resolve := NewFuture[int]()
	resolve(0, errors.Join(ErrConnectCanceled, context.Canceled))
	assert.Equal(t, PhaseCanceled, f.State())
}

func TestFutureWaitNilContext(t *testing.T) {
	f := Completed(1)
	_, err := f.Wait(nil) //nolint:staticcheck // exercising the nil-context guard
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestGoRecoversPanic(t *testing.T) {
	f := Go(func() (int, error) {
		panic("kaboom")
	})
	_, err := f.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, PhaseFailed, f.State())
}

func TestFuturePeekBeforeCompletion(t *testing.T) {
	f, resolve := NewFuture[int]()
	_, _, ok := f.Peek()
	assert.False(t, ok)
	resolve(7, nil)
	v, err, ok := f.Peek()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "in_progress", PhaseInProgress.String())
	assert.Equal(t, "complete", PhaseComplete.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.Equal(t, "canceled", PhaseCanceled.String())
}
