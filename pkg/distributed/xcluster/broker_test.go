package xcluster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int
	closed atomic.Bool
}

func (c *fakeConn) CloseAsync() *Future[struct{}] {
	c.closed.Store(true)
	return Completed(struct{}{})
}

// countingFactory 记录每个 key 被调用的次数，每次调用异步返回 value 或 err。
func countingFactory(calls *atomic.Int64, delay time.Duration, build func(callIndex int64) (*fakeConn, error)) ConnectionFactory[string, *fakeConn] {
	return func(key string) *Future[*fakeConn] {
		idx := calls.Add(1)
		return Go(func() (*fakeConn, error) {
			if delay > 0 {
				time.Sleep(delay)
			}
			return build(idx)
		})
	}
}

func TestBrokerDeduplicatesConcurrentConnect(t *testing.T) {
	var calls atomic.Int64
	factory := countingFactory(&calls, 20*time.Millisecond, func(int64) (*fakeConn, error) {
		return &fakeConn{id: 1}, nil
	})
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)
	defer b.Close()

	const n = 100
	var wg sync.WaitGroup
	results := make([]*fakeConn, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, ferr := b.GetConnection("a")
			if ferr != nil {
				errs[i] = ferr
				return
			}
			results[i], errs[i] = f.Wait(context.Background())
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
}

func TestBrokerFailureThenRetry(t *testing.T) {
	var calls atomic.Int64
	factory := countingFactory(&calls, 0, func(idx int64) (*fakeConn, error) {
		if idx == 1 {
			return nil, errors.New("dial refused")
		}
		return &fakeConn{id: int(idx)}, nil
	})
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)
	defer b.Close()

	f1, err := b.GetConnection("b")
	require.NoError(t, err)
	_, err = f1.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)

	assert.Eventually(t, func() bool {
		return len(b.Keys()) == 0
	}, time.Second, time.Millisecond)

	f2, err := b.GetConnection("b")
	require.NoError(t, err)
	conn, err := f2.Wait(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.EqualValues(t, 2, calls.Load())
}

func TestBrokerCloseDuringConnectCancels(t *testing.T) {
	var calls atomic.Int64
	gate := make(chan struct{})
	factory := func(key string) *Future[*fakeConn] {
		calls.Add(1)
		return Go(func() (*fakeConn, error) {
			<-gate
			return &fakeConn{id: 1}, nil
		})
	}
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)

	f, err := b.GetConnection("c")
	require.NoError(t, err)

	closeFuture := b.Close()
	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrConnectCanceled)

	close(gate)
	_, err = closeFuture.Wait(context.Background())
	assert.NoError(t, err)

	_, err = b.GetConnection("d")
	assert.ErrorIs(t, err, ErrBrokerClosed)
}

func TestBrokerRegisterOverwrites(t *testing.T) {
	var calls atomic.Int64
	factory := countingFactory(&calls, 0, func(int64) (*fakeConn, error) {
		return &fakeConn{id: 99}, nil
	})
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Register("e", &fakeConn{id: 2}))
	installed := &fakeConn{id: 1}
	require.NoError(t, b.Register("e", installed))

	f, err := b.GetConnection("e")
	require.NoError(t, err)
	conn, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, installed, conn)
	assert.Zero(t, calls.Load())

	stats := b.Stats()
	assert.Equal(t, 1, stats.Established)
}

func TestBrokerRegisterRejectsNil(t *testing.T) {
	b, err := NewBroker[string, *fakeConn](func(string) *Future[*fakeConn] {
		return Completed[*fakeConn](nil)
	})
	require.NoError(t, err)
	defer b.Close()

	err = b.Register("e", nil)
	assert.ErrorIs(t, err, ErrNilConnection)
}

func TestBrokerCloseKeyClosesEstablished(t *testing.T) {
	var calls atomic.Int64
	factory := countingFactory(&calls, 0, func(int64) (*fakeConn, error) {
		return &fakeConn{id: 1}, nil
	})
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)
	defer b.Close()

	f, err := b.GetConnection("f")
	require.NoError(t, err)
	conn, err := f.Wait(context.Background())
	require.NoError(t, err)

	_, err = b.CloseKey("f").Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, conn.closed.Load())

	ok := b.ForEachKey("f", func(*fakeConn) {})
	assert.False(t, ok)
}

func TestBrokerForEachDefersUntilComplete(t *testing.T) {
	var calls atomic.Int64
	gate := make(chan struct{})
	factory := func(key string) *Future[*fakeConn] {
		calls.Add(1)
		return Go(func() (*fakeConn, error) {
			<-gate
			return &fakeConn{id: 1}, nil
		})
	}
	b, err := NewBroker[string, *fakeConn](factory)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.GetConnection("g")
	require.NoError(t, err)

	var seen atomic.Bool
	done := make(chan struct{})
	ok := b.ForEachKey("g", func(*fakeConn) {
		seen.Store(true)
		close(done)
	})
	require.True(t, ok)
	assert.False(t, seen.Load())

	close(gate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ForEach action never ran")
	}
	assert.True(t, seen.Load())
}

func TestNewBrokerRejectsNilFactory(t *testing.T) {
	_, err := NewBroker[string, *fakeConn](nil)
	assert.ErrorIs(t, err, ErrNilFactory)
}

func TestWithBrokerShardCountPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		WithBrokerShardCount(3)
	})
}
