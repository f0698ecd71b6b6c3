package redisdemo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrReloadLockFailed wraps a redsync failure that is not simple lock
// contention (network error, quorum not reached, ...).
var ErrReloadLockFailed = errors.New("redisdemo: reload lock acquisition failed")

// ReloadLock 是 NewReloadTopology 需要的最小分布式锁接口：尝试获取一把
// 跨进程的互斥锁，拿不到时返回 (nil, nil) 而不是错误，因为 reload 是
// 幂等的，跳过一轮等同于被其他实例代劳。
type ReloadLock interface {
	TryLock(ctx context.Context, name string, opts ...LockOption) (ReloadLockHandle, error)
}

// ReloadLockHandle 是 TryLock 成功后持有的句柄，只需要能释放。
type ReloadLockHandle interface {
	Unlock(ctx context.Context) error
}

// LockOption 配置一次 TryLock 调用，目前只有 WithExpiry。
type LockOption func(*lockOptions)

type lockOptions struct {
	expiry time.Duration
}

// WithExpiry 设置锁的租约时长；不设置时使用 redsync 的默认值。
func WithExpiry(expiry time.Duration) LockOption {
	return func(o *lockOptions) {
		o.expiry = expiry
	}
}

// redsyncLock 是 ReloadLock 在 Redis 上的实现，直接基于
// go-redsync/redsync/v4 构建，按 NewReloadTopology 实际需要的形状裁剪：
// 只保留 TryLock/Unlock，不提供 Lock（阻塞式）、Extend（续期）或 etcd 后端。
type redsyncLock struct {
	rs *redsync.Redsync
}

// NewRedsyncLock 用一个或多个 Redis 客户端构造 ReloadLock。
// 单节点为标准 Redis 锁；多节点使用 Redlock 算法（需过半成功）。
func NewRedsyncLock(clients ...redis.UniversalClient) ReloadLock {
	pools := make([]rsredis.Pool, len(clients))
	for i, client := range clients {
		pools[i] = goredis.NewPool(client)
	}
	return &redsyncLock{rs: redsync.New(pools...)}
}

// TryLock 非阻塞式获取锁。拿不到锁时返回 (nil, nil)；其余错误一律包装为
// ErrReloadLockFailed，保留原始错误链。
func (l *redsyncLock) TryLock(ctx context.Context, name string, opts ...LockOption) (ReloadLockHandle, error) {
	options := lockOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	rsOpts := make([]redsync.Option, 0, 1)
	if options.expiry > 0 {
		rsOpts = append(rsOpts, redsync.WithExpiry(options.expiry))
	}
	mutex := l.rs.NewMutex(name, rsOpts...)

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) {
			return nil, nil
		}
		if errors.Is(err, redsync.ErrFailed) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrReloadLockFailed, err)
	}

	return redsyncHandle{mutex: mutex}, nil
}

type redsyncHandle struct {
	mutex *redsync.Mutex
}

// Unlock releases the lock.
func (h redsyncHandle) Unlock(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReloadLockFailed, err)
	}
	if !ok {
		return ErrReloadLockFailed
	}
	return nil
}
