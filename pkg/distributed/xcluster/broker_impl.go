package xcluster

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"sync"
)

// hashSeed 是分片哈希的种子，进程级别唯一。
// 分片选择不需要跨进程确定性，maphash 足以胜任（与 xkeylock 一致）。
var hashSeed = maphash.MakeSeed()

// shard[K, T] 持有一部分 key 的注册表分片，独立 mutex 保护。
//
// 设计决策: xkeylock 对 shardPayload 做了 cache line padding 以消除伪共享，
// 但该技巧依赖 unsafe.Sizeof 作用于具体类型；在泛型 shard[K, T] 上这不是
// 一个稳定可移植的写法，因此这里省略 padding，用分片数量（默认 16，见
// [WithBrokerShardCount]）来控制争用。
type shard[K comparable, T Connection] struct {
	mu      sync.Mutex
	entries map[K]*pendingEntry[T]
}

// pendingEntry 是注册表中一个 key 的状态。future 是对外暴露给调用方的
// Future，resolve 由 Broker 持有——只有 Broker 自己能让它终结（成功、
// 失败，或在 CloseKey/Close 时取消），这是 Open Question 1 的解决方案：
// resolve/cancel 在 get-or-create 的同一个临界区里恰好安装一次，不依赖
// 任何额外的 CAS 守卫。
type pendingEntry[T Connection] struct {
	future     *Future[T]
	resolve    func(value T, err error) bool
	cancelOnce sync.Once
	cancelCh   chan struct{}
}

func newPendingEntry[T Connection]() *pendingEntry[T] {
	future, resolve := NewFuture[T]()
	return &pendingEntry[T]{
		future:   future,
		resolve:  resolve,
		cancelCh: make(chan struct{}),
	}
}

// cancel 触发该 entry 的取消；对同一个 entry 多次调用是安全的，只有第一次
// 生效。
func (e *pendingEntry[T]) cancel() {
	e.cancelOnce.Do(func() {
		close(e.cancelCh)
	})
}

// brokerImpl 是 Broker 的分片注册表实现，直接对应 xkeylock 的 shard +
// get-or-create 设计（见 pkg/util/xkeylock/keylock_impl.go），但条目的
// payload 不是互斥信号量，而是一个终态唯一写入的 [Future]。
type brokerImpl[K comparable, T Connection] struct {
	shards  []shard[K, T]
	mask    uint64
	factory ConnectionFactory[K, T]
	opts    *brokerOptions
	log     logHelper
	isDone  boolFlag
}

// boolFlag 是一个极简的一次性布尔标志，避免在这里再引入 atomic.Bool 的
// 导入別名噪音。
type boolFlag struct {
	mu  sync.Mutex
	set bool
}

func (f *boolFlag) trySet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set {
		return false
	}
	f.set = true
	return true
}

func (f *boolFlag) isSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

func newBrokerImpl[K comparable, T Connection](factory ConnectionFactory[K, T], opts *brokerOptions) *brokerImpl[K, T] {
	shardCount := opts.shardCount
	shards := make([]shard[K, T], shardCount)
	for i := range shards {
		shards[i].entries = make(map[K]*pendingEntry[T])
	}
	return &brokerImpl[K, T]{
		shards:  shards,
		mask:    uint64(shardCount) - 1,
		factory: factory,
		opts:    opts,
		log:     logHelper{logger: opts.logger, prefix: "xcluster: "},
	}
}

func (b *brokerImpl[K, T]) getShard(key K) *shard[K, T] {
	h := maphash.Comparable(hashSeed, key)
	return &b.shards[h&b.mask]
}

func (b *brokerImpl[K, T]) GetConnection(key K) (*Future[T], error) {
	if b.isDone.isSet() {
		return nil, ErrBrokerClosed
	}
	s := b.getShard(key)
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return e.future, nil
	}
	if b.isDone.isSet() {
		s.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	e := newPendingEntry[T]()
	s.entries[key] = e
	s.mu.Unlock()

	b.startEstablish(key, e)
	return e.future, nil
}

// startEstablish 发起底层连接建立，并把结果（或取消）单播到 e.future。
// 这段闭包是该 entry 唯一一次附加完成回调的地方——对应 Open Question 1。
func (b *brokerImpl[K, T]) startEstablish(key K, e *pendingEntry[T]) {
	underlying := b.factory(key)
	_, span := b.opts.observer.Start(context.Background(), "xcluster.broker.establish")
	go func() {
		select {
		case <-underlying.Done():
			value, err, _ := underlying.Peek()
			span.End(err)
			b.settle(key, e, value, err)
		case <-e.cancelCh:
			span.End(context.Canceled)
			var zero T
			b.settle(key, e, zero, context.Canceled)
		}
	}()
}

// settle 终结 entry 的 future，并根据终态决定该 entry 是否继续留在注册表
// 中：COMPLETE 和 CANCELED 的 entry 留在注册表里，直到 CloseKey/Close 显式
// 移除；FAILED 的 entry 被移除，好让下一次 GetConnection 触发一次全新的建立
// 尝试（对应 Open Question 2：终态分支直接看 (cancelled, err) 元组，不依赖
// CAS 级联顺序）。
func (b *brokerImpl[K, T]) settle(key K, e *pendingEntry[T], value T, err error) {
	cancelled := errors.Is(err, context.Canceled)
	var resolveErr error
	switch {
	case cancelled:
		// 包装 context.Canceled 而不是原样传递，好让调用方通过
		// errors.Is(err, ErrConnectCanceled) 识别这是生命周期收回而不是
		// 工厂故障。Future.State 改用 errors.Is 解析错误链来标记
		// CANCELED 终态，因此包装不影响 State() 的分类。
		resolveErr = fmt.Errorf("%w: %w", ErrConnectCanceled, context.Canceled)
	case err != nil:
		resolveErr = errors.Join(ErrConnectFailed, err)
	default:
		resolveErr = nil
	}
	if !e.resolve(value, resolveErr) {
		// 不应该发生：startEstablish 的 select 对每个 entry 只会触发一次
		// settle。出现时说明终态被写入了两次，记下来但不向调用方传播——
		// 已经生效的第一次结果才是 Future 对外可见的真相。
		b.log.error(context.Background(), "entry resolved twice", "error", ErrAlreadyTerminal)
	}

	if cancelled {
		b.log.debug(context.Background(), "connection establishment canceled", "error", err)
		return
	}
	if resolveErr != nil {
		s := b.getShard(key)
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		b.log.warn(context.Background(), "connection establishment failed", "error", resolveErr)
	}
}

func (b *brokerImpl[K, T]) Register(key K, conn T) error {
	if isNilConnection(conn) {
		return ErrNilConnection
	}
	if b.isDone.isSet() {
		return ErrBrokerClosed
	}
	e := &pendingEntry[T]{future: Completed(conn)}
	s := b.getShard(key)
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (b *brokerImpl[K, T]) ConnectionCount() int {
	count := 0
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		for _, e := range s.entries {
			if e.future.State() == PhaseComplete {
				count++
			}
		}
		s.mu.Unlock()
	}
	return count
}

func (b *brokerImpl[K, T]) Stats() BrokerStats {
	var stats BrokerStats
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		for _, e := range s.entries {
			switch e.future.State() {
			case PhaseComplete:
				stats.Established++
			case PhaseInProgress:
				stats.Pending++
			}
		}
		s.mu.Unlock()
	}
	return stats
}

func (b *brokerImpl[K, T]) Keys() []K {
	keys := make([]K, 0)
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

func (b *brokerImpl[K, T]) Close() *Future[struct{}] {
	if !b.isDone.trySet() {
		return Completed(struct{}{})
	}

	var closeFutures []*Future[struct{}]
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		for key, e := range s.entries {
			delete(s.entries, key)
			closeFutures = append(closeFutures, b.closeEntry(e))
		}
		s.mu.Unlock()
	}
	return joinCloseFutures(closeFutures)
}

func (b *brokerImpl[K, T]) CloseKey(key K) *Future[struct{}] {
	s := b.getShard(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return Completed(struct{}{})
	}
	return b.closeEntry(e)
}

// closeEntry 关闭或取消一个已从注册表摘除的 entry，返回其关闭完成的 Future。
func (b *brokerImpl[K, T]) closeEntry(e *pendingEntry[T]) *Future[struct{}] {
	if e.future.State() == PhaseInProgress {
		e.cancel()
		return Go(func() (struct{}, error) {
			e.future.Wait(context.Background())
			return struct{}{}, nil
		})
	}
	conn, err, ok := e.future.Peek()
	if !ok || err != nil {
		return Completed(struct{}{})
	}
	return conn.CloseAsync()
}

func (b *brokerImpl[K, T]) ForEach(action func(T)) {
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		entries := make([]*pendingEntry[T], 0, len(s.entries))
		for _, e := range s.entries {
			entries = append(entries, e)
		}
		s.mu.Unlock()
		for _, e := range entries {
			go runIfComplete(e, action)
		}
	}
}

func (b *brokerImpl[K, T]) ForEachKey(key K, action func(T)) bool {
	s := b.getShard(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	go runIfComplete(e, action)
	return true
}

func runIfComplete[T Connection](e *pendingEntry[T], action func(T)) {
	value, err := e.future.Wait(context.Background())
	if err == nil {
		action(value)
	}
}

// joinCloseFutures 把多个关闭 Future 合并为一个：全部终结后该 Future 才终结。
func joinCloseFutures(futures []*Future[struct{}]) *Future[struct{}] {
	if len(futures) == 0 {
		return Completed(struct{}{})
	}
	return Go(func() (struct{}, error) {
		for _, f := range futures {
			f.Wait(context.Background())
		}
		return struct{}{}, nil
	})
}

var _ Broker[string, Connection] = (*brokerImpl[string, Connection])(nil)
