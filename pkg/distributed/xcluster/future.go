package xcluster

import (
	"context"
	"errors"
	"sync/atomic"
)

// Future 表示一次异步操作的完成句柄。
//
// Future 一旦创建即代表一次共享的异步计算：无论多少个调用者持有同一个
// Future 引用，计算只执行一次。调用方通过 [Future.Wait] 以自己的 ctx
// 等待结果——取消自己的等待（ctx 超时/取消）不会影响底层计算，也不会
// 影响其他正在等待同一个 Future 的调用方：取消 get_connection 返回的
// 句柄，不会取消共享的底层计算。
//
// Future 本身不可被外部取消；只有持有 resolver 的一方（通常是发起计算的
// 代码）可以通过 resolve 函数的 cancel 语义让它进入 CANCELED 终态。
type Future[T any] struct {
	done      chan struct{}
	result    atomic.Pointer[futureResult[T]]
	cancelled atomic.Bool
}

type futureResult[T any] struct {
	value T
	err   error
}

// NewFuture 创建一个未完成的 Future，并返回用于解决它的 resolver。
//
// resolver 只有第一次调用生效，是一次性的终态写入：后续调用返回 false，
// 不改变已发布的结果。err 满足 errors.Is(err, [context.Canceled]) 时
// （包括包装了 context.Canceled 的错误，例如 ErrConnectCanceled）Future
// 进入 CANCELED 终态，其余非 nil err 进入 FAILED 终态，nil err 进入
// COMPLETE 终态——调用方不需要自己区分，[Future.State] 会据此分类。
func NewFuture[T any]() (*Future[T], func(value T, err error) bool) {
	f := &Future[T]{done: make(chan struct{})}
	resolve := func(value T, err error) bool {
		r := &futureResult[T]{value: value, err: err}
		if !f.result.CompareAndSwap(nil, r) {
			return false
		}
		if errors.Is(err, context.Canceled) {
			f.cancelled.Store(true)
		}
		close(f.done)
		return true
	}
	return f, resolve
}

// Go 启动一个 goroutine 执行 fn，返回其结果对应的 Future。
// fn 的 panic 会被恢复并转换为该 Future 的失败结果，不会使进程崩溃
// （与 xcache.safeLoadFn 的设计决策一致：基础设施层绝不能被用户代码的
// panic 拖垮）。
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()
	go func() {
		value, err := safeCall(fn)
		resolve(value, err)
	}()
	return f
}

func safeCall[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = newPanicError(r)
		}
	}()
	return fn()
}

// Completed 返回一个已经处于 COMPLETE 终态的 Future，便于同步路径（比如
// Register 安装的已建立连接）复用同一套 Handle<T> 接口。
func Completed[T any](value T) *Future[T] {
	f, resolve := NewFuture[T]()
	resolve(value, nil)
	return f
}

// Failed 返回一个已经处于 FAILED 终态的 Future。
func Failed[T any](err error) *Future[T] {
	var zero T
	f, resolve := NewFuture[T]()
	resolve(zero, err)
	return f
}

// Done 返回一个在 Future 到达终态时关闭的 channel。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait 阻塞直到 Future 到达终态或 ctx 被取消。
// ctx 取消只影响本次调用，不影响底层计算或其他等待者。ctx 为 nil 时
// 返回 [ErrNilContext]。
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if ctx == nil {
		var zero T
		return zero, ErrNilContext
	}
	select {
	case <-f.done:
		r := f.result.Load()
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek 非阻塞地返回当前结果。ok=false 表示尚未到达终态。
func (f *Future[T]) Peek() (value T, err error, ok bool) {
	r := f.result.Load()
	if r == nil {
		var zero T
		return zero, nil, false
	}
	return r.value, r.err, true
}

// State 返回 Future 当前阶段。
func (f *Future[T]) State() Phase {
	r := f.result.Load()
	if r == nil {
		return PhaseInProgress
	}
	if f.cancelled.Load() {
		return PhaseCanceled
	}
	if r.err != nil {
		return PhaseFailed
	}
	return PhaseComplete
}

// Phase 是 [Future]（以及持有它的 Broker 注册表 entry）的单调状态机取值。
type Phase int32

const (
	// PhaseInProgress 是初始状态：建立尝试仍在进行。
	PhaseInProgress Phase = iota
	// PhaseComplete 表示成功，结果值（连接）已发布到 Future。
	PhaseComplete
	// PhaseFailed 表示 future 以非取消性错误终止。
	PhaseFailed
	// PhaseCanceled 表示 future 被取消。
	PhaseCanceled
)

// String 实现 fmt.Stringer。
func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	case PhaseCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// panicError 将 recover() 捕获的任意值包装为 error。
type panicError struct {
	value any
}

func newPanicError(v any) error {
	return &panicError{value: v}
}

func (e *panicError) Error() string {
	return "xcluster: panic recovered: " + formatPanic(e.value)
}

func formatPanic(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}
