package xcluster

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ExecutorState 描述 [ExecutorGroup] 的生命周期阶段。
type ExecutorState int32

const (
	// ExecutorRunning 表示执行器接受新的提交。
	ExecutorRunning ExecutorState = iota
	// ExecutorShuttingDown 表示执行器正在排空，新提交会被拒绝。
	ExecutorShuttingDown
	// ExecutorTerminated 表示执行器已经完全停止。
	ExecutorTerminated
)

// String 实现 fmt.Stringer。
func (s ExecutorState) String() string {
	switch s {
	case ExecutorRunning:
		return "running"
	case ExecutorShuttingDown:
		return "shutting_down"
	case ExecutorTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Healthy 报告该状态下是否允许提交新任务。
func (s ExecutorState) Healthy() bool {
	return s == ExecutorRunning
}

// CancelFunc 取消一个通过 [ExecutorGroup.ScheduleAtFixedRate] 安装的周期任务。
// 不中断正在执行的那一次调用，只阻止未来的调用。多次调用是幂等的。
type CancelFunc func()

// ExecutorGroup 是 Scheduler 的注入依赖：一个提交单次任务、
// 安排固定速率周期任务、并暴露健康状态的最小执行器抽象。
//
// 具体实现（poolExecutor）用固定 worker 池排队任务（xpool.Pool 的思路，
// 见 pkg/util/xpool/pool.go），周期任务则各自用一个独立的 ticker
// goroutine 调度（xrun.Ticker 的思路，见 pkg/lifecycle/xrun/actors.go）。
// 三态生命周期（running/shutting_down/terminated）由本包自己的 atomic
// 字段跟踪，因为 xpool.Pool 只暴露 closed bool，不暴露这种中间状态。
type ExecutorGroup interface {
	// Submit 提交一个任务异步执行。执行器不健康时返回
	// [ErrExecutorUnavailable]，不阻塞。
	Submit(task func()) error

	// ScheduleAtFixedRate 以固定周期重复提交 task，立即开始计时（第一次
	// 执行发生在 period 之后，不是立即执行）。返回的 CancelFunc 停止后续
	// 调度；正在执行的那一次不会被中断。
	ScheduleAtFixedRate(task func(), period time.Duration) (CancelFunc, error)

	// State 返回当前生命周期阶段。
	State() ExecutorState

	// Shutdown 发起优雅关闭：停止接受新提交，取消所有周期任务，等待
	// 在途任务完成或 ctx 到期。
	Shutdown(ctx context.Context) error
}

// poolExecutor 是 ExecutorGroup 的一个简单实现：一个固定大小的 goroutine
// 池消费任务 channel，外加每个周期任务一个独立的 ticker goroutine。
type poolExecutor struct {
	tasks   chan func()
	state   atomic.Int32
	wg      sync.WaitGroup
	tickers sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once
}

// NewPoolExecutor 创建一个由 workers 个 goroutine 消费、队列容量为
// queueSize 的 ExecutorGroup。
func NewPoolExecutor(workers, queueSize int) ExecutorGroup {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	e := &poolExecutor{
		tasks:   make(chan func(), queueSize),
		closeCh: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *poolExecutor) worker() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			e.runTask(task)
		case <-e.closeCh:
			return
		}
	}
}

func (e *poolExecutor) runTask(task func()) {
	defer func() {
		_ = recover()
	}()
	task()
}

func (e *poolExecutor) State() ExecutorState {
	return ExecutorState(e.state.Load())
}

func (e *poolExecutor) Submit(task func()) error {
	if task == nil {
		return nil
	}
	if !e.State().Healthy() {
		return ErrExecutorUnavailable
	}
	select {
	case e.tasks <- task:
		return nil
	case <-e.closeCh:
		return ErrExecutorUnavailable
	}
}

func (e *poolExecutor) ScheduleAtFixedRate(task func(), period time.Duration) (CancelFunc, error) {
	if task == nil {
		return func() {}, nil
	}
	if !e.State().Healthy() {
		return nil, ErrExecutorUnavailable
	}
	if period <= 0 {
		period = time.Millisecond
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	cancel := CancelFunc(func() {
		stopOnce.Do(func() { close(stop) })
	})

	e.tickers.Add(1)
	go func() {
		defer e.tickers.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = e.Submit(task)
			case <-stop:
				return
			case <-e.closeCh:
				return
			}
		}
	}()

	return cancel, nil
}

func (e *poolExecutor) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	e.once.Do(func() {
		e.state.Store(int32(ExecutorShuttingDown))
		close(e.closeCh)
	})

	done := make(chan struct{})
	go func() {
		e.tickers.Wait()
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.state.Store(int32(ExecutorTerminated))
		return nil
	case <-ctx.Done():
		e.state.Store(int32(ExecutorTerminated))
		return ctx.Err()
	}
}

var _ ExecutorGroup = (*poolExecutor)(nil)
