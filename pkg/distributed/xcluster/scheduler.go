package xcluster

import "time"

// ClusterClientOptions 是 Scheduler 需要的配置子集，调用方通常从更大的
// 客户端配置结构中投影出这部分字段。
type ClusterClientOptions struct {
	// RefreshPeriod 是周期性拓扑刷新的时间间隔。
	RefreshPeriod time.Duration
	// PeriodicRefreshEnabled 控制 ActivatePeriodicIfNeeded 是否真的安装
	// 周期任务。
	PeriodicRefreshEnabled bool
	// RefreshClusterView 是周期性刷新分派的总开关：即便已经 activate，
	// 每次 tick 仍然检查这个字段。
	RefreshClusterView bool
	// AdaptiveRefreshTimeout 是自适应触发的防抖窗口。
	AdaptiveRefreshTimeout time.Duration
	// AdaptiveRefreshTriggers 是启用的自适应触发原因集合。
	AdaptiveRefreshTriggers TriggerSet
	// RefreshTriggersReconnectAttempts 是 OnReconnectAttempt 触发刷新所
	// 需的最小连续失败次数。
	RefreshTriggersReconnectAttempts int
}

// ClientOptionsSupplier 返回当前有效的配置快照。每次调用都可能返回更新
// 后的值——Scheduler 在每次触发/tick 时都重新读取，不缓存（见
// SPEC_FULL.md 对 Open Question 3 的决定）。
type ClientOptionsSupplier func() ClusterClientOptions

// PartitionsSupplier 返回当前拓扑快照，用于事件载荷。
type PartitionsSupplier func() any

// ReloadFunc 执行一轮拓扑发现，必须幂等。
type ReloadFunc func() *Future[struct{}]

// ClusterEventListener 是 Scheduler 对外暴露的、由集群 I/O 路径驱动的
// 事件回调集合。所有方法都必须非阻塞。
type ClusterEventListener interface {
	// OnAskRedirection 在收到 ASK 重定向响应时调用。
	OnAskRedirection()
	// OnMovedRedirection 在收到 MOVED 重定向响应时调用。
	OnMovedRedirection()
	// OnReconnectAttempt 在某节点发生第 attempt 次连续重连尝试时调用。
	OnReconnectAttempt(attempt int)
	// OnUncoveredSlot 在发现 slot 没有任何节点覆盖时调用。
	OnUncoveredSlot(slot int)
	// OnUnknownNode 在命令响应来自一个拓扑快照里不认识的节点时调用。
	OnUnknownNode()
}

// SchedulerStats 是 [Scheduler.Stats] 返回的快照，供调试/监控读取。
type SchedulerStats struct {
	// Activated 表示周期性刷新当前是否已激活。
	Activated bool
	// RefreshInProgress 表示当前是否有一次拓扑 reload 在途。
	RefreshInProgress bool
	// LastTriggerRemainingMs 是距离自适应防抖窗口过期还剩多少毫秒，
	// 从未触发过时为 0。
	LastTriggerRemainingMs int64
}

// Scheduler 驱动周期性与自适应的拓扑刷新，保证任意时刻至多一次 reload
// 在途，并对自适应触发做防抖。
type Scheduler interface {
	ClusterEventListener

	// ActivatePeriodicIfNeeded 在配置启用周期刷新且尚未激活时安装一个
	// 固定速率任务。幂等：并发调用只产生一个已调度任务。
	ActivatePeriodicIfNeeded()

	// SuspendPeriodic 取消已安装的周期任务（如果有），把 activated 置回
	// false。对取消错误在 debug 级别吞掉。
	SuspendPeriodic()

	// IsRefreshInProgress 返回当前是否有一次 reload 在途。
	IsRefreshInProgress() bool

	// Stats 返回当前状态快照。
	Stats() SchedulerStats
}

// NewScheduler 创建一个 Scheduler。reload、partitionsSupplier、
// optionsSupplier、executor 均不能为 nil。
func NewScheduler(
	reload ReloadFunc,
	partitionsSupplier PartitionsSupplier,
	optionsSupplier ClientOptionsSupplier,
	executor ExecutorGroup,
	opts ...SchedulerOption,
) (Scheduler, error) {
	if reload == nil {
		return nil, ErrNilReloadFunc
	}
	if partitionsSupplier == nil {
		return nil, ErrNilPartitionsSupplier
	}
	if optionsSupplier == nil {
		return nil, ErrNilOptionsSupplier
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}
	o := defaultSchedulerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return newSchedulerImpl(reload, partitionsSupplier, optionsSupplier, executor, o), nil
}
