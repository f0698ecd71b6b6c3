package xcluster

import (
	"context"
	"sync/atomic"
)

// schedulerImpl 实现 [Scheduler]。所有状态字段都是 atomic 的，没有锁——
// 与 xsemaphore/xcron 对调度状态的处理方式一致（见
// pkg/distributed/xsemaphore、pkg/distributed/xcron）。
type schedulerImpl struct {
	reload             ReloadFunc
	partitionsSupplier PartitionsSupplier
	optionsSupplier    ClientOptionsSupplier
	executor           ExecutorGroup
	eventBus           EventBus
	observer           Observer
	log                logHelper

	activated      atomic.Bool
	inProgress     atomic.Bool
	lastTrigger    atomic.Pointer[Timeout]
	periodicCancel atomic.Pointer[CancelFunc]
}

func newSchedulerImpl(
	reload ReloadFunc,
	partitionsSupplier PartitionsSupplier,
	optionsSupplier ClientOptionsSupplier,
	executor ExecutorGroup,
	o *schedulerOptions,
) *schedulerImpl {
	return &schedulerImpl{
		reload:             reload,
		partitionsSupplier: partitionsSupplier,
		optionsSupplier:    optionsSupplier,
		executor:           executor,
		eventBus:           o.eventBus,
		observer:           o.observer,
		log:                logHelper{logger: o.logger, prefix: "xcluster: "},
	}
}

func (s *schedulerImpl) currentOptions() ClusterClientOptions {
	return s.optionsSupplier()
}

// ActivatePeriodicIfNeeded 按需激活周期性拓扑刷新：只有当选项开启
// PeriodicRefreshEnabled 且尚未激活时，才安排固定速率任务。
func (s *schedulerImpl) ActivatePeriodicIfNeeded() {
	opts := s.currentOptions()
	if !opts.PeriodicRefreshEnabled {
		return
	}
	if !s.activated.CompareAndSwap(false, true) {
		return
	}
	cancel, err := s.executor.ScheduleAtFixedRate(s.onPeriodicTick, opts.RefreshPeriod)
	if err != nil {
		s.activated.Store(false)
		s.log.debug(context.Background(), "failed to activate periodic refresh", "error", err)
		return
	}
	s.periodicCancel.Store(&cancel)
}

// SuspendPeriodic 取消周期任务的调度；不中断已经在执行的那一次 reload。
func (s *schedulerImpl) SuspendPeriodic() {
	if !s.activated.CompareAndSwap(true, false) {
		return
	}
	if cancelPtr := s.periodicCancel.Swap(nil); cancelPtr != nil {
		(*cancelPtr)()
	}
}

func (s *schedulerImpl) onPeriodicTick() {
	opts := s.currentOptions()
	if !opts.RefreshClusterView {
		return
	}
	s.scheduleRefresh()
}

func (s *schedulerImpl) IsRefreshInProgress() bool {
	return s.inProgress.Load()
}

func (s *schedulerImpl) Stats() SchedulerStats {
	var remaining int64
	if last := s.lastTrigger.Load(); last != nil {
		remaining = last.RemainingMs()
	}
	return SchedulerStats{
		Activated:              s.activated.Load(),
		RefreshInProgress:       s.inProgress.Load(),
		LastTriggerRemainingMs: remaining,
	}
}

// indicateRefresh 是自适应刷新的防抖算法：只有赢得 CAS 的调用者才会真正
// 调度刷新，其余调用者的触发被折叠进这次赢家的防抖窗口。
func (s *schedulerImpl) indicateRefresh() bool {
	last := s.lastTrigger.Load()
	if last != nil && !last.IsExpired() {
		return false
	}
	next := NewTimeout(s.currentOptions().AdaptiveRefreshTimeout)
	if !s.lastTrigger.CompareAndSwap(last, &next) {
		return false
	}
	return s.scheduleRefresh()
}

// scheduleRefresh 检查执行器健康状态并提交刷新任务。执行器不健康时静默
// 返回 false（debug 日志）。
func (s *schedulerImpl) scheduleRefresh() bool {
	if !s.executor.State().Healthy() {
		s.log.debug(context.Background(), "executor unavailable, suppressing refresh")
		return false
	}
	if err := s.executor.Submit(s.runRefreshTask); err != nil {
		s.log.debug(context.Background(), "refresh submission rejected", "error", err)
		return false
	}
	return true
}

// runRefreshTask 是单飞的刷新任务本体：CAS false→true 守卫，同步 panic
// 被捕获并转换为失败结果，完成回调无论成功失败都重置 in_progress。
func (s *schedulerImpl) runRefreshTask() {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.log.debug(context.Background(), "refresh already in progress, skipping")
		return
	}
	ctx, span := s.observer.Start(context.Background(), "xcluster.scheduler.reload")
	future := s.safeReload()
	go func() {
		_, err := future.Wait(ctx)
		span.End(err)
		if err != nil {
			s.log.warn(context.Background(), "topology reload failed", "error", err)
		}
		s.inProgress.Store(false)
	}()
}

func (s *schedulerImpl) safeReload() (f *Future[struct{}]) {
	defer func() {
		if r := recover(); r != nil {
			f = Failed[struct{}](newPanicError(r))
		}
	}()
	return s.reload()
}

func (s *schedulerImpl) fireTrigger(trigger RefreshTrigger) bool {
	if !s.currentOptions().AdaptiveRefreshTriggers.Has(trigger) {
		return false
	}
	return s.indicateRefresh()
}

func (s *schedulerImpl) publishAdaptive(trigger RefreshTrigger) {
	s.eventBus.Publish(AdaptiveRefreshTriggeredEvent{
		Trigger:    trigger,
		Partitions: s.partitionsSupplier(),
		RunRefresh: s.scheduleRefresh,
	})
}

func (s *schedulerImpl) OnMovedRedirection() {
	if s.fireTrigger(TriggerMovedRedirect) {
		s.publishAdaptive(TriggerMovedRedirect)
	}
}

func (s *schedulerImpl) OnAskRedirection() {
	if s.fireTrigger(TriggerAskRedirect) {
		s.publishAdaptive(TriggerAskRedirect)
	}
}

func (s *schedulerImpl) OnUnknownNode() {
	if s.fireTrigger(TriggerUnknownNode) {
		s.publishAdaptive(TriggerUnknownNode)
	}
}

func (s *schedulerImpl) OnReconnectAttempt(attempt int) {
	opts := s.currentOptions()
	if !opts.AdaptiveRefreshTriggers.Has(TriggerPersistentReconnects) {
		return
	}
	if attempt < opts.RefreshTriggersReconnectAttempts {
		return
	}
	if s.indicateRefresh() {
		s.eventBus.Publish(PersistentReconnectsAdaptiveRefreshTriggeredEvent{
			AdaptiveRefreshTriggeredEvent: AdaptiveRefreshTriggeredEvent{
				Trigger:    TriggerPersistentReconnects,
				Partitions: s.partitionsSupplier(),
				RunRefresh: s.scheduleRefresh,
			},
			Attempt: attempt,
		})
	}
}

func (s *schedulerImpl) OnUncoveredSlot(slot int) {
	if !s.fireTrigger(TriggerUncoveredSlot) {
		return
	}
	s.eventBus.Publish(UncoveredSlotAdaptiveRefreshTriggeredEvent{
		AdaptiveRefreshTriggeredEvent: AdaptiveRefreshTriggeredEvent{
			Trigger:    TriggerUncoveredSlot,
			Partitions: s.partitionsSupplier(),
			RunRefresh: s.scheduleRefresh,
		},
		Slot: slot,
	})
}

var _ Scheduler = (*schedulerImpl)(nil)
