package xcluster

// SchedulerOption 配置 [NewScheduler]。
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	logger   Logger
	observer Observer
	eventBus EventBus
}

func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		observer: noopObserver{},
		eventBus: noopEventBus{},
	}
}

// WithSchedulerLogger 设置 Scheduler 使用的 logger。
func WithSchedulerLogger(logger Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		o.logger = logger
	}
}

// WithSchedulerObserver 设置 Scheduler 使用的可观测性 Observer。
func WithSchedulerObserver(observer Observer) SchedulerOption {
	return func(o *schedulerOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithEventBus 设置自适应刷新事件的发布目标。nil 等价于不设置（事件被
// 静默丢弃）。
func WithEventBus(bus EventBus) SchedulerOption {
	return func(o *schedulerOptions) {
		if bus != nil {
			o.eventBus = bus
		}
	}
}
