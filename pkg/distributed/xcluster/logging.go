package xcluster

import (
	"context"
	"log/slog"
)

// Logger 是包内最小化日志接口，结构上兼容 xlog.Logger（见
// pkg/observability/xlog），但 xcluster 不直接依赖该包，保持依赖最小化——
// 与 xcron.Logger 相同的设计取舍（见 pkg/distributed/xcron/types.go）。
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

// Observer 是包内最小化可观测性接口，兼容 xmetrics.Observer。
type Observer interface {
	Start(ctx context.Context, spanName string) (context.Context, Span)
}

// Span 兼容 xmetrics.Span。
type Span interface {
	End(err error)
}

// noopObserver 是默认的空实现。
type noopObserver struct{}

func (noopObserver) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// logHelper 集中 nil-safe 的日志调用，供 Broker 和 Scheduler 共用。
//
// 设计决策: Debug 无 logger 时静默丢弃（不回退到 slog），因为这里的 debug
// 日志（防抖跳过、cancel 被吞等）在高频重连/重定向场景下量很大，输出到
// 默认 logger 会造成噪音；Warn/Error 回退到 slog 是因为告警信息不应被
// 静默丢弃。与 xcron.jobWrapper 的日志辅助方法一致（见
// pkg/distributed/xcron/wrapper.go）。
type logHelper struct {
	logger Logger
	prefix string
}

func (h logHelper) debug(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(ctx, msg, args...)
	}
}

func (h logHelper) info(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(ctx, msg, args...)
	} else {
		slog.InfoContext(ctx, h.prefix+msg, args...)
	}
}

func (h logHelper) warn(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(ctx, msg, args...)
	} else {
		slog.WarnContext(ctx, h.prefix+msg, args...)
	}
}

func (h logHelper) error(ctx context.Context, msg string, args ...any) {
	if h.logger != nil {
		h.logger.Error(ctx, msg, args...)
	} else {
		slog.ErrorContext(ctx, h.prefix+msg, args...)
	}
}
