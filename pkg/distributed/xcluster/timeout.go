package xcluster

import "time"

// Timeout 是一个单调的、基于挂钟的过期时间戳值类型，用于自适应刷新触发
// 的防抖（同一时间窗口内的重复触发被折叠为一次）。
//
// Timeout 本身是不可变值类型：每次防抖决策都产生一个新的 Timeout 并通过
// atomic.Pointer 发布，不对已发布的值做原地修改。
type Timeout struct {
	expiresAtMs int64
}

// NewTimeout 返回一个在 d 之后过期的 Timeout。d <= 0 返回一个已经过期的
// Timeout。
func NewTimeout(d time.Duration) Timeout {
	if d <= 0 {
		return Timeout{expiresAtMs: nowMs()}
	}
	return Timeout{expiresAtMs: nowMs() + d.Milliseconds()}
}

// ExpiredTimeout 返回一个立即过期的 Timeout，便于把"从未设置过防抖窗口"
// 和"窗口已过期"统一成同一套比较逻辑。
func ExpiredTimeout() Timeout {
	return Timeout{}
}

// IsExpired 报告该 Timeout 是否已经过期（挂钟时间已经过了 expiresAtMs）。
func (t Timeout) IsExpired() bool {
	return nowMs() >= t.expiresAtMs
}

// RemainingMs 返回距离过期还剩多少毫秒；已过期返回 0（不返回负数，调用方
// 不需要再做 max(0, ...) 处理）。
func (t Timeout) RemainingMs() int64 {
	remaining := t.expiresAtMs - nowMs()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExpiresAtMs 返回底层的 Unix 毫秒时间戳，仅用于调试/日志输出。
func (t Timeout) ExpiresAtMs() int64 {
	return t.expiresAtMs
}

// nowMs 是一个可以在测试中被替换的挂钟读取点。
//
// 设计决策: 不直接散布 time.Now().UnixMilli() 调用，而是集中到一个函数
// 变量，方便测试用固定时钟驱动防抖边界场景（到期前一毫秒 vs 到期后一
// 毫秒），避免真实 sleep 造成的不稳定测试。
var nowMs = func() int64 {
	return time.Now().UnixMilli()
}
