package xcluster

import "errors"

// 预定义错误。
// 使用 errors.Is 进行错误匹配，例如：
//
//	if errors.Is(err, xcluster.ErrBrokerClosed) {
//	    // broker 已关闭
//	}
var (
	// ErrBrokerClosed 表示 Broker 已关闭。
	// Close() 之后调用 GetConnection 返回此错误。
	ErrBrokerClosed = errors.New("xcluster: broker is closed")

	// ErrConnectFailed 表示 connection_factory 的建立尝试失败。
	// 通过 errors.Join 保留工厂返回的原始错误。
	ErrConnectFailed = errors.New("xcluster: connection establishment failed")

	// ErrConnectCanceled 表示建立过程因 Broker 关闭或 CloseKey 而被取消。
	// 与 ErrConnectFailed 区分：这不是工厂报告的故障，而是生命周期收回。
	ErrConnectCanceled = errors.New("xcluster: connection establishment canceled")

	// ErrNilContext 表示传入了 nil context。
	ErrNilContext = errors.New("xcluster: context must not be nil")

	// ErrNilFactory 表示 connection_factory 为 nil。
	ErrNilFactory = errors.New("xcluster: connection factory must not be nil")

	// ErrNilConnection 表示 Register 被传入 nil 连接。
	ErrNilConnection = errors.New("xcluster: connection must not be nil")

	// ErrNilReloadFunc 表示 reload_topology 回调为 nil。
	ErrNilReloadFunc = errors.New("xcluster: reload function must not be nil")

	// ErrNilPartitionsSupplier 表示 partitions_supplier 为 nil。
	ErrNilPartitionsSupplier = errors.New("xcluster: partitions supplier must not be nil")

	// ErrNilOptionsSupplier 表示 client_options_supplier 为 nil。
	ErrNilOptionsSupplier = errors.New("xcluster: client options supplier must not be nil")

	// ErrNilExecutor 表示 executor_group 为 nil。
	ErrNilExecutor = errors.New("xcluster: executor group must not be nil")

	// ErrExecutorUnavailable 表示执行器正在关闭或已关闭，提交被静默抑制。
	// 调度器遇到此错误只记录 debug 日志，不向调用方传播（最佳努力语义）。
	ErrExecutorUnavailable = errors.New("xcluster: executor unavailable")

	// ErrAlreadyTerminal 表示 Future 已经处于终态，重复的 complete/cancel 调用无效。
	// 仅用于内部断言和测试；正常路径下调用方不会看到此错误。
	ErrAlreadyTerminal = errors.New("xcluster: future already in a terminal state")
)
