package xcluster

const defaultBrokerShardCount = 16

// BrokerOption 配置 [NewBroker]。
type BrokerOption func(*brokerOptions)

type brokerOptions struct {
	logger     Logger
	observer   Observer
	shardCount uint
}

func defaultBrokerOptions() *brokerOptions {
	return &brokerOptions{
		observer:   noopObserver{},
		shardCount: defaultBrokerShardCount,
	}
}

// WithBrokerLogger 设置 Broker 使用的 logger。nil 等价于不设置
// （Debug 静默丢弃，Warn/Error 回退到 log/slog）。
func WithBrokerLogger(logger Logger) BrokerOption {
	return func(o *brokerOptions) {
		o.logger = logger
	}
}

// WithBrokerObserver 设置 Broker 使用的可观测性 Observer。nil 等价于
// 不设置（使用内部的空操作 Observer）。
func WithBrokerObserver(observer Observer) BrokerOption {
	return func(o *brokerOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithBrokerShardCount 设置注册表的分片数量。更多分片减少锁争用，
// 但增加内存占用。n 必须为正整数且为 2 的幂，否则 panic。默认 16。
func WithBrokerShardCount(n uint) BrokerOption {
	if n == 0 || n&(n-1) != 0 {
		panic("xcluster: broker shard count must be a positive power of 2")
	}
	return func(o *brokerOptions) {
		o.shardCount = n
	}
}
