package xcluster

// Broker 维护一个按 key 去重的连接注册表：多个并发调用者对同一个 key 的
// GetConnection 调用共享同一次底层建立尝试。
//
// 所有方法都是并发安全的，且都不会阻塞在网络 I/O 上——返回值要么立即可用，
// 要么是一个 [Future]，调用方自行决定是否等待、等待多久。
type Broker[K comparable, T Connection] interface {
	// GetConnection 返回 key 对应连接的完成句柄。
	//
	// 多个并发调用者对同一个 key 的调用共享同一个 Future：第一个到达的
	// 调用触发 connection_factory(key)，其余调用者观察同一个 Future。
	// Broker 已关闭时立即返回 [ErrBrokerClosed]（快速失败，不等待）；
	// 其余情况下错误只出现在返回的 Future 的终态里。
	GetConnection(key K) (*Future[T], error)

	// Register 安装一个已经建立好的连接到 key，覆盖该 key 上的任何既有
	// entry。既有 entry 的连接不会被此调用关闭——这是调用方的责任。
	// conn 为 nil 时返回 [ErrNilConnection]。
	Register(key K, conn T) error

	// ConnectionCount 返回当前处于 COMPLETE 阶段的 entry 数量。
	// 在并发完成的瞬间可能短暂地少计——这是设计上允许的近似值。
	ConnectionCount() int

	// Stats 返回已建立和仍在建立中的 entry 数量快照。
	Stats() BrokerStats

	// Keys 返回当前注册表中所有 key 的快照，仅用于调试。
	Keys() []K

	// Close 标记 Broker 为已关闭（后续 GetConnection 返回 ErrBrokerClosed），
	// 然后对每个当前 entry 异步关闭其连接（或取消仍在建立中的尝试），
	// 返回一个在所有单个关闭都完成时终结的复合 Future。
	Close() *Future[struct{}]

	// CloseKey 从注册表中移除 key 对应的 entry，并异步关闭其连接
	// （若已建立）或取消它（若仍在建立中）。key 不存在时返回一个已完成的
	// Future。
	CloseKey(key K) *Future[struct{}]

	// ForEach 对每个已建立的连接调用 action；仍在建立中的 entry 会在其
	// 完成后才调用 action（链接在其 Future 上），失败/取消的 entry 不会
	// 调用 action。action 在独立 goroutine 中执行，不阻塞 ForEach 本身。
	ForEach(action func(T))

	// ForEachKey 与 ForEach 语义相同，但只作用于单个 key；ok 表示该 key
	// 在调用时刻是否存在于注册表中。
	ForEachKey(key K, action func(T)) (ok bool)
}

// BrokerStats 是 [Broker.Stats] 返回的快照。
type BrokerStats struct {
	// Established 是当前处于 COMPLETE 阶段的 entry 数。
	Established int
	// Pending 是当前处于 IN_PROGRESS 阶段的 entry 数。
	Pending int
}

// NewBroker 创建一个 Broker。factory 不能为 nil。
func NewBroker[K comparable, T Connection](factory ConnectionFactory[K, T], opts ...BrokerOption) (Broker[K, T], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	o := defaultBrokerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return newBrokerImpl(factory, o), nil
}
