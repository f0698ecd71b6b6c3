package xcluster

import "reflect"

// Connection 是 Broker 管理的受控资源，唯一要求是支持异步关闭。
type Connection interface {
	// CloseAsync 异步关闭连接，返回的 Future 在关闭完成（或失败）时终结。
	// 必须对重复调用安全（Broker 在 Close/CloseKey 路径上可能并发触发）。
	CloseAsync() *Future[struct{}]
}

// ConnectionFactory 是 Broker 的注入依赖：给定一个 key，产出一个异步句柄。
//
// 约束：对同一个 key，在一次建立周期内最多调用一次；必须可以从任意
// goroutine 安全调用。Broker 保证这一点——它在内部用 get-or-create
// 语义去重并发请求，因此工厂实现本身不需要做去重。
type ConnectionFactory[K comparable, T Connection] func(key K) *Future[T]

// isNilConnection 判断一个泛型 Connection 值是否是 nil：既覆盖 T 本身是接口
// 类型且持有 nil 的情况，也覆盖 T 是指针类型、持有 nil 指针装箱进 any 后
// 看起来"非 nil"的经典陷阱（与 xlru 对 done channel 的 IsNil 检查同一
// 思路，见 pkg/util/xlru/cache.go）。
func isNilConnection[T Connection](conn T) bool {
	v := reflect.ValueOf(conn)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
