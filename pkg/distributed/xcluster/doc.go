// Package xcluster 提供 Redis Cluster 客户端的连接去重与拓扑刷新协调核心。
//
// # 核心组件
//
//   - [Broker]: 按 key 去重的连接建立与生命周期管理，多个并发调用者共享同一次
//     连接建立尝试。
//   - [Scheduler]: 周期性 + 自适应（事件驱动）的拓扑刷新调度，带防抖和单飞语义，
//     保证任意时刻至多一次拓扑 reload 在途。
//   - [Timeout]: 用于自适应触发防抖的单调过期时间戳值类型。
//
// # 与 xdlock/xsemaphore/xcron 的关系
//
// xcluster 是 pkg/distributed 下的同级包，遵循相同的设计约定：
//   - 函数式 Option 配置（[BrokerOption]、[SchedulerOption]）
//   - 包内最小化 Logger/Observer/Span 接口，兼容 xlog.Logger / xmetrics.Observer
//     但不直接依赖它们（与 xcron 的 types.go 一致），保持依赖最小化
//   - errors.New 哨兵错误 + errors.Is 匹配
//
// xcluster 本身不实现 RESP 编解码、命令分发、同步外观层、哨兵/发布订阅变体、
// 配置解析或日志后端——这些是外部协作者，只通过接口消费：一个连接工厂
// （key → 异步句柄）、一个 partitions 快照访问器、一个执行器组和一个事件总线。
//
// # 并发模型
//
// Broker 的去重注册表使用分片 mutex + map（与 xkeylock 相同的分片技术），
// 每个 entry 的阶段（IN_PROGRESS/COMPLETE/FAILED/CANCELED）是一次性写入的
// 原子状态机。Scheduler 的 activated/in_progress/last_trigger 字段全部通过
// atomic 操作管理，不使用锁。
package xcluster
