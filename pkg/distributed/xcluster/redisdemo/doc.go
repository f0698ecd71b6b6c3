// Package redisdemo 演示如何用 redis/go-redis/v9 的集群客户端和
// go-redsync/redsync/v4 给 xcluster.Broker/xcluster.Scheduler 组装真实的
// connection_factory 与 reload_topology 实现。
//
// 这不是 xcluster 核心的一部分：RESP 编解码、命令分发、同步外观层都不在
// 这里，此包只是一个可运行的接线示例，展示注入式依赖在真实 Redis
// Cluster 部署下的样子。
package redisdemo
