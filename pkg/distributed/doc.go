// Package distributed 提供分布式协调相关的子包。
//
// 子包列表：
//   - xcluster: Redis Cluster 客户端的连接去重与拓扑刷新协调核心
//
// 设计原则：
//   - 提供统一的连接建立与拓扑刷新接口，支持多种后端实现
//   - 内置健康检查和指标收集
package distributed
