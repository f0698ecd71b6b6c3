package redisdemo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xkit/pkg/distributed/xcluster"
)

// PartitionsSnapshot is the minimal view of the cluster topology this demo
// refreshes: a slot-range-to-node-address map read from CLUSTER SHARDS.
type PartitionsSnapshot struct {
	// Shards maps the first slot of each range to its serving node address.
	Shards map[int64]string
}

// NewReloadTopology 构造一个 xcluster.ReloadFunc，通过 CLUSTER SHARDS 拉取
// 拓扑并发布到 publish。若 lock 非 nil，reload 会先尝试获取一把跨进程
// 分布式锁（见 lock.go 的 ReloadLock），避免多个客户端实例同时对同一个
// 集群做冗余的 CLUSTER SHARDS 查询；拿不到锁时直接跳过本轮，不算失败——
// reload 本身是幂等的，跳过一轮等同于被其他实例代劳。
func NewReloadTopology(client *redis.ClusterClient, lock ReloadLock, publish func(PartitionsSnapshot)) xcluster.ReloadFunc {
	return func() *xcluster.Future[struct{}] {
		return xcluster.Go(func() (struct{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if lock != nil {
				handle, err := lock.TryLock(ctx, "xcluster:topology-reload", WithExpiry(10*time.Second))
				if err != nil {
					return struct{}{}, err
				}
				if handle == nil {
					return struct{}{}, nil
				}
				defer handle.Unlock(ctx)
			}

			shards, err := client.ClusterShards(ctx).Result()
			if err != nil {
				return struct{}{}, err
			}

			snapshot := PartitionsSnapshot{Shards: make(map[int64]string, len(shards))}
			for _, shard := range shards {
				addr := primaryAddr(shard)
				for _, rng := range shard.Slots {
					snapshot.Shards[rng.Start] = addr
				}
			}
			publish(snapshot)
			return struct{}{}, nil
		})
	}
}

func primaryAddr(shard redis.ClusterShard) string {
	for _, node := range shard.Nodes {
		if node.Role == "master" {
			return nodeAddr(node)
		}
	}
	if len(shard.Nodes) > 0 {
		return nodeAddr(shard.Nodes[0])
	}
	return ""
}

func nodeAddr(node redis.ClusterNode) string {
	return fmt.Sprintf("%s:%d", node.Endpoint, node.Port)
}
