package redisdemo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xkit/pkg/distributed/xcluster"
)

const defaultPingTimeout = 5 * time.Second

// NodeConn 适配一个 *redis.Client（单个集群节点的连接）到 xcluster.Connection。
type NodeConn struct {
	*redis.Client
}

// CloseAsync 异步关闭底层连接。go-redis 的 Close 本身是同步的，这里用
// xcluster.Go 把它包装成一个 Future，遵循 xcache.safeLoadFn 的 panic 安全
// 约定（Close 本身极少 panic，但保持路径一致）。
func (c NodeConn) CloseAsync() *xcluster.Future[struct{}] {
	return xcluster.Go(func() (struct{}, error) {
		return struct{}{}, c.Client.Close()
	})
}

// NewNodeConnectionFactory 返回一个 xcluster.ConnectionFactory，key 是
// "host:port" 形式的节点地址，每次调用为该地址建立一条独立的
// *redis.Client 连接。
//
// Broker 保证同一个 key 在一次建立周期内只调用一次，这里的工厂函数因此
// 不需要自己做去重。
func NewNodeConnectionFactory(opts func(addr string) *redis.Options) xcluster.ConnectionFactory[string, NodeConn] {
	return func(addr string) *xcluster.Future[NodeConn] {
		return xcluster.Go(func() (NodeConn, error) {
			o := opts(addr)
			o.Addr = addr
			client := redis.NewClient(o)
			timeout := client.Options().DialTimeout
			if timeout <= 0 {
				timeout = defaultPingTimeout
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return NodeConn{}, err
			}
			return NodeConn{Client: client}, nil
		})
	}
}
