package xcluster_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xkit/pkg/distributed/xcluster"
)

type memConn struct{ addr string }

func (c memConn) CloseAsync() *xcluster.Future[struct{}] {
	return xcluster.Completed(struct{}{})
}

// Example_broker 演示通过 Broker 按 key 获取连接并等待其建立完成。
func Example_broker() {
	factory := func(key string) *xcluster.Future[memConn] {
		return xcluster.Completed(memConn{addr: key})
	}

	broker, err := xcluster.NewBroker[string, memConn](factory)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer broker.Close()

	f, err := broker.GetConnection("10.0.0.1:6379")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	conn, err := f.Wait(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(conn.addr)
	fmt.Println(broker.ConnectionCount())

	// Output:
	// 10.0.0.1:6379
	// 1
}
