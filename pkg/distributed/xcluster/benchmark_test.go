package xcluster

import (
	"context"
	"testing"
)

// BenchmarkBrokerGetConnection_Cached 测试已建立连接的重复 GetConnection
// 调用开销（纯注册表查找路径，不触发工厂）。
func BenchmarkBrokerGetConnection_Cached(b *testing.B) {
	factory := func(key string) *Future[*fakeConn] {
		return Completed(&fakeConn{id: 1})
	}
	broker, err := NewBroker[string, *fakeConn](factory)
	if err != nil {
		b.Fatal(err)
	}
	defer broker.Close()

	first, err := broker.GetConnection("bench")
	if err != nil {
		b.Fatal(err)
	}
	if _, err := first.Wait(context.Background()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f, err := broker.GetConnection("bench")
		if err != nil {
			b.Fatal(err)
		}
		if _, _, ok := f.Peek(); !ok {
			b.Fatal("expected completed future")
		}
	}
}

// BenchmarkBrokerGetConnection_Parallel 测试并发去重路径下的吞吐。
func BenchmarkBrokerGetConnection_Parallel(b *testing.B) {
	factory := func(key string) *Future[*fakeConn] {
		return Completed(&fakeConn{id: 1})
	}
	broker, err := NewBroker[string, *fakeConn](factory)
	if err != nil {
		b.Fatal(err)
	}
	defer broker.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			f, err := broker.GetConnection("bench-parallel")
			if err != nil {
				b.Fatal(err)
			}
			if _, err := f.Wait(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkSchedulerIndicateRefresh 测试自适应防抖路径的开销。
func BenchmarkSchedulerIndicateRefresh(b *testing.B) {
	executor := NewPoolExecutor(4, 1024)
	defer executor.Shutdown(context.Background())

	opts := ClusterClientOptions{
		AdaptiveRefreshTimeout:  0, // 始终过期，衡量最坏情况下的提交开销
		AdaptiveRefreshTriggers: NewTriggerSet(TriggerMovedRedirect),
	}
	sched, err := NewScheduler(
		func() *Future[struct{}] { return Completed(struct{}{}) },
		func() any { return nil },
		func() ClusterClientOptions { return opts },
		executor,
	)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sched.OnMovedRedirection()
	}
}
