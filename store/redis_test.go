package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/osako110/Recommend/core"
)

// 需要真实 Redis：REDIS_ADDR=localhost:6379 go test ./store -run Redis
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("跳过：未设置 REDIS_ADDR")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr, KeyPrefix: "recommend:test:"})
	if err != nil {
		t.Fatalf("连接 Redis 失败: %v", err)
	}
	defer s.Close()

	if err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 30); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" || len(got) != 2 {
		t.Errorf("BatchGet = %v", got)
	}
	_ = s.Delete(ctx, "a")
	if _, err := s.Get(ctx, "a"); !core.IsStoreNotFound(err) {
		t.Errorf("Get deleted: %v", err)
	}
}
