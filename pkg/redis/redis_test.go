package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brightsmile/engagebot-go/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Host: mr.Host(), Port: port})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := mr.Exists("k"); !got {
		t.Error("key not written to redis")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	if _, err := NewRedisClient(context.Background(), config.RedisConfig{Host: host, Port: port}); err == nil {
		t.Error("NewRedisClient() expected error for closed server")
	}
}
