//go:build integration

package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/pkg/config"
)

func setupRedis(t *testing.T) *RedisCache {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		container, err := tcredis.RunContainer(ctx,
			testcontainers.WithImage("redis:7-alpine"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("Ready to accept connections").
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Fatalf("Failed to start redis container: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("Failed to terminate redis container: %v", err)
			}
		})

		host, err := container.Host(ctx)
		if err != nil {
			t.Fatalf("Failed to get redis host: %v", err)
		}
		port, err := container.MappedPort(ctx, "6379")
		if err != nil {
			t.Fatalf("Failed to get redis port: %v", err)
		}
		url = fmt.Sprintf("redis://%s:%s/0", host, port.Port())
	}

	c, err := NewRedisCache(config.RedisConfig{URL: url, KeyPrefix: "bloquito_test"}, newTestLogger())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_Operations(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()
	key := fmt.Sprintf("test:%d", time.Now().UnixNano())

	t.Run("Miss", func(t *testing.T) {
		if _, err := c.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		if err := c.Set(ctx, key, "Bia", time.Minute); err != nil {
			t.Fatalf("Failed to set: %v", err)
		}
		val, err := c.Get(ctx, key)
		if err != nil || val != "Bia" {
			t.Errorf("Expected 'Bia', got '%s' (%v)", val, err)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		c.Set(ctx, key+":short", "v", 100*time.Millisecond)
		time.Sleep(200 * time.Millisecond)
		if _, err := c.Get(ctx, key+":short"); !errors.Is(err, ports.ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c.Delete(ctx, key)
		if _, err := c.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := c.Ping(); err != nil {
			t.Errorf("Expected ping to succeed: %v", err)
		}
	})
}
