//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/narou-export/internal/testutil"
	"github.com/Sternrassler/narou-export/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_CachedPage(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetPage(1, testutil.NewPageResponse([]testutil.Novel{{NCode: "N0001", GlobalPoint: 150000}}))
	mock.SetPage(501, testutil.NewServerErrorResponse())

	cfg := DefaultConfig("narou-export-test/1.0")
	cfg.Endpoint = mock.URL()
	cfg.Cache = cache.NewManager(redisClient)
	cfg.CacheTTL = time.Minute
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	first, err := c.FetchPage(ctx, 1)
	if err != nil {
		t.Fatalf("first FetchPage() error = %v", err)
	}
	if _, err := c.FetchPage(ctx, 1); err != nil {
		t.Fatalf("second FetchPage() error = %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("RequestCount = %d, want 2 (nothing cached before Remember)", mock.GetRequestCount())
	}

	c.Remember(ctx, 1, first)
	cached, err := c.FetchPage(ctx, 1)
	if err != nil {
		t.Fatalf("cached FetchPage() error = %v", err)
	}
	if string(first) != string(cached) {
		t.Error("cached page differs from fetched page")
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("RequestCount = %d, want 2 (served from cache)", mock.GetRequestCount())
	}

	// Failures are never cached.
	for i := 0; i < 2; i++ {
		if _, err := c.FetchPage(ctx, 501); ClassOf(err) != ErrorClassServer {
			t.Fatalf("FetchPage(501) error = %v, want server error", err)
		}
	}
	if mock.GetRequestCount() != 4 {
		t.Errorf("RequestCount = %d, want 4", mock.GetRequestCount())
	}
}
