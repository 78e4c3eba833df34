package ratelimit_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/substratehq/substrate/internal/ratelimit"
)

var testRedis *redis.Client

func TestMain(m *testing.M) {
	if os.Getenv("SUBSTRATE_INTEGRATION") == "" {
		// Unit runs skip the containerized suite entirely.
		os.Exit(m.Run())
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	testRedis = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	if err := testRedis.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ping redis: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = testRedis.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if testRedis == nil {
		t.Skip("set SUBSTRATE_INTEGRATION=1 to run redis integration tests")
	}
}

func newTestLimiter(limit int64, window time.Duration) *ratelimit.RedisLimiter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ratelimit.NewRedisLimiter(testRedis, logger, limit, window)
}

func TestRedisLimiterAllowWithinLimit(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()
	limiter := newTestLimiter(5, time.Minute)

	key := fmt.Sprintf("within-%d", time.Now().UnixNano())
	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be within the limit", i)
	}
}

func TestRedisLimiterDenyOverLimit(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()
	limiter := newTestLimiter(3, time.Minute)

	key := fmt.Sprintf("over-%d", time.Now().UnixNano())
	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "request over the limit should be denied")
}

func TestRedisLimiterIndependentKeys(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()
	limiter := newTestLimiter(1, time.Minute)

	base := time.Now().UnixNano()
	okA, err := limiter.Allow(ctx, fmt.Sprintf("a-%d", base))
	require.NoError(t, err)
	okB, err := limiter.Allow(ctx, fmt.Sprintf("b-%d", base))
	require.NoError(t, err)

	assert.True(t, okA)
	assert.True(t, okB, "keys must not share a counter")
}

func TestRedisLimiterWindowReset(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()
	limiter := newTestLimiter(1, 500*time.Millisecond)

	key := fmt.Sprintf("reset-%d", time.Now().UnixNano())
	ok, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(600 * time.Millisecond)

	ok, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts a fresh counter")
}
