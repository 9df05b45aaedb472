//go:build integration

package testutil

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis instance. It checks
// XACT_TEST_REDIS_ADDR first, then discovers the Docker container IP.
func RedisAddr() string {
	if addr := os.Getenv("XACT_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	out, err := exec.Command("docker", "inspect",
		"--format", "{{range .NetworkSettings.Networks}}{{.IPAddress}}{{end}}",
		"xact-test-redis").Output()
	if err != nil {
		return ""
	}
	ip := strings.TrimSpace(string(out))
	if ip == "" {
		return ""
	}
	return ip + ":6379"
}

// SkipIfNoRedis skips the test when the test Redis instance is not
// reachable.
func SkipIfNoRedis(t *testing.T) string {
	t.Helper()
	addr := RedisAddr()
	if addr == "" {
		t.Skip("no test redis: set XACT_TEST_REDIS_ADDR or start the xact-test-redis container")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test redis at %s not reachable: %v", addr, err)
	}
	return addr
}
