//go:build integration

package queue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xact-systems/xact/internal/testutil"
	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/queue"
)

func TestRedisTransportDelivery(t *testing.T) {
	addr := testutil.SkipIfNoRedis(t)

	cfg, err := testutil.Prepare(testutil.TwoHostSystem(50))
	require.NoError(t, err)
	require.NoError(t, config.Denormalize(cfg))
	cfg.Host["alpha"].RedisAddr = addr
	cfg.Host["beta"].RedisAddr = addr
	cfg.Queue["inter_host_server"] = "redis"
	cfg.Queue["inter_host_client"] = "redis"

	senders, err := queue.Connect(cfg, "alpha", "producer")
	require.NoError(t, err)
	defer closeEndpoints(senders)
	receivers, err := queue.Connect(cfg, "beta", "consumer")
	require.NoError(t, err)
	defer closeEndpoints(receivers)

	var sender, receiver queue.Endpoint
	for _, endpoint := range senders {
		sender = endpoint
	}
	for _, endpoint := range receivers {
		receiver = endpoint
	}
	require.NotNil(t, sender)
	require.NotNil(t, receiver)

	for i := int64(0); i < 5; i++ {
		require.NoError(t, sender.NonBlockingWrite(map[string]any{"count": i}))
	}
	for i := int64(0); i < 5; i++ {
		item, err := receiver.BlockingRead()
		require.NoError(t, err)
		require.Equal(t, i, item.(map[string]any)["count"])
	}
}
