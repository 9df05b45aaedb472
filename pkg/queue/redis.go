package queue

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/xact-systems/xact/pkg/config"
)

func init() {
	RegisterTransport("redis", redisTransport)
}

const defaultRedisAddr = "localhost:6379"

// redisTransport carries edge traffic through a redis list, LPUSH on the
// sending side and BRPOP on the receiving side. It serves inter-host
// edges when direct TCP between the hosts is not available; both sides
// reach the broker configured on the edge's owner host.
func redisTransport(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error) {
	owner, ok := cfg.Host[edge.IDHostOwner]
	if !ok {
		return nil, fmt.Errorf("edge %s: unknown owner host %q", edge.IDEdge, edge.IDHostOwner)
	}
	addr := owner.RedisAddr
	if addr == "" {
		addr = defaultRedisAddr
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisEndpoint{
		client: client,
		key:    cfg.System.IDSystem + ":" + edge.IDEdge,
		sender: sender,
	}, nil
}

type redisEndpoint struct {
	client *redis.Client
	key    string
	sender bool
}

func (e *redisEndpoint) NonBlockingWrite(item any) error {
	if !e.sender {
		return fmt.Errorf("endpoint is receive-only")
	}
	payload, err := msgpack.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	ctx := context.Background()
	length, err := e.client.LLen(ctx, e.key).Result()
	if err != nil {
		return fmt.Errorf("redis %s: %w", e.key, err)
	}
	if length >= endpointBuffer {
		return ErrQueueFull
	}
	if err := e.client.LPush(ctx, e.key, payload).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", e.key, err)
	}
	return nil
}

func (e *redisEndpoint) BlockingRead() (any, error) {
	if e.sender {
		return nil, fmt.Errorf("endpoint is send-only")
	}
	reply, err := e.client.BRPop(context.Background(), 0, e.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", e.key, err)
	}
	var item any
	if err := msgpack.Unmarshal([]byte(reply[1]), &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

func (e *redisEndpoint) Close() error {
	return e.client.Close()
}
