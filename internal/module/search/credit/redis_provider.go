package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStateProvider persists the ledger as a single JSON value under a
// configurable key. Useful when several instances share one ledger.
type RedisStateProvider struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStateProvider creates a Redis-backed state provider.
func NewRedisStateProvider(client redis.UniversalClient, key string) *RedisStateProvider {
	if key == "" {
		key = "searchmux:credit:state"
	}
	return &RedisStateProvider{client: client, key: key}
}

// LoadState loads the ledger from Redis. A missing key or unparsable
// value yields an empty state; connection failures propagate.
func (p *RedisStateProvider) LoadState(ctx context.Context) (State, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return nil, fmt.Errorf("load state from redis: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, nil
	}
	if state == nil {
		state = State{}
	}
	return state, nil
}

// SaveState persists the ledger to Redis.
func (p *RedisStateProvider) SaveState(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save state to redis: %w", err)
	}
	return nil
}

// StateExists reports whether the state key is present.
func (p *RedisStateProvider) StateExists() bool {
	n, err := p.client.Exists(context.Background(), p.key).Result()
	return err == nil && n > 0
}
