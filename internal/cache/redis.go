package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each scope as a hash so that one DEL clears every view of it.
// The scope's generation is a counter at <scope>:gen.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to a redis server and verifies it answers PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis %s: %v", ErrUnavailable, opts.Addr, err)
	}
	return NewRedisWithClient(client, opts.TTL), nil
}

func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, scope, field string) ([]byte, bool, error) {
	v, err := r.client.HGet(ctx, scope, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis hget %s: %w", scope, err)
	}
	return v, true, nil
}

func genKey(scope string) string {
	return scope + ":gen"
}

func (r *Redis) Generation(ctx context.Context, scope string) (uint64, error) {
	gen, err := r.client.Get(ctx, genKey(scope)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", genKey(scope), err)
	}
	return gen, nil
}

// Set writes the field inside a WATCH on the generation key, so a concurrent
// Invalidate aborts the write.
func (r *Redis) Set(ctx context.Context, scope, field string, value []byte, gen uint64) error {
	key := genKey(scope)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, scope, field, value)
			if r.ttl > 0 {
				pipe.Expire(ctx, scope, r.ttl)
			}
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	}
	return fmt.Errorf("redis hset %s: %w", scope, err)
}

func (r *Redis) Invalidate(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, scope := range scopes {
			pipe.Incr(ctx, genKey(scope))
		}
		pipe.Del(ctx, scopes...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del %v: %w", scopes, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
