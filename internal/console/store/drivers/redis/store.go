// Package redis stores console session state in Redis so several agents
// behind one operator can share a login. Every write is announced on a
// pub/sub channel which Watch subscribes to.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key and the change channel.
const DefaultKeyPrefix = "consoleauth:"

type Config struct {
	Client *redis.Client

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

type Store struct {
	client    *redis.Client
	keyPrefix string
}

var _ store.Store = (*Store)(nil)
var _ store.Watcher = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	return &Store{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

// Open dials addr and verifies the server answers before returning.
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return New(Config{Client: client, KeyPrefix: prefix})
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, 0)
		pipe.Publish(ctx, s.channel(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(key))
		pipe.Publish(ctx, s.channel(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }

// Watch subscribes to the change channel and blocks until ctx is done or the
// subscription drops.
func (s *Store) Watch(ctx context.Context, fn func(key string)) error {
	sub := s.client.Subscribe(ctx, s.channel())
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", s.channel())
			}
			fn(msg.Payload)
		}
	}
}

func (s *Store) key(key string) string { return s.keyPrefix + "kv:" + key }
func (s *Store) channel() string       { return s.keyPrefix + "changes" }
