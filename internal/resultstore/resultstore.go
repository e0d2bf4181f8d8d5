// Package resultstore keeps finished task responses for a short time so a
// client can query them after the reply was published.
package resultstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

type Store interface {
	Save(ctx context.Context, messageID string, payload []byte) error
	// Get returns ErrResultNotFound when the result is unknown or expired.
	Get(ctx context.Context, messageID string) ([]byte, error)
	Close() error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(opts Options) (Store, error) {
	if opts.Addr == "" {
		return nil, customErr.ErrResultStoreUnavailable
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts.TTL), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.NewNamedLogger("result-store"),
	}
}

func key(messageID string) string {
	return constants.ResultKeyPrefix + messageID
}

func (s *redisStore) Save(ctx context.Context, messageID string, payload []byte) error {
	if err := s.client.Set(ctx, key(messageID), payload, s.ttl).Err(); err != nil {
		s.logger.Errorf("Failed to store result: %s [MsgID: %s]", err, messageID)
		return err
	}
	s.logger.Infof("Stored result for %s [MsgID: %s]", s.ttl, messageID)
	return nil
}

func (s *redisStore) Get(ctx context.Context, messageID string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key(messageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, customErr.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
