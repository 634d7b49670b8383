package telemetry

import (
	"context"
	"sync"

	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/logger"
	"github.com/go-redis/redis/v8"
)

type redisRepository struct {
	client *redis.Client
	key    string
	mu     sync.Mutex
}

// NewRepository connects to Redis and verifies the connection
func NewRepository(ctx context.Context, cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if log == nil {
		log = logger.Nop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.WriteTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(connectCtx).Err(); err != nil {
		client.Close()
		return nil, errFactory.WithData(ErrConnect, struct {
			Addr  string
			Error string
		}{
			Addr:  cfg.Addr,
			Error: err.Error(),
		})
	}

	log.Info().
		Str("addr", cfg.Addr).
		Str("key", cfg.Key).
		Msg("Connected to Redis")

	return &redisRepository{
		client: client,
		key:    cfg.Key,
	}, nil
}

func (r *redisRepository) Store(ctx context.Context, update *Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, r.key, Fields(update))
	pipe.Publish(ctx, r.key, update.Result.String())

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.New().Wrap(ErrPublishFailed, err)
	}

	return nil
}

func (r *redisRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return errors.New().Wrap(ErrConnectClose, err)
	}
	return nil
}
