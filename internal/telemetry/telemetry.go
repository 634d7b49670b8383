package telemetry

import (
	"context"

	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopPublisher struct{}

func NewService(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	errFactory := errors.New()

	if log == nil {
		log = logger.Nop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Snapshot publishing disabled, using no-op publisher")
		return &noopPublisher{}, nil
	}

	repo, err := NewRepository(ctx, cfg, log)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return newService(repo, cfg), nil
}

func newService(repo Repository, cfg Config) *service {
	return &service{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *service) Publish(ctx context.Context, update *Update) error {
	errFactory := errors.New()

	if update == nil || update.Snapshot == nil {
		return errFactory.New(ErrInvalidUpdate)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, update); err != nil {
			return errFactory.Wrap(ErrPublishFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopPublisher) Publish(_ context.Context, _ *Update) error {
	return nil
}

func (*noopPublisher) Close() error {
	return nil
}
