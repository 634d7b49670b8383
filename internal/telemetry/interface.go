package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
)

// Publisher makes the latest snapshot available to other processes
type Publisher interface {
	Publish(ctx context.Context, update *Update) error
	Close() error
}

// Repository is the storage the publisher writes through
type Repository interface {
	Store(ctx context.Context, update *Update) error
	Close() error
}

// Update is one cycle's snapshot and result
type Update struct {
	Timestamp time.Time
	Result    acquisition.Result
	Snapshot  *ecu.Snapshot
}
