package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db           *sql.DB
	logger       logger.Logger
	cfg          Config
	mu           sync.Mutex
	buffer       []*Sample
	maxPending   int
	dropped      int
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
	flusherDone  chan struct{}
	closeOnce    sync.Once
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if log == nil {
		log = logger.Nop()
	}
	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := migrate(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Cycle repository initialized")

	repo := &repository{
		db:           db,
		logger:       log,
		cfg:          cfg,
		buffer:       make([]*Sample, 0, cfg.BatchSize),
		maxPending:   maxPendingSamples(cfg.BatchSize),
		shutdownChan: make(chan struct{}),
	}

	// Periodic flushing only makes sense when samples are batched
	if cfg.BatchSize > 1 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		repo.flusherDone = make(chan struct{})
		go repo.flusher()
	}

	return repo, nil
}

func (r *repository) Record(sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, sample)

	// Samples stay buffered while writes fail; keep only the newest
	if over := len(r.buffer) - r.maxPending; over > 0 {
		r.buffer = append(r.buffer[:0], r.buffer[over:]...)
		r.dropped += over
		r.logger.Warn().
			Int("dropped", over).
			Int("dropped_total", r.dropped).
			Msg("Cycle log is not accepting writes, dropping oldest samples")
	}

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.close()
	})
	return err
}

func (r *repository) close() error {
	errFactory := errors.New()

	if r.flushTicker != nil {
		close(r.shutdownChan)
		r.flushTicker.Stop()
		<-r.flusherDone
	} else {
		r.mu.Lock()
		if err := r.flush(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to flush cycle samples on close")
		}
		r.mu.Unlock()
	}

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.db.Close()
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Cycle repository closed")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flusherDone)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Periodic flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to flush cycle samples on close")
			}
			r.mu.Unlock()
			return
		}
	}
}

func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	err := inTx(r.db, ErrTransactionFailed, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertCycleSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sample := range r.buffer {
			if _, err := stmt.Exec(sampleValues(sample)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int("records", len(r.buffer)).Msg("Failed to write cycle samples")
		return err
	}

	r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed cycle samples to database")
	r.buffer = r.buffer[:0]

	return nil
}

func sampleValues(s *Sample) []any {
	return []any{
		s.Timestamp.UnixMilli(),
		s.Result.String(),
		int64(s.EngineRPM),
		int64(s.RoadSpeedMPH),
		int64(s.CoolantTempF),
		int64(s.FuelTempF),
		s.ThrottlePos,
		s.MAFReading,
		s.MainVoltage,
		int64(s.LambdaTrimOdd),
		int64(s.LambdaTrimEven),
		s.PulseWidthMs,
		int64(s.FuelMapIndex),
		s.Gear.String(),
		int64(boolToInt(s.MILOn)),
		int64(boolToInt(s.FuelPumpRelayOn)),
		int64(boolToInt(s.IdleMode)),
	}
}
