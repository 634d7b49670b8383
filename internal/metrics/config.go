package metrics

import (
	"os"
	"path/filepath"

	"codeberg.org/mutker/roverdash/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultBatchSize    = 25
	defaultBatchTimeout = 5
	backupDirName       = "backups"

	// pendingBatches full batches are kept while the database rejects writes
	pendingBatches    = 40
	minPendingSamples = 100
)

type Config struct {
	DBPath  string
	Enabled bool
	// BatchSize is the number of samples buffered before a write
	BatchSize int
	// BatchTimeout flushes a partial batch after this many seconds
	BatchTimeout int
}

// DefaultDBPath is the cycle log location when none is configured
func DefaultDBPath() string {
	return filepath.Join(os.TempDir(), "roverdash", "cycles.db")
}

func DefaultConfig() Config {
	return Config{
		DBPath:       DefaultDBPath(),
		Enabled:      false, // Disabled by default
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if recording is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{c.BatchSize, c.BatchTimeout})
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func maxPendingSamples(batchSize int) int {
	if n := batchSize * pendingBatches; n > minPendingSamples {
		return n
	}
	return minPendingSamples
}
