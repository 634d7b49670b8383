package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/logger"
)

// inTx runs fn inside a transaction. The transaction is rolled back when fn
// fails and every failure is reported under code.
func inTx(db *sql.DB, code errors.ErrorCode, fn func(tx *sql.Tx) error) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(code, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errFactory.WithData(code, struct {
				Error    string
				Rollback string
			}{err.Error(), rbErr.Error()})
		}
		return errFactory.Wrap(code, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(code, err)
	}
	return nil
}

// migrate brings the cycle log to SchemaVersion. Recorded cycles of an
// older layout are copied to the backup directory, then the tables are
// recreated empty.
func migrate(db *sql.DB, dbPath string, log logger.Logger) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version == SchemaVersion {
		log.Debug().Int("version", version).Msg("Cycle log schema is current")
		return nil
	}

	if version != 0 {
		if _, err := backupDatabase(db, dbPath, version, log); err != nil {
			return errors.New().Wrap(ErrSchemaMigrationFailed, err)
		}
	}

	err = inTx(db, ErrSchemaInitFailed, func(tx *sql.Tx) error {
		for _, table := range []string{cyclesTable, versionsTable} {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(createTablesSQL); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO `+versionsTable+` (version, applied_at) VALUES (?, datetime('now'))`,
			SchemaVersion,
		)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("previous_version", version).
		Int("version", SchemaVersion).
		Msg("Cycle log schema created")

	return nil
}

func backupDatabase(db *sql.DB, dbPath string, version int, log logger.Logger) (string, error) {
	errFactory := errors.New()

	dir := filepath.Join(filepath.Dir(dbPath), backupDirName)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", errFactory.Wrap(ErrSchemaMigrationFailed, err)
	}

	name := fmt.Sprintf("cycles_v%d_%s.db", version, time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)

	// VACUUM INTO cannot run inside a transaction
	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := db.Exec("VACUUM INTO '" + quoted + "'"); err != nil {
		return "", errFactory.WithData(ErrSchemaMigrationFailed, struct {
			Path  string
			Error string
		}{path, err.Error()})
	}

	log.Info().Str("path", path).Int("version", version).Msg("Cycle log backup created")

	return path, nil
}
