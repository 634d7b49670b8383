package metrics

import (
	"database/sql"

	"codeberg.org/mutker/roverdash/internal/errors"
)

const (
	SchemaVersion = 1

	versionsTable = "schema_versions"
	cyclesTable   = "cycles"

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS cycles (
	       id               INTEGER PRIMARY KEY AUTOINCREMENT,
	       timestamp_ms     INTEGER NOT NULL,
	       result           TEXT NOT NULL CHECK (result IN ('no_statement', 'success', 'failure')),
	       engine_rpm       INTEGER NOT NULL CHECK (typeof(engine_rpm) = 'integer'),
	       road_speed_mph   INTEGER NOT NULL CHECK (typeof(road_speed_mph) = 'integer'),
	       coolant_temp_f   INTEGER NOT NULL CHECK (typeof(coolant_temp_f) = 'integer'),
	       fuel_temp_f      INTEGER NOT NULL CHECK (typeof(fuel_temp_f) = 'integer'),
	       throttle_pos     REAL NOT NULL,
	       maf_reading      REAL NOT NULL,
	       main_voltage     REAL NOT NULL,
	       lambda_trim_odd  INTEGER NOT NULL,
	       lambda_trim_even INTEGER NOT NULL,
	       pulse_width_ms   REAL NOT NULL,
	       fuel_map_index   INTEGER NOT NULL,
	       gear             TEXT NOT NULL,
	       mil_on           INTEGER NOT NULL CHECK (mil_on IN (0, 1)),
	       fuel_pump_on     INTEGER NOT NULL CHECK (fuel_pump_on IN (0, 1)),
	       idle_mode        INTEGER NOT NULL CHECK (idle_mode IN (0, 1))
	   );
	   CREATE INDEX IF NOT EXISTS cycles_timestamp ON cycles (timestamp_ms);`

	insertCycleSQL = `
    INSERT INTO cycles (
        timestamp_ms, result,
        engine_rpm, road_speed_mph, coolant_temp_f, fuel_temp_f,
        throttle_pos, maf_reading, main_voltage,
        lambda_trim_odd, lambda_trim_even, pulse_width_ms,
        fuel_map_index, gear, mil_on, fuel_pump_on, idle_mode
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// schemaVersion returns the version recorded in the cycle log, or 0 when
// the database has never been initialized
func schemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var tables int
	err := db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		versionsTable,
	).Scan(&tables)
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if tables == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRow(`SELECT max(version) FROM ` + versionsTable).Scan(&version); err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return int(version.Int64), nil
}
