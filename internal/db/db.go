// Package db owns the sqlite database that backs track-design
// persistence and ride logging: connection setup, pragmas, the base
// schema and versioned migrations.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// schema.sql is the base schema for a fresh database. It is kept in
// step with the migrations directory; NewDB applies it so new
// deployments work without running the migrate CLI first.
//
//go:embed schema.sql
var schemaSQL string

// NewDB opens (creating if needed) the coaster database at path,
// applies the connection pragmas and ensures the base schema exists.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{sqlDB}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

// RideLog is one completed (or aborted) simulated ride summary.
type RideLog struct {
	LogID        int64   `json:"log_id"`
	DesignID     string  `json:"design_id,omitempty"`
	StartedAtNs  int64   `json:"started_at_ns"`
	DurationSecs float64 `json:"duration_secs"`
	Ticks        int64   `json:"ticks"`
	MaxSpeed     float64 `json:"max_speed"`
	TotalLength  float64 `json:"total_length"`
}

// RecordRideLog inserts a ride summary and returns its id. A zero
// StartedAtNs is filled with the current time.
func (db *DB) RecordRideLog(rl RideLog) (int64, error) {
	if rl.StartedAtNs == 0 {
		rl.StartedAtNs = time.Now().UnixNano()
	}
	var designID sql.NullString
	if rl.DesignID != "" {
		designID = sql.NullString{String: rl.DesignID, Valid: true}
	}
	res, err := db.Exec(`
		INSERT INTO ride_logs (design_id, started_at_ns, duration_secs, ticks, max_speed, total_length)
		VALUES (?, ?, ?, ?, ?, ?)`,
		designID, rl.StartedAtNs, rl.DurationSecs, rl.Ticks, rl.MaxSpeed, rl.TotalLength,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ride log: %w", err)
	}
	return res.LastInsertId()
}

// RideLogs returns the most recent ride summaries, newest first.
func (db *DB) RideLogs(limit int) ([]RideLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT log_id, design_id, started_at_ns, duration_secs, ticks, max_speed, total_length
		FROM ride_logs
		ORDER BY started_at_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ride logs: %w", err)
	}
	defer rows.Close()

	var logs []RideLog
	for rows.Next() {
		var rl RideLog
		var designID sql.NullString
		if err := rows.Scan(&rl.LogID, &designID, &rl.StartedAtNs,
			&rl.DurationSecs, &rl.Ticks, &rl.MaxSpeed, &rl.TotalLength); err != nil {
			return nil, fmt.Errorf("scan ride log: %w", err)
		}
		if designID.Valid {
			rl.DesignID = designID.String
		}
		logs = append(logs, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
