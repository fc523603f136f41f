// File: internal/telemetry/recorder.go
// Description: Persists run history to a local sqlite database. Recording is
// strictly best-effort: failures are logged and swallowed so telemetry can
// never take the bot down.

package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/spacebot/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	stop_reason TEXT,
	total_ticks INTEGER
);
CREATE TABLE IF NOT EXISTS actions (
	run_id    TEXT NOT NULL,
	tick      INTEGER NOT NULL,
	module    TEXT NOT NULL,
	type      TEXT NOT NULL,
	target_id TEXT,
	reason    TEXT,
	danger    INTEGER,
	"escape"  INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (run_id) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_actions_run_tick ON actions(run_id, tick);
`

// Recorder writes one row per run and one per dispatched action.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
	runID  string
}

// Open creates (or migrates) the database and inserts the run row.
func Open(path string, logger *zap.Logger) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("empty telemetry db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	// A single writer keeps sqlite happy; the runner is single-threaded
	// anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply telemetry schema: %w", err)
	}

	r := &Recorder{
		db:     db,
		logger: logger.Named("telemetry"),
		runID:  uuid.New().String(),
	}
	if _, err := db.Exec(
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		r.runID, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("insert run row: %w", err)
	}

	r.logger.Info("Telemetry recording started.",
		zap.String("run_id", r.runID), zap.String("db_path", path))
	return r, nil
}

// RunID exposes the current run's identifier.
func (r *Recorder) RunID() string { return r.runID }

// RecordAction stores one dispatched action. Never fails the caller.
func (r *Recorder) RecordAction(tick int, module string, action *game.Action) {
	escape := 0
	if action.Meta.Escape {
		escape = 1
	}
	_, err := r.db.Exec(
		`INSERT INTO actions (run_id, tick, module, type, target_id, reason, danger, "escape")
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, tick, module, string(action.Type),
		action.TargetID, action.Meta.Reason, action.Meta.Danger, escape,
	)
	if err != nil {
		r.logger.Warn("Failed to record action.", zap.Error(err))
	}
}

// RecordFinish finalizes the run row.
func (r *Recorder) RecordFinish(stopReason string, totalTicks int) {
	_, err := r.db.Exec(
		`UPDATE runs SET finished_at = ?, stop_reason = ?, total_ticks = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), stopReason, totalTicks, r.runID,
	)
	if err != nil {
		r.logger.Warn("Failed to finalize run row.", zap.Error(err))
	}
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
