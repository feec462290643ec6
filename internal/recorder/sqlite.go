package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"FundSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a batch writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			version     TEXT,
			total       INTEGER,
			accumulate  INTEGER,
			reduce      INTEGER,
			hold        INTEGER,
			abnormal    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS evaluations (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT,
			timestamp       INTEGER NOT NULL,
			code            TEXT NOT NULL,
			name            TEXT,
			status          TEXT NOT NULL,
			reason          TEXT,
			action          TEXT,
			stance          TEXT,
			valuation_level TEXT,
			total_score     REAL,
			premium         REAL,
			max_drawdown    REAL,
			estimated_nav   REAL,
			live            INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_code_ts ON evaluations(code, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const insertEvaluation = `INSERT INTO evaluations
	(run_id, timestamp, code, name, status, reason, action, stance, valuation_level,
	 total_score, premium, max_drawdown, estimated_nav, live)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeEvaluation(ctx context.Context, ex execer, runID string, ts int64, o model.Outcome) error {
	row := flatten(o)
	_, err := ex.ExecContext(ctx, insertEvaluation,
		runID, ts, row.Code, row.Name, row.Status, row.Reason,
		row.Action, row.Stance, row.Valuation,
		row.Score, row.Premium, row.MaxDrawdown, row.Estimated, row.Live,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", row.Code, err)
	}
	return nil
}

// RecordRun writes the run and its outcomes in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *model.BatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback()

	acc, red, hold, abnormal := run.Counts()
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, finished_at, version, total, accumulate, reduce, hold, abnormal)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Version,
		len(run.Outcomes), acc, red, hold, abnormal,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	ts := run.FinishedAt.Unix()
	for _, o := range run.Outcomes {
		if err := writeEvaluation(ctx, tx, run.ID, ts, o); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(ctx context.Context, runID string, outcome model.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeEvaluation(ctx, r.db, runID, time.Now().Unix(), outcome)
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
