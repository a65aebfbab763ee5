package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
)

// SQLiteStore persists profiles in a single SQLite file.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS risk_flags (
	patient_id     TEXT NOT NULL,
	condition_name TEXT NOT NULL,
	flagged        INTEGER NOT NULL DEFAULT 0,
	updated_at     TEXT NOT NULL,
	PRIMARY KEY (patient_id, condition_name)
);

CREATE TABLE IF NOT EXISTS completions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id  TEXT NOT NULL,
	task_id     TEXT NOT NULL,
	period      INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS completions_by_patient ON completions (patient_id, id);
`

type flagRow struct {
	PatientID string `db:"patient_id"`
	Condition string `db:"condition_name"`
	Flagged   bool   `db:"flagged"`
	UpdatedAt string `db:"updated_at"`
}

type completionRow struct {
	ID         int64  `db:"id"`
	PatientID  string `db:"patient_id"`
	TaskID     string `db:"task_id"`
	Period     int    `db:"period"`
	RecordedAt string `db:"recorded_at"`
}

// NewSQLiteStore opens (or creates) the database at dbPath, creating missing
// parent directories.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Profile(ctx context.Context, patientID string) (microtask.PatientProfile, error) {
	if err := checkPatient(patientID); err != nil {
		return microtask.PatientProfile{}, err
	}
	out := emptyProfile()

	var flags []flagRow
	if err := s.db.SelectContext(ctx, &flags,
		"SELECT patient_id, condition_name, flagged, updated_at FROM risk_flags WHERE patient_id = ?", patientID); err != nil {
		return microtask.PatientProfile{}, fmt.Errorf("load risk flags: %w", err)
	}
	for _, f := range flags {
		out.RiskFlags[indicators.Condition(f.Condition)] = f.Flagged
	}

	var rows []completionRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT id, patient_id, task_id, period, recorded_at FROM completions WHERE patient_id = ? ORDER BY id", patientID); err != nil {
		return microtask.PatientProfile{}, fmt.Errorf("load completions: %w", err)
	}
	for _, r := range rows {
		out.History = append(out.History, microtask.Completion{TaskID: r.TaskID, Period: r.Period})
	}
	return out, nil
}

func (s *SQLiteStore) SetRiskFlags(ctx context.Context, patientID string, flags map[indicators.Condition]bool) error {
	if err := checkFlags(patientID, flags); err != nil {
		return err
	}
	if len(flags) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := timeToString(s.now())
	for c, v := range flags {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO risk_flags (patient_id, condition_name, flagged, updated_at)
			VALUES (:patient_id, :condition_name, :flagged, :updated_at)
			ON CONFLICT (patient_id, condition_name) DO UPDATE SET flagged = excluded.flagged, updated_at = excluded.updated_at`,
			flagRow{PatientID: patientID, Condition: string(c), Flagged: v, UpdatedAt: now}); err != nil {
			return fmt.Errorf("save risk flag %s: %w", c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit risk flags: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordCompletion(ctx context.Context, patientID, taskID string, period int) error {
	if err := checkCompletion(patientID, taskID, period); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO completions (patient_id, task_id, period, recorded_at)
		VALUES (:patient_id, :task_id, :period, :recorded_at)`,
		completionRow{PatientID: patientID, TaskID: taskID, Period: period, RecordedAt: timeToString(s.now())})
	if err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	return nil
}

func timeToString(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
