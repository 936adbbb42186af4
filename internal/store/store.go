package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/record"
)

// Default timeout for ledger operations
const defaultTimeout = 5 * time.Second

// Store is the sqlite ledger of ingested records and viewer users.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens (or creates) the ledger at path. The parent directory must
// exist and be writable.
func Open(ctx context.Context, path string) (*Store, error) {
	// WAL mode and a busy timeout prevent "database is locked" errors
	// when the CLI and resetpw touch the ledger concurrently.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	logging.Info("Ledger opened at %s", path)
	return s, nil
}

// initialize creates the ledger schema.
func (s *Store) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		series_key TEXT NOT NULL,
		series_uid TEXT,
		series_number INTEGER,
		series_description TEXT,
		modality TEXT,
		patient_name TEXT,
		patient_id TEXT,
		study_description TEXT,
		study_date TEXT,
		instance_number INTEGER,
		frame_count INTEGER,
		video INTEGER NOT NULL DEFAULT 0,
		ingested_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_series ON records(series_key, instance_number);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the ledger.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordQuery records metrics for one ledger operation.
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SaveSeries writes every record of the given series buckets to the
// ledger in one transaction, replacing earlier entries for the same
// path. Returns the number of records written.
func (s *Store) SaveSeries(ctx context.Context, series []record.Series) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_series", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			path, series_key, series_uid, series_number, series_description,
			modality, patient_name, patient_id, study_description, study_date,
			instance_number, frame_count, video, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			series_key = excluded.series_key,
			series_uid = excluded.series_uid,
			series_number = excluded.series_number,
			series_description = excluded.series_description,
			modality = excluded.modality,
			patient_name = excluded.patient_name,
			patient_id = excluded.patient_id,
			study_description = excluded.study_description,
			study_date = excluded.study_date,
			instance_number = excluded.instance_number,
			frame_count = excluded.frame_count,
			video = excluded.video,
			ingested_at = excluded.ingested_at`)
	if err != nil {
		rollback(tx)
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn("failed to close statement: %v", closeErr)
		}
	}()

	now := time.Now().Unix()
	saved := 0
	for _, sr := range series {
		for _, m := range sr.Records {
			if _, err = stmt.ExecContext(ctx,
				m.Path, sr.Key, m.SeriesUID, m.SeriesNumber, m.SeriesDescription,
				m.Modality, m.PatientName, m.PatientID, m.StudyDescription, m.StudyDate,
				m.InstanceNumber, m.FrameCount, m.Video, now,
			); err != nil {
				rollback(tx)
				return 0, fmt.Errorf("failed to save %s: %w", m.Path, err)
			}
			saved++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	metrics.StoreRecordsSaved.Add(float64(saved))
	return saved, nil
}

// SeriesKeys returns the distinct series keys in the ledger, ordered.
func (s *Store) SeriesKeys(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("series_keys", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT series_key FROM records ORDER BY series_key")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	err = rows.Err()
	return keys, err
}

// RecordsBySeries returns the ledger records of one series bucket in
// instance-number order.
func (s *Store) RecordsBySeries(ctx context.Context, key string) ([]record.Metadata, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("records_by_series", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, series_uid, series_number, series_description, modality,
		       patient_name, patient_id, study_description, study_date,
		       instance_number, frame_count, video
		FROM records WHERE series_key = ?
		ORDER BY instance_number, id`, key)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []record.Metadata
	for rows.Next() {
		var m record.Metadata
		if err = rows.Scan(
			&m.Path, &m.SeriesUID, &m.SeriesNumber, &m.SeriesDescription, &m.Modality,
			&m.PatientName, &m.PatientID, &m.StudyDescription, &m.StudyDate,
			&m.InstanceNumber, &m.FrameCount, &m.Video,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	err = rows.Err()
	return out, err
}

// RecordCount returns the total number of ledger records.
func (s *Store) RecordCount(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_count", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logging.Warn("rollback failed: %v", err)
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Warn("failed to close rows: %v", err)
	}
}
