// Package archive persists finished scan sessions to SQLite.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// ErrSessionNotFound is returned when an archived session id is unknown.
var ErrSessionNotFound = errors.New("archived session not found")

// SessionInfo describes one archived session.
type SessionInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	Summary   models.Summary `json:"summary"`
}

// Store is the SQLite-backed session archive.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the archive database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", path, err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// OpenMigrated opens the archive and applies pending migrations.
func OpenMigrated(ctx context.Context, path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSession stores a session summary and its records in one transaction
// and returns the new session id.
func (s *Store) SaveSession(ctx context.Context, name string, summary models.Summary, records []models.ScanRecord) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, name, created_at, total_scanned, successful_matches, match_rate, duration_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, formatTime(s.now()), summary.TotalScanned, summary.SuccessfulMatches,
		nullFloat(summary.MatchRate), nullFloat(summary.DurationMinutes),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scans (id, session_id, scan_index, scanned_value, scanned_at, status, matched_value, row_index, format, result_json, details_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare scan insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		result, err := json.Marshal(rec.Result)
		if err != nil {
			return "", fmt.Errorf("failed to encode scan %d: %w", rec.ScanIndex, err)
		}
		details, err := json.Marshal(rec.Details)
		if err != nil {
			return "", fmt.Errorf("failed to encode scan %d: %w", rec.ScanIndex, err)
		}
		recID := rec.ID
		if recID == "" {
			recID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			recID, id, rec.ScanIndex, rec.ScannedValue, formatTime(rec.Timestamp),
			string(rec.Result.Status), rec.Result.MatchedValue, rec.Result.RowIndex,
			rec.Details.Format, string(result), string(details),
		); err != nil {
			return "", fmt.Errorf("failed to insert scan %d: %w", rec.ScanIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

// ListSessions returns archived sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, total_scanned, successful_matches, match_rate, duration_minutes
		 FROM sessions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// GetSession returns one archived session.
func (s *Store) GetSession(ctx context.Context, id string) (SessionInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, total_scanned, successful_matches, match_rate, duration_minutes
		 FROM sessions WHERE id = ?`, id)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return info, err
}

// LoadScans returns the records of an archived session by ascending scan index.
func (s *Store) LoadScans(ctx context.Context, sessionID string) ([]models.ScanRecord, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scan_index, scanned_value, scanned_at, result_json, details_json
		 FROM scans WHERE session_id = ? ORDER BY scan_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}
	defer rows.Close()

	var out []models.ScanRecord
	for rows.Next() {
		var (
			rec             models.ScanRecord
			at              string
			result, details string
		)
		if err := rows.Scan(&rec.ID, &rec.ScanIndex, &rec.ScannedValue, &at, &result, &details); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if rec.Timestamp, err = parseTime(at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode scan %d: %w", rec.ScanIndex, err)
		}
		if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
			return nil, fmt.Errorf("failed to decode scan %d: %w", rec.ScanIndex, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its scans.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionInfo, error) {
	var (
		info          SessionInfo
		created       string
		rate, minutes sql.NullFloat64
	)
	if err := row.Scan(&info.ID, &info.Name, &created,
		&info.Summary.TotalScanned, &info.Summary.SuccessfulMatches, &rate, &minutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionInfo{}, err
		}
		return SessionInfo{}, fmt.Errorf("failed to scan session: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return SessionInfo{}, err
	}
	info.CreatedAt = t
	if rate.Valid {
		info.Summary.MatchRate = &rate.Float64
	}
	if minutes.Valid {
		info.Summary.DurationMinutes = &minutes.Float64
	}
	return info, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
