// Package actionstore tracks detector creates that were acknowledged by the
// model service but never confirmed readable.
//
// A create whose confirmation wait times out is recorded here so
// "aad detector pending --resume" can finish it later.
// Records live in the shared aad.db next to the audit log.
package actionstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"adaptivealerting/aad/internal/database"
)

// Repository defines the persistence interface for pending creates.
type Repository interface {
	// Save inserts (ID == 0) or updates a record. On insert an ID is assigned.
	Save(record *PendingCreate) error

	// Get returns the record with id, or nil when there is none.
	Get(id int64) (*PendingCreate, error)

	// ListPending returns records still in StatusPending, newest first.
	ListPending() ([]PendingCreate, error)

	// ListRecent returns the most recent n records regardless of status.
	ListRecent(n int) ([]PendingCreate, error)

	// DeleteOlderThan removes settled records last updated more than d ago.
	DeleteOlderThan(d time.Duration) (int64, error)

	Close() error
}

// SQLiteRepository implements Repository on the local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens the repository at database.DefaultPath.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("actionstore: %w", err)
	}
	return OpenAt(path)
}

// OpenAt opens the repository at path, creating the schema if needed.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("actionstore: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS pending_creates (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			detector_uuid TEXT    NOT NULL,
			model_service TEXT    NOT NULL DEFAULT '',
			acting_user   TEXT    NOT NULL DEFAULT '',
			tags          TEXT    NOT NULL DEFAULT '{}',
			status        TEXT    NOT NULL DEFAULT 'pending',
			error_message TEXT    NOT NULL DEFAULT '',
			created_at    TEXT    NOT NULL,
			updated_at    TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pending_creates_status ON pending_creates(status);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("actionstore: migration failed: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, detector_uuid, model_service, acting_user, tags, status,
		       error_message, created_at, updated_at
		FROM pending_creates`

// Save inserts a new record (ID == 0) or updates an existing one.
func (r *SQLiteRepository) Save(record *PendingCreate) error {
	record.UpdatedAt = time.Now().UTC()
	if record.Status == "" {
		record.Status = StatusPending
	}

	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("actionstore: encode tags: %w", err)
	}

	if record.ID == 0 {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
		result, err := r.db.Exec(`
			INSERT INTO pending_creates (detector_uuid, model_service, acting_user, tags, status, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.DetectorUUID, record.ModelService, record.User, string(tags), record.Status, record.ErrorMessage,
			record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("actionstore: insert failed: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("actionstore: failed to get last insert ID: %w", err)
		}
		record.ID = id
		return nil
	}

	result, err := r.db.Exec(`
		UPDATE pending_creates SET detector_uuid=?, model_service=?, acting_user=?, tags=?,
		       status=?, error_message=?, updated_at=?
		WHERE id=?`,
		record.DetectorUUID, record.ModelService, record.User, string(tags),
		record.Status, record.ErrorMessage, record.UpdatedAt.Format(time.RFC3339Nano), record.ID,
	)
	if err != nil {
		return fmt.Errorf("actionstore: update failed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("actionstore: record %d not found", record.ID)
	}
	return nil
}

func (r *SQLiteRepository) Get(id int64) (*PendingCreate, error) {
	rows, err := r.db.Query(selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("actionstore: query failed: %w", err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func (r *SQLiteRepository) ListPending() ([]PendingCreate, error) {
	rows, err := r.db.Query(selectColumns+` WHERE status = ? ORDER BY created_at DESC, id DESC`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("actionstore: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r *SQLiteRepository) ListRecent(n int) ([]PendingCreate, error) {
	rows, err := r.db.Query(selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("actionstore: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM pending_creates WHERE status != ? AND updated_at < ?`, StatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("actionstore: delete failed: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]PendingCreate, error) {
	var records []PendingCreate
	for rows.Next() {
		var (
			record                       PendingCreate
			tags, createdStr, updatedStr string
		)
		err := rows.Scan(
			&record.ID, &record.DetectorUUID, &record.ModelService, &record.User, &tags,
			&record.Status, &record.ErrorMessage, &createdStr, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("actionstore: scan failed: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &record.Tags); err != nil {
			return nil, fmt.Errorf("actionstore: record %d has invalid tags: %w", record.ID, err)
		}
		record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		records = append(records, record)
	}
	return records, rows.Err()
}
