package auditlog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"adaptivealerting/aad/internal/database"
)

const defaultListLimit = 50

// Repository persists audit entries.
type Repository interface {
	Save(entry *AuditEntry) error
	List(f Filter) ([]AuditEntry, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteRepository is the Repository used by the CLI.
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens the repository at database.DefaultPath.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt opens the repository at path, creating the schema if needed.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
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
        CREATE TABLE IF NOT EXISTS audit_log (
            id            INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp     TEXT    NOT NULL,
            command       TEXT    NOT NULL,
            args          TEXT    NOT NULL DEFAULT '',
            model_service TEXT    NOT NULL DEFAULT '',
            acting_user   TEXT    NOT NULL DEFAULT '',
            resource_type TEXT    NOT NULL DEFAULT '',
            resource_id   TEXT    NOT NULL DEFAULT '',
            resource_name TEXT    NOT NULL DEFAULT '',
            outcome       TEXT    NOT NULL DEFAULT '',
            detail        TEXT    NOT NULL DEFAULT '',
            duration_ms   INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
        CREATE INDEX IF NOT EXISTS idx_audit_log_command ON audit_log(command);
        CREATE INDEX IF NOT EXISTS idx_audit_log_resource ON audit_log(resource_type, resource_id);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("auditlog: migration failed: %w", err)
	}
	return nil
}

// Save inserts entry and sets its ID. A zero Timestamp is set to now.
func (r *SQLiteRepository) Save(entry *AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO audit_log (timestamp, command, args, model_service, acting_user, resource_type,
                               resource_id, resource_name, outcome, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Command, entry.Args,
		entry.ModelService, entry.User, entry.ResourceType, entry.ResourceID, entry.ResourceName,
		entry.Outcome, entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("auditlog: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns matching entries, newest first.
func (r *SQLiteRepository) List(f Filter) ([]AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Command != "" {
		where = append(where, "command = ?")
		args = append(args, f.Command)
	}
	if f.ResourceType != "" {
		where = append(where, "resource_type = ?")
		args = append(args, f.ResourceType)
	}
	if f.ResourceID != "" {
		where = append(where, "resource_id = ?")
		args = append(args, f.ResourceID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, timestamp, command, args, model_service, acting_user, resource_type,
                     resource_id, resource_name, outcome, detail, duration_ms
              FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes entries older than olderThan and returns how many went.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM audit_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("auditlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]AuditEntry, error) {
	var entries []AuditEntry
	for rows.Next() {
		var (
			e  AuditEntry
			ts string
		)
		if err := rows.Scan(
			&e.ID, &ts, &e.Command, &e.Args, &e.ModelService, &e.User,
			&e.ResourceType, &e.ResourceID, &e.ResourceName,
			&e.Outcome, &e.Detail, &e.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("auditlog: scan failed: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("auditlog: entry %d has invalid timestamp %q: %w", e.ID, ts, err)
		}
		e.Timestamp = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
