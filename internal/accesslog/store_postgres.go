package accesslog

import (
	"context"
	"database/sql"
	"fmt"

	"gatewatch/internal/roster"
	"gatewatch/pkg/platform/tx"
)

// PostgresStore is the durable shadow copy of the access log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed access log store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn joins a context-carried transaction when one is present.
func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO access_log (id, subject_id, subject_name, subject_role, ts, action, location, authorized)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		e.ID, e.SubjectID, e.SubjectName, string(e.SubjectRole),
		e.Timestamp, string(e.Action), e.Location, e.Authorized,
	)
	if err != nil {
		return fmt.Errorf("insert access log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `
		SELECT id, subject_id, subject_name, subject_role, ts, action, location, authorized
		FROM access_log
		WHERE ($1 = '' OR subject_role = $1)
		  AND ($2::boolean IS NULL OR authorized = $2)
		  AND ($3 = '' OR action = $3)
		ORDER BY ts
	`
	var authorized sql.NullBool
	if f.Authorized != nil {
		authorized = sql.NullBool{Bool: *f.Authorized, Valid: true}
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query, string(f.Role), authorized, string(f.Action))
	if err != nil {
		return nil, fmt.Errorf("list access log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			role   string
			action string
		)
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.SubjectName, &role, &e.Timestamp, &action, &e.Location, &e.Authorized); err != nil {
			return nil, fmt.Errorf("scan access log entry: %w", err)
		}
		e.SubjectRole = roster.Role(role)
		e.Action = Action(action)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Migrate creates the access_log table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS access_log (
			id UUID PRIMARY KEY,
			subject_id UUID,
			subject_name TEXT NOT NULL,
			subject_role TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			location TEXT NOT NULL,
			authorized BOOLEAN NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate access_log: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
