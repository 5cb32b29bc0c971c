package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatewatch/pkg/platform/sentinel"
	"gatewatch/pkg/platform/tx"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists identities in PostgreSQL. The in-memory store remains
// the source of truth for live monitoring; this store is the durable copy.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed roster store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// conn joins a context-carried transaction when one is present.
func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func encodeDescriptor(d []float32) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func decodeDescriptor(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var d []float32
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) Create(ctx context.Context, identity *Identity) error {
	descriptor, err := encodeDescriptor(identity.Descriptor)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	query := `
		INSERT INTO identities (id, name, role, blacklisted, watchlisted, visitor_expiry, registered_by, notes, descriptor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		identity.ID, identity.Name, string(identity.Role),
		identity.Blacklisted, identity.Watchlisted, identity.VisitorExpiry,
		identity.RegisteredBy, identity.Notes, descriptor, identity.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("identity %s: %w", identity.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, identity *Identity) error {
	descriptor, err := encodeDescriptor(identity.Descriptor)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	query := `
		UPDATE identities
		SET name = $2, role = $3, blacklisted = $4, watchlisted = $5,
		    visitor_expiry = $6, registered_by = $7, notes = $8, descriptor = $9
		WHERE id = $1
	`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		identity.ID, identity.Name, string(identity.Role),
		identity.Blacklisted, identity.Watchlisted, identity.VisitorExpiry,
		identity.RegisteredBy, identity.Notes, descriptor,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("identity %s: %w", identity.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Identity, error) {
	row := s.conn(ctx).QueryRowContext(ctx, selectIdentity+` WHERE id = $1`, id)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	return identity, err
}

func (s *PostgresStore) GetByName(ctx context.Context, name string) (*Identity, error) {
	row := s.conn(ctx).QueryRowContext(ctx, selectIdentity+` WHERE name = $1 ORDER BY created_at LIMIT 1`, name)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity named %q: %w", name, sentinel.ErrNotFound)
	}
	return identity, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*Identity, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, selectIdentity+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, rows.Err()
}

const selectIdentity = `
	SELECT id, name, role, blacklisted, watchlisted, visitor_expiry, registered_by, notes, descriptor, created_at
	FROM identities`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		identity   Identity
		role       string
		expiry     sql.NullTime
		descriptor []byte
	)
	err := row.Scan(
		&identity.ID, &identity.Name, &role,
		&identity.Blacklisted, &identity.Watchlisted, &expiry,
		&identity.RegisteredBy, &identity.Notes, &descriptor, &identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	identity.Role = Role(role)
	if expiry.Valid {
		t := expiry.Time.UTC()
		identity.VisitorExpiry = &t
	}
	identity.Descriptor, err = decodeDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	identity.CreatedAt = identity.CreatedAt.UTC()
	return &identity, nil
}

// Migrate creates the identities table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
			watchlisted BOOLEAN NOT NULL DEFAULT FALSE,
			visitor_expiry TIMESTAMPTZ,
			registered_by TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			descriptor JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate identities: %w", err)
	}
	return nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*InMemoryStore)(nil)
)
