package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"portfolio-contact/internal/contact"
)

// PgxQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type PgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schemaDDL = `CREATE TABLE IF NOT EXISTS contacts (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	message     TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore writes to a "contacts" table. It works against a Supabase
// connection string as well as plain PostgreSQL.
type PostgresStore struct {
	db    PgxQuerier
	newID func() string
}

func NewPostgresStore(db PgxQuerier) *PostgresStore {
	return &PostgresStore{db: db, newID: func() string { return uuid.New().String() }}
}

var _ contact.Store = (*PostgresStore)(nil)

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure contacts schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, sub contact.Submission) (contact.StoredSubmission, error) {
	id := s.newID()
	var at time.Time
	err := s.db.QueryRow(ctx,
		`INSERT INTO contacts (id, name, email, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING received_at`,
		id, sub.Name, sub.Email, sub.Message,
	).Scan(&at)
	if err != nil {
		return contact.StoredSubmission{}, fmt.Errorf("postgres insert contact: %w", err)
	}
	return contact.StoredSubmission{ID: id, ReceivedAt: at.UTC(), Submission: sub}, nil
}
