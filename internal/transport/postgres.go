package transport

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"mirrorsync/internal/model"
)

// Execer is the part of *pgxpool.Pool the postgres transport uses.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres upserts records into a table keyed by email fingerprint, so a
// resubmission refreshes the wallet instead of adding a row.
type Postgres struct {
	db    Execer
	table string
}

func NewPostgres(db Execer, table string) *Postgres {
	if table == "" {
		table = "waitlist_entries"
	}
	return &Postgres{db: db, table: pgx.Identifier{table}.Sanitize()}
}

func (p *Postgres) Name() string { return string(KindPostgres) }

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                UUID PRIMARY KEY,
			form_id           TEXT NOT NULL DEFAULT '',
			email             TEXT NOT NULL,
			email_fingerprint TEXT NOT NULL UNIQUE,
			wallet            TEXT,
			submitted_at      TIMESTAMPTZ NOT NULL
		)`, p.table)
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) Send(ctx context.Context, rec model.SubmissionRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, form_id, email, email_fingerprint, wallet, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email_fingerprint) DO UPDATE
		SET wallet = EXCLUDED.wallet,
		    submitted_at = EXCLUDED.submitted_at
	`, p.table)

	var wallet *string
	if rec.HasIdentity() {
		wallet = &rec.Identity
	}

	if _, err := p.db.Exec(ctx, query, rec.ID, rec.FormID, rec.Email, rec.Fingerprint(), wallet, rec.SubmittedAt); err != nil {
		return &StorageError{Backend: "postgres", Err: err}
	}
	return nil
}
