package transport

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mirrorsync/internal/model"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS waitlist (
	list         TEXT NOT NULL,
	id           TEXT PRIMARY KEY,
	form_id      TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL,
	wallet       TEXT,
	submitted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS waitlist_list_idx ON waitlist (list, submitted_at);
`

// Local appends records to a device-local sqlite list keyed by a fixed name.
type Local struct {
	db   *sql.DB
	list string
}

func OpenLocal(ctx context.Context, path, list string) (*Local, error) {
	if path == "" {
		return nil, fmt.Errorf("local transport: path is required")
	}
	if list == "" {
		return nil, fmt.Errorf("local transport: list name is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store: %w", err)
	}
	return &Local{db: db, list: list}, nil
}

func (l *Local) Name() string { return string(KindLocal) }

func (l *Local) Send(ctx context.Context, rec model.SubmissionRecord) error {
	wallet := sql.NullString{String: rec.Identity, Valid: rec.HasIdentity()}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO waitlist (list, id, form_id, email, wallet, submitted_at) VALUES (?, ?, ?, ?, ?, ?)`,
		l.list, rec.ID, rec.FormID, rec.Email, wallet, rec.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &StorageError{Backend: "local", Err: err}
	}
	return nil
}

// List returns the stored records of this list, oldest first.
func (l *Local) List(ctx context.Context) ([]model.SubmissionRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, form_id, email, wallet, submitted_at FROM waitlist WHERE list = ? ORDER BY submitted_at, rowid`,
		l.list,
	)
	if err != nil {
		return nil, fmt.Errorf("query local store: %w", err)
	}
	defer rows.Close()

	var out []model.SubmissionRecord
	for rows.Next() {
		var (
			rec    model.SubmissionRecord
			wallet sql.NullString
			ts     string
		)
		if err := rows.Scan(&rec.ID, &rec.FormID, &rec.Email, &wallet, &ts); err != nil {
			return nil, fmt.Errorf("scan local record: %w", err)
		}
		rec.Identity = wallet.String
		if rec.SubmittedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse submitted_at %q: %w", ts, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *Local) Close() error {
	return l.db.Close()
}
