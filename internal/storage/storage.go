// Package storage persists users and download history in Postgres.
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kbmedia/soundsbot/core/logger"
	"log/slog"
)

// DownloadRecord is one completed delivery.
type DownloadRecord struct {
	UserID      int64     `db:"user_id"`
	Title       string    `db:"title"`
	URL         string    `db:"url"`
	Destination string    `db:"destination"`
	CreatedAt   time.Time `db:"created_at"`
}

// Repository provides user and history persistence.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open database handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// UpsertUser records a user on first contact. Re-registration is a no-op.
func (r *Repository) UpsertUser(ctx context.Context, id int64, username, firstName string) error {
	const q = `
		INSERT INTO users (id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, id, username, firstName)
	return err
}

// AddDownload appends one delivery to the history. Append-only.
func (r *Repository) AddDownload(ctx context.Context, rec DownloadRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO download_history (user_id, title, url, destination, created_at)
		VALUES (:user_id, :title, :url, :destination, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, rec)
	return err
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// CountDownloads returns the number of recorded deliveries.
func (r *Repository) CountDownloads(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM download_history`)
	return n, err
}

// RecordDelivery is the fire-and-forget path used by the dialog: it
// upserts the user and appends the record, logging failures instead of
// surfacing them. Persistence problems never break a delivery.
func (r *Repository) RecordDelivery(ctx context.Context, id int64, username, firstName string, rec DownloadRecord) {
	if err := r.UpsertUser(ctx, id, username, firstName); err != nil {
		logger.DB.Warn("storage.upsert_user",
			slog.String("event", "upsert_user"),
			slog.String("status", "fail"),
			slog.Int64("user_id", id),
			slog.String("err", err.Error()),
		)
	}
	if err := r.AddDownload(ctx, rec); err != nil {
		logger.DB.Warn("storage.add_download",
			slog.String("event", "add_download"),
			slog.String("status", "fail"),
			slog.Int64("user_id", rec.UserID),
			slog.String("err", err.Error()),
		)
	}
}
