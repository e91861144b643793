package bot

import (
	"context"

	"github.com/kbmedia/soundsbot/core/logger"
	"github.com/kbmedia/soundsbot/internal/flow"
	"github.com/kbmedia/soundsbot/internal/storage"
	"log/slog"
)

// historyRecorder bridges the dialog to Postgres. All writes are best
// effort: the dialog never waits for or fails on persistence.
type historyRecorder struct {
	repo *storage.Repository
}

func (h *historyRecorder) Register(ctx context.Context, u flow.User) {
	if err := h.repo.UpsertUser(ctx, u.ID, u.Username, u.FirstName); err != nil {
		logger.SVCUsers.Warn("users.register",
			slog.String("event", "register"),
			slog.String("status", "fail"),
			slog.Int64("user_id", u.ID),
			slog.String("err", err.Error()),
		)
	}
}

func (h *historyRecorder) Delivered(ctx context.Context, u flow.User, title, url, destination string) {
	h.repo.RecordDelivery(ctx, u.ID, u.Username, u.FirstName, storage.DownloadRecord{
		UserID:      u.ID,
		Title:       title,
		URL:         url,
		Destination: destination,
	})
	logger.SVCDownloads.Info("downloads.recorded",
		slog.String("event", "recorded"),
		slog.Int64("user_id", u.ID),
		slog.String("title", logger.SanitizeLimit(title, 120)),
		slog.String("destination", destination),
	)
}
