// Package flow drives the per-user download and tag-editing dialog.
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kbmedia/soundsbot/core/logger"
	"github.com/kbmedia/soundsbot/internal/media"
	"github.com/kbmedia/soundsbot/internal/session"
	"github.com/kbmedia/soundsbot/internal/tags"
	"github.com/kbmedia/soundsbot/internal/ui"
	"log/slog"
)

// errStaleStage marks a button pressed for a dialog that moved on.
var errStaleStage = errors.New("flow: stale dialog stage")

// Controller owns every stage transition. All work on a user's session
// happens inside session.Store.Do, so concurrent presses of the same
// button resolve to one winner and one expired notice.
type Controller struct {
	cfg      media.Config
	sessions *session.Store
	prober   media.Prober
	dl       media.Downloader
	tagw     tags.Writer
	rec      Recorder
}

// NewController wires the dialog over its collaborators.
func NewController(cfg media.Config, sessions *session.Store, prober media.Prober, dl media.Downloader, tagw tags.Writer, rec Recorder) *Controller {
	cfg.Normalize()
	return &Controller{
		cfg:      cfg,
		sessions: sessions,
		prober:   prober,
		dl:       dl,
		tagw:     tagw,
		rec:      rec,
	}
}

// AwaitingInput reports whether the user's dialog expects free text.
func (c *Controller) AwaitingInput(userID int64) bool {
	return c.sessions.AwaitingInput(userID)
}

// Start registers the user and greets them with the main menu.
func (c *Controller) Start(ctx context.Context, u User, r Replier) error {
	c.rec.Register(ctx, u)
	return r.Send(ui.Greeting(u.FirstName), ui.MainMenu())
}

// HandleLink probes a pasted URL and opens the format menu. A fresh
// link replaces whatever dialog the user had.
func (c *Controller) HandleLink(ctx context.Context, u User, url string, r Replier) error {
	if err := r.Send(ui.TextProbing, nil); err != nil {
		return err
	}

	info, err := c.prober.Probe(ctx, url)
	if err != nil {
		_ = r.Edit(ui.ProbeError(err), nil)
		return fmt.Errorf("flow: probe: %w", err)
	}

	if info.Duration > c.cfg.MaxDuration() {
		logger.SVCFlow.Info("flow.link.rejected",
			slog.String("event", "too_long"),
			slog.Int64("user_id", u.ID),
			slog.Int64("duration_s", int64(info.Duration.Seconds())),
		)
		return r.Edit(ui.TooLong(info.Title, info.Duration, c.cfg.MaxDuration()), nil)
	}

	c.discardSession(u.ID)
	c.sessions.Put(session.Session{
		UserID:   u.ID,
		Stage:    session.StageChoosingFormat,
		Source:   session.SourceLink,
		URL:      url,
		Title:    info.Title,
		Uploader: info.Uploader,
		Duration: info.Duration,
	})

	return r.Edit(ui.LinkSummary(info.Title, info.Uploader, info.Duration), ui.FormatMenu())
}

// HandleUpload stores an already-downloaded audio file and offers tag
// editing. Like a fresh link, it replaces any running dialog.
func (c *Controller) HandleUpload(ctx context.Context, u User, filePath, originalName string, r Replier) error {
	c.discardSession(u.ID)
	c.sessions.Put(session.Session{
		UserID:       u.ID,
		Stage:        session.StageStartEditing,
		Source:       session.SourceUpload,
		FilePath:     filePath,
		OriginalName: originalName,
	})
	return r.Send(ui.TextUploadReceived, ui.UploadMenu())
}

// ChooseMP3 downloads the pending link as mp3 and asks about tags.
func (c *Controller) ChooseMP3(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageChoosingFormat {
			return false, errStaleStage
		}
		if err := r.Edit(ui.TextStartingMP3, nil); err != nil {
			return false, err
		}

		path, err := c.dl.DownloadAudio(ctx, s.URL, u.ID)
		if err != nil {
			_ = r.Edit(ui.DownloadError(err), nil)
			return true, err
		}

		s.FilePath = path
		s.Stage = session.StageAwaitingMetadataChoice
		c.rec.Delivered(ctx, u, s.Title, s.URL, "mp3")
		return false, r.Edit(ui.TextAskMetadata, ui.MetadataMenu())
	})
	return c.resolveStale(err, r)
}

// ChooseVideo opens the quality menu.
func (c *Controller) ChooseVideo(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageChoosingFormat {
			return false, errStaleStage
		}
		s.Stage = session.StageChoosingQuality
		return false, r.Edit(ui.TextChooseQuality, ui.QualityMenu(c.cfg.QualityLabels()))
	})
	return c.resolveStale(err, r)
}

// BackToFormat returns from the quality menu to the format menu.
func (c *Controller) BackToFormat(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageChoosingQuality {
			return false, errStaleStage
		}
		s.Stage = session.StageChoosingFormat
		return false, r.Edit(ui.TextChooseFormat, ui.FormatMenu())
	})
	return c.resolveStale(err, r)
}

// ChooseQuality downloads and delivers the pending link as video. On a
// failed download or delivery the dialog stays at the quality menu so
// the user can retry.
func (c *Controller) ChooseQuality(ctx context.Context, u User, label string, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageChoosingQuality {
			return false, errStaleStage
		}
		height, err := c.cfg.Height(label)
		if err != nil {
			return false, err
		}
		if err := r.Edit(ui.DownloadingVideo(label), nil); err != nil {
			return false, err
		}

		path, err := c.dl.DownloadVideo(ctx, s.URL, u.ID, height)
		if err != nil {
			_ = r.Edit(ui.DownloadError(err), nil)
			return false, err
		}
		defer c.removeFile(path, u.ID)

		if err := r.Edit(ui.TextSendingVideo, nil); err != nil {
			return false, err
		}
		if err := r.SendVideo(path, ui.VideoCaption(s.Title, label)); err != nil {
			_ = r.Edit(ui.DownloadError(err), nil)
			return false, err
		}

		c.rec.Delivered(ctx, u, s.Title, s.URL, "video")
		return true, nil
	})
	return c.resolveStale(err, r)
}

// AcceptMetadata starts the title/artist questions after a download.
func (c *Controller) AcceptMetadata(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageAwaitingMetadataChoice {
			return false, errStaleStage
		}
		s.Stage = session.StageAwaitingTitle
		return false, r.Edit(ui.TextAskTitle, nil)
	})
	return c.resolveStale(err, r)
}

// DeclineMetadata stamps the probed title/uploader and delivers as is.
func (c *Controller) DeclineMetadata(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageAwaitingMetadataChoice {
			return false, errStaleStage
		}
		c.writeTags(s.FilePath, s.Title, s.Uploader, u.ID)
		if err := r.Edit(ui.TextSending, nil); err != nil {
			return false, err
		}
		defer c.removeFile(s.FilePath, u.ID)
		return true, r.SendAudio(s.FilePath, s.Title, s.Uploader, ui.TextCaption)
	})
	return c.resolveStale(err, r)
}

// EditUploaded starts the title/artist questions for an uploaded file.
func (c *Controller) EditUploaded(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.Stage != session.StageStartEditing {
			return false, errStaleStage
		}
		s.Stage = session.StageAwaitingTitle
		return false, r.Edit(ui.TextAskTitle, nil)
	})
	return c.resolveStale(err, r)
}

// Cancel drops the dialog and any materialized file.
func (c *Controller) Cancel(ctx context.Context, u User, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		if s.FilePath != "" {
			c.removeFile(s.FilePath, u.ID)
		}
		return true, r.Edit(ui.TextCancelled, nil)
	})
	return c.resolveStale(err, r)
}

// HandleText consumes the title and artist answers. Text outside those
// stages is ignored.
func (c *Controller) HandleText(ctx context.Context, u User, text string, r Replier) error {
	err := c.sessions.Do(u.ID, func(s *session.Session) (bool, error) {
		switch s.Stage {
		case session.StageAwaitingTitle:
			s.NewTitle = text
			s.Stage = session.StageAwaitingArtist
			return false, r.Send(ui.TextAskArtist, nil)

		case session.StageAwaitingArtist:
			s.NewArtist = text
			c.writeTags(s.FilePath, s.NewTitle, s.NewArtist, u.ID)
			defer c.removeFile(s.FilePath, u.ID)
			return true, r.SendAudio(s.FilePath, s.NewTitle, s.NewArtist, ui.TextCaption)

		default:
			return false, errStaleStage
		}
	})
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, errStaleStage) {
		return nil
	}
	return err
}

// resolveStale converts lost races and dead sessions into the retry
// notice; everything else propagates.
func (c *Controller) resolveStale(err error, r Replier) error {
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, errStaleStage) {
		return r.Notify(ui.TextSessionExpired)
	}
	return err
}

// discardSession drops a previous dialog, removing its leftover file.
func (c *Controller) discardSession(userID int64) {
	_ = c.sessions.Do(userID, func(s *session.Session) (bool, error) {
		if s.FilePath != "" {
			c.removeFile(s.FilePath, userID)
		}
		return true, nil
	})
}

// writeTags is best effort: a broken tag never blocks delivery.
func (c *Controller) writeTags(path, title, artist string, userID int64) {
	if err := c.tagw.Write(path, title, artist); err != nil {
		logger.SVCTags.Warn("tags.write",
			slog.String("event", "write"),
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("file", path),
			slog.String("err", err.Error()),
		)
	}
}

func (c *Controller) removeFile(path string, userID int64) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.SVCFlow.Warn("flow.cleanup",
			slog.String("event", "cleanup"),
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("file", path),
			slog.String("err", err.Error()),
		)
	}
}
