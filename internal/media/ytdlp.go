package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/kbmedia/soundsbot/core/logger"
	"log/slog"
)

// Client runs yt-dlp for probing and downloading.
type Client struct {
	cfg Config
}

// NewClient prepares the download directory and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	cfg.Normalize()
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create download dir: %w", err)
	}
	return &Client{cfg: cfg}, nil
}

// Install ensures a yt-dlp binary is available, downloading one when
// the host has none. Meant to be called once at startup.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("media: yt-dlp install: %w", err)
	}
	return nil
}

// probeResult mirrors the subset of yt-dlp's single-json dump we need.
type probeResult struct {
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

// Probe resolves title, uploader and duration without downloading.
func (c *Client) Probe(ctx context.Context, url string) (Info, error) {
	start := time.Now()
	cmd := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return Info{}, fmt.Errorf("media: probe %s: %w", logger.Sanitize(url), err)
	}

	var pr probeResult
	if err := json.Unmarshal([]byte(res.Stdout), &pr); err != nil {
		return Info{}, fmt.Errorf("media: probe parse: %w", err)
	}

	uploader := pr.Uploader
	if uploader == "" {
		uploader = pr.Channel
	}
	info := Info{
		Title:    pr.Title,
		Uploader: uploader,
		Duration: time.Duration(pr.Duration * float64(time.Second)),
		URL:      pr.WebpageURL,
	}
	if info.URL == "" {
		info.URL = url
	}

	logger.SVCMedia.Info("media.probe",
		slog.String("event", "probe"),
		slog.String("url", logger.Sanitize(info.URL)),
		slog.String("title", logger.SanitizeLimit(info.Title, 120)),
		slog.Int64("duration_s", int64(info.Duration/time.Second)),
		slog.Duration("duration", logger.Took(start)),
	)
	return info, nil
}

// DownloadAudio fetches the best audio stream and converts it to mp3.
func (c *Client) DownloadAudio(ctx context.Context, url string, userID int64) (string, error) {
	cmd := ytdlp.New().
		NoPlaylist().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality(c.cfg.AudioBitrate).
		Output(c.outputTemplate(userID)).
		Print("after_move:filepath")

	return c.download(ctx, cmd, url, userID, "audio")
}

// DownloadVideo fetches video capped at the given height, merged to mp4.
func (c *Client) DownloadVideo(ctx context.Context, url string, userID int64, height int) (string, error) {
	format := fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	cmd := ytdlp.New().
		NoPlaylist().
		Format(format).
		MergeOutputFormat("mp4").
		Output(c.outputTemplate(userID)).
		Print("after_move:filepath")

	return c.download(ctx, cmd, url, userID, "video")
}

func (c *Client) download(ctx context.Context, cmd *ytdlp.Command, url string, userID int64, kind string) (string, error) {
	start := time.Now()
	res, err := cmd.Run(ctx, url)
	if err != nil {
		logger.SVCMedia.Error("media.download",
			slog.String("event", "download"),
			slog.String("status", "fail"),
			slog.String("kind", kind),
			slog.Int64("user_id", userID),
			slog.String("url", logger.Sanitize(url)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return "", fmt.Errorf("media: download %s: %w", kind, err)
	}

	path := lastLine(res.Stdout)
	if path == "" {
		return "", fmt.Errorf("media: download %s: no output path reported", kind)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("media: download %s: missing file %s: %w", kind, path, err)
	}

	logger.SVCMedia.Info("media.download",
		slog.String("event", "download"),
		slog.String("status", "ok"),
		slog.String("kind", kind),
		slog.Int64("user_id", userID),
		slog.String("file", path),
		slog.Duration("duration", logger.Took(start)),
	)
	return path, nil
}

// outputTemplate prefixes files with the user ID so concurrent users
// never collide on same-titled sources.
func (c *Client) outputTemplate(userID int64) string {
	return fmt.Sprintf("%s/%d_%%(title)s.%%(ext)s", c.cfg.DownloadDir, userID)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
