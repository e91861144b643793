// Package media resolves and downloads remote audio/video through an
// external yt-dlp binary.
package media

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrTooLong is returned when the source exceeds the configured
	// duration ceiling. Nothing is downloaded in that case.
	ErrTooLong = errors.New("media: duration exceeds ceiling")
	// ErrUnknownQuality is returned for a quality label missing from config.
	ErrUnknownQuality = errors.New("media: unknown quality label")
)

// Config declares download limits and output placement.
type Config struct {
	DownloadDir        string         `yaml:"download_dir" envconfig:"MEDIA_DOWNLOAD_DIR"`
	MaxDurationSeconds int            `yaml:"max_duration_seconds" envconfig:"MEDIA_MAX_DURATION_SECONDS"`
	AudioBitrate       string         `yaml:"audio_bitrate" envconfig:"MEDIA_AUDIO_BITRATE"`
	Qualities          map[string]int `yaml:"qualities"`
}

// Normalize fills defaults for unset fields.
func (c *Config) Normalize() {
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
	if c.MaxDurationSeconds <= 0 {
		c.MaxDurationSeconds = 1200
	}
	if c.AudioBitrate == "" {
		c.AudioBitrate = "192K"
	}
	if len(c.Qualities) == 0 {
		c.Qualities = map[string]int{
			"360p":  360,
			"480p":  480,
			"720p":  720,
			"1080p": 1080,
		}
	}
}

// MaxDuration returns the ceiling as a time.Duration.
func (c Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds) * time.Second
}

// Height resolves a quality label to its target height.
func (c Config) Height(label string) (int, error) {
	h, ok := c.Qualities[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, label)
	}
	return h, nil
}

// QualityLabels returns configured labels sorted by ascending height.
func (c Config) QualityLabels() []string {
	labels := make([]string, 0, len(c.Qualities))
	for l := range c.Qualities {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return c.Qualities[labels[i]] < c.Qualities[labels[j]]
	})
	return labels
}

// Info is the probed metadata of a remote source.
type Info struct {
	Title    string
	Uploader string
	Duration time.Duration
	URL      string
}

// Prober resolves metadata without downloading.
type Prober interface {
	Probe(ctx context.Context, url string) (Info, error)
}

// Downloader materializes remote media as local files. The returned
// path is owned by the caller, which removes it after delivery.
type Downloader interface {
	DownloadAudio(ctx context.Context, url string, userID int64) (string, error)
	DownloadVideo(ctx context.Context, url string, userID int64, height int) (string, error)
}
