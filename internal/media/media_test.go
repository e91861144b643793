package media

import (
	"testing"
	"time"
)

func TestConfigNormalizeDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	if cfg.DownloadDir != "downloads" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.MaxDurationSeconds != 1200 {
		t.Errorf("MaxDurationSeconds = %d", cfg.MaxDurationSeconds)
	}
	if cfg.AudioBitrate != "192K" {
		t.Errorf("AudioBitrate = %q", cfg.AudioBitrate)
	}
	if got := cfg.MaxDuration(); got != 20*time.Minute {
		t.Errorf("MaxDuration() = %v", got)
	}
	if h, err := cfg.Height("720p"); err != nil || h != 720 {
		t.Errorf("Height(720p) = %d, %v", h, err)
	}
}

func TestConfigNormalizeKeepsExplicit(t *testing.T) {
	cfg := Config{
		DownloadDir:        "/srv/files",
		MaxDurationSeconds: 7200,
		AudioBitrate:       "320K",
		Qualities:          map[string]int{"480p": 480},
	}
	cfg.Normalize()

	if cfg.MaxDurationSeconds != 7200 || cfg.DownloadDir != "/srv/files" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
	if len(cfg.Qualities) != 1 {
		t.Errorf("explicit qualities overwritten: %v", cfg.Qualities)
	}
}

func TestHeightUnknownLabel(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	if _, err := cfg.Height("144p"); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestQualityLabelsSortedByHeight(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	labels := cfg.QualityLabels()
	want := []string{"360p", "480p", "720p", "1080p"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
}

func TestLastLine(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"a\nb\n", "b"},
		{"downloads/1_song.mp3", "downloads/1_song.mp3"},
		{"noise\ndownloads/1_song.mp3\n\n  ", "downloads/1_song.mp3"},
	}
	for _, tc := range cases {
		if got := lastLine(tc.in); got != tc.want {
			t.Errorf("lastLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
