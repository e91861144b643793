package ui

import (
	"strings"
	"testing"
	"time"
)

func TestQualityMenuRows(t *testing.T) {
	labels := []string{"360p", "480p", "720p", "1080p"}
	m := QualityMenu(labels)

	if got := len(m.InlineKeyboard); got != len(labels)+1 {
		t.Fatalf("rows = %d, want %d", got, len(labels)+1)
	}
	for i, label := range labels {
		row := m.InlineKeyboard[i]
		if len(row) != 1 {
			t.Fatalf("row %d has %d buttons", i, len(row))
		}
		if !strings.Contains(row[0].Text, label) {
			t.Errorf("row %d text = %q, want label %q", i, row[0].Text, label)
		}
		if row[0].Unique != CBQuality || row[0].Data != label {
			t.Errorf("row %d = %q|%q, want %q|%q", i, row[0].Unique, row[0].Data, CBQuality, label)
		}
	}
	last := m.InlineKeyboard[len(labels)][0]
	if last.Unique != CBBackToFormat {
		t.Errorf("last row unique = %q, want back button", last.Unique)
	}
}

func TestFormatMenuShape(t *testing.T) {
	m := FormatMenu()
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	if got := m.InlineKeyboard[0][0].Unique; got != CBFormatMP3 {
		t.Errorf("first button unique = %q", got)
	}
	if got := m.InlineKeyboard[1][0].Unique; got != CBFormatVideo {
		t.Errorf("second button unique = %q", got)
	}
}

func TestUploadMenuShape(t *testing.T) {
	m := UploadMenu()
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	if got := m.InlineKeyboard[0][0].Unique; got != CBEditUploaded {
		t.Errorf("edit button unique = %q", got)
	}
	cancel := m.InlineKeyboard[1][0]
	if cancel.Unique != CBCancel {
		t.Errorf("cancel button unique = %q", cancel.Unique)
	}
	if cancel.Text != "❌ Отмена" {
		t.Errorf("cancel button text = %q", cancel.Text)
	}
}

func TestMetadataMenuSingleRow(t *testing.T) {
	m := MetadataMenu()
	if len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected shape: %v", m.InlineKeyboard)
	}
}

func TestLinkSummary(t *testing.T) {
	got := LinkSummary("Track", "Artist", 125*time.Second)
	if !strings.Contains(got, "2:05") {
		t.Errorf("summary = %q, want 2:05 duration", got)
	}
	if !strings.Contains(got, "Track") || !strings.Contains(got, "Artist") {
		t.Errorf("summary = %q", got)
	}
}

func TestLinkSummaryEscapesMarkdown(t *testing.T) {
	got := LinkSummary("snake_case_title", "star*artist", time.Minute)
	if !strings.Contains(got, `snake\_case\_title`) {
		t.Errorf("title not escaped: %q", got)
	}
	if !strings.Contains(got, `star\*artist`) {
		t.Errorf("uploader not escaped: %q", got)
	}
}

func TestTooLongMinutes(t *testing.T) {
	got := TooLong("Фильм", 90*time.Minute, 20*time.Minute)
	if !strings.Contains(got, "90") || !strings.Contains(got, "20") {
		t.Errorf("TooLong = %q", got)
	}
}
