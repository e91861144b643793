package tags

import (
	"os"
	"path/filepath"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
)

func TestWriteTagsOnBareFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	// Minimal mp3-ish payload: id3v2 prepends the tag, the body stays.
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewID3Writer()
	if err := w.Write(path, "Night Drive", "Avtopilot"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if got := tag.Title(); got != "Night Drive" {
		t.Errorf("title = %q", got)
	}
	if got := tag.Artist(); got != "Avtopilot" {
		t.Errorf("artist = %q", got)
	}
}

func TestWriteKeepsExistingFrameWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewID3Writer()
	if err := w.Write(path, "Old Title", "Old Artist"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(path, "", "New Artist"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if got := tag.Title(); got != "Old Title" {
		t.Errorf("title = %q, want unchanged", got)
	}
	if got := tag.Artist(); got != "New Artist" {
		t.Errorf("artist = %q", got)
	}
}

func TestWriteMissingFile(t *testing.T) {
	w := NewID3Writer()
	if err := w.Write(filepath.Join(t.TempDir(), "absent.mp3"), "t", "a"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
