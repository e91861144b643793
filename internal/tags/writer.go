// Package tags writes ID3v2 metadata into mp3 files.
package tags

import (
	"fmt"

	id3v2 "github.com/bogem/id3v2/v2"
)

// Writer updates title/artist frames of an audio file in place.
type Writer interface {
	Write(path, title, artist string) error
}

// ID3Writer is the id3v2-backed Writer.
type ID3Writer struct{}

// NewID3Writer returns a Writer for mp3 files.
func NewID3Writer() *ID3Writer {
	return &ID3Writer{}
}

// Write opens the file, replaces the title and artist frames and saves.
// Files without an existing tag get a fresh ID3v2.4 container.
func (w *ID3Writer) Write(path, title, artist string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("tags: open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("tags: save %s: %w", path, err)
	}
	return nil
}
