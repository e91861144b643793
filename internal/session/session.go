// Package session keeps per-user conversation state for the download
// and tag-editing dialogs. Sessions live in memory only: a restart
// drops every active dialog, which matches the disposable nature of
// inline keyboards whose messages stay behind in the chat.
package session

import "time"

// Stage identifies the step of a user's dialog.
type Stage int

const (
	// StageChoosingFormat waits for the mp3/video format pick after a link.
	StageChoosingFormat Stage = iota + 1
	// StageChoosingQuality waits for the video quality pick.
	StageChoosingQuality
	// StageAwaitingMetadataChoice waits for the yes/no answer after an
	// audio download: should the tags be edited before delivery.
	StageAwaitingMetadataChoice
	// StageAwaitingTitle waits for a free-text title.
	StageAwaitingTitle
	// StageAwaitingArtist waits for a free-text artist name.
	StageAwaitingArtist
	// StageStartEditing waits for the edit/cancel pick on an uploaded file.
	StageStartEditing
)

var stageNames = map[Stage]string{
	StageChoosingFormat:         "choosing_format",
	StageChoosingQuality:        "choosing_quality",
	StageAwaitingMetadataChoice: "awaiting_metadata_choice",
	StageAwaitingTitle:          "awaiting_title",
	StageAwaitingArtist:         "awaiting_artist",
	StageStartEditing:           "start_editing",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// AwaitsText reports whether the stage expects a free-text reply.
func (s Stage) AwaitsText() bool {
	return s == StageAwaitingTitle || s == StageAwaitingArtist
}

// Source distinguishes how the media entered the dialog.
type Source int

const (
	// SourceLink marks media resolved from a pasted URL.
	SourceLink Source = iota + 1
	// SourceUpload marks media uploaded directly to the chat.
	SourceUpload
)

// Session is the state of one user's dialog.
type Session struct {
	UserID int64
	Stage  Stage
	Source Source

	// Pending link, filled at probe time.
	URL      string
	Title    string
	Uploader string
	Duration time.Duration

	// Selected video quality tier, e.g. "720p".
	Quality string

	// Materialized file awaiting tag edits or delivery.
	FilePath     string
	OriginalName string

	// Collected replacement tags.
	NewTitle  string
	NewArtist string

	StartedAt time.Time
}
