package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestIsLink(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http://youtu.be/dQw4w9WgXcQ", true},
		{"  https://youtu.be/abc  ", true},
		{"https://youtube.com/shorts/abc", true},
		{"https://example.com/watch?v=abc", false},
		{"youtube.com/watch?v=abc", false},
		{"привет", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsLink(tc.text); got != tc.want {
			t.Errorf("IsLink(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestUploadFile(t *testing.T) {
	cases := []struct {
		name     string
		msg      *tele.Message
		wantName string
		wantOK   bool
	}{
		{
			name:     "audio mp3",
			msg:      &tele.Message{Audio: &tele.Audio{FileName: "song.mp3", MIME: "audio/mpeg"}},
			wantName: "song.mp3",
			wantOK:   true,
		},
		{
			// audio messages are accepted regardless of codec
			name:     "audio ogg",
			msg:      &tele.Message{Audio: &tele.Audio{FileName: "voice.ogg", MIME: "audio/ogg"}},
			wantName: "voice.ogg",
			wantOK:   true,
		},
		{
			name:     "document mpeg mime",
			msg:      &tele.Message{Document: &tele.Document{FileName: "track", MIME: "audio/mpeg"}},
			wantName: "track",
			wantOK:   true,
		},
		{
			name:     "document mp3 name",
			msg:      &tele.Message{Document: &tele.Document{FileName: "Track.MP3", MIME: "application/octet-stream"}},
			wantName: "Track.MP3",
			wantOK:   true,
		},
		{
			name:   "document other audio",
			msg:    &tele.Message{Document: &tele.Document{FileName: "voice.ogg", MIME: "audio/ogg"}},
			wantOK: false,
		},
		{
			name:   "document pdf",
			msg:    &tele.Message{Document: &tele.Document{FileName: "scan.pdf", MIME: "application/pdf"}},
			wantOK: false,
		},
		{
			name:   "no attachment",
			msg:    &tele.Message{Text: "привет"},
			wantOK: false,
		},
		{
			name:   "nil message",
			wantOK: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, name, ok := uploadFile(tc.msg)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && name != tc.wantName {
				t.Fatalf("name = %q, want %q", name, tc.wantName)
			}
		})
	}
}
