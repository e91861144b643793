package flow

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// User identifies the dialog owner.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// Replier is the outbound side of one update. Send posts a new message
// and makes it current; Edit rewrites the current message (for callback
// updates that is the message carrying the pressed keyboard). Notify is
// a transient toast on callback updates and a plain message otherwise.
// Attachments are sent synchronously so file cleanup can follow the
// delivery attempt.
type Replier interface {
	Send(text string, markup *tele.ReplyMarkup) error
	Edit(text string, markup *tele.ReplyMarkup) error
	Notify(text string) error
	SendAudio(path, title, performer, caption string) error
	SendVideo(path, caption string) error
}

// Recorder persists users and delivery history. Implementations must
// swallow their own failures: the dialog never breaks on persistence.
type Recorder interface {
	Register(ctx context.Context, user User)
	Delivered(ctx context.Context, user User, title, url, destination string)
}
