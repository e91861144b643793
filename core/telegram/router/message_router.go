package router

import (
	"strings"
	"time"

	tg "github.com/kbmedia/soundsbot/core/telegram"
	"github.com/kbmedia/soundsbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the minimal interface of a per-user dialog driver.
// AwaitingInput reports whether the user's dialog expects free text,
// in which case the text update is routed to InputHandler instead of
// command lookup.
type Conversation interface {
	AwaitingInput(userID int64) bool
	InputHandler(c tele.Context) error
}

// MessageOptions controls routing of text, audio and document updates.
type MessageOptions struct {
	// IsLink classifies a text message as a media link.
	IsLink func(text string) bool
	// LinkHandler receives text updates classified as links.
	LinkHandler tele.HandlerFunc
	// AudioHandler receives audio uploads (and audio documents).
	AudioHandler tele.HandlerFunc

	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// MessageRoutes builds handlers for text, audio and document updates.
func MessageRoutes(conv Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if conv != nil && c.Sender() != nil && conv.AwaitingInput(c.Sender().ID) {
			return handleWithSummary(c, "dialog_input", start, "", "", func() error {
				return conv.InputHandler(c)
			})
		}

		if opts.IsLink != nil && opts.LinkHandler != nil && opts.IsLink(text) {
			return handleWithSummary(c, "link", start, "", "", func() error {
				return opts.LinkHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	audioHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.AudioHandler != nil {
			return handleWithSummary(c, "audio_upload", start, "", "", func() error {
				return opts.AudioHandler(c)
			})
		}
		logHandlerSummary(c, "audio_upload", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if doc := c.Message().Document; doc != nil && opts.AudioHandler != nil &&
			strings.HasPrefix(doc.MIME, "audio/") {
			return handleWithSummary(c, "audio_document", start, "", "", func() error {
				return opts.AudioHandler(c)
			})
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnAudio,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(audioHandler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
