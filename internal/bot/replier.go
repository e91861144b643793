package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/kbmedia/soundsbot/core/telegram/callbacks"
	tghelpers "github.com/kbmedia/soundsbot/core/telegram/helpers"
)

// teleReplier adapts one Telegram update to the dialog's outbound port.
// Send tracks the message it posted so a later Edit rewrites it; for
// callback updates Edit falls back to the message carrying the pressed
// keyboard. Dialog messages are sent synchronously because the flow
// edits them right away.
type teleReplier struct {
	c       tele.Context
	current *tele.Message
}

func newReplier(c tele.Context) *teleReplier {
	return &teleReplier{c: c}
}

func (r *teleReplier) Send(text string, markup *tele.ReplyMarkup) error {
	msg, err := r.c.Bot().Send(r.c.Recipient(), text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: markup,
	})
	if err != nil {
		return err
	}
	r.current = msg
	return nil
}

func (r *teleReplier) Edit(text string, markup *tele.ReplyMarkup) error {
	target := r.target()
	if target == nil {
		return r.Send(text, markup)
	}
	msg, err := r.c.Bot().Edit(target, text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: markup,
	})
	if err != nil {
		return err
	}
	if msg != nil {
		r.current = msg
	}
	return nil
}

// Notify shows a callback toast when the query can still be answered.
// An answered or expired query (a download can outlive it) gets a plain
// message instead, so the notice always reaches the user.
func (r *teleReplier) Notify(text string) error {
	if r.c.Callback() != nil && !callbacks.Answered(r.c) {
		if err := callbacks.Respond(r.c, &tele.CallbackResponse{Text: text}); err == nil {
			return nil
		}
	}
	return tghelpers.SendText(r.c, text)
}

func (r *teleReplier) SendAudio(path, title, performer, caption string) error {
	audio := &tele.Audio{
		File:      tele.FromDisk(path),
		Title:     title,
		Performer: performer,
		Caption:   caption,
	}
	_, err := r.c.Bot().Send(r.c.Recipient(), audio)
	return err
}

func (r *teleReplier) SendVideo(path, caption string) error {
	video := &tele.Video{
		File:      tele.FromDisk(path),
		Caption:   caption,
		Streaming: true,
	}
	_, err := r.c.Bot().Send(r.c.Recipient(), video, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}

func (r *teleReplier) target() *tele.Message {
	if r.current != nil {
		return r.current
	}
	if cb := r.c.Callback(); cb != nil && cb.Message != nil {
		return cb.Message
	}
	return nil
}
