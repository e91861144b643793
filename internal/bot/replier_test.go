package bot

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/kbmedia/soundsbot/core/telegram/callbacks"
)

// notifyContext stubs the tele.Context surface Notify touches. Anything
// else panics through the embedded nil interface.
type notifyContext struct {
	tele.Context
	cb         *tele.Callback
	store      map[string]interface{}
	toasts     []string
	respondErr error
	sent       []string
}

func newNotifyContext(cb *tele.Callback) *notifyContext {
	return &notifyContext{cb: cb, store: make(map[string]interface{})}
}

func (c *notifyContext) Callback() *tele.Callback { return c.cb }

func (c *notifyContext) Set(key string, val interface{}) { c.store[key] = val }

func (c *notifyContext) Get(key string) interface{} { return c.store[key] }

func (c *notifyContext) Respond(resp ...*tele.CallbackResponse) error {
	if c.respondErr != nil {
		return c.respondErr
	}
	text := ""
	if len(resp) > 0 && resp[0] != nil {
		text = resp[0].Text
	}
	c.toasts = append(c.toasts, text)
	return nil
}

func (c *notifyContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		c.sent = append(c.sent, text)
	}
	return nil
}

func TestNotifyToastsUnansweredCallback(t *testing.T) {
	c := newNotifyContext(&tele.Callback{ID: "q1"})

	if err := newReplier(c).Notify("истекло"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(c.toasts) != 1 || c.toasts[0] != "истекло" {
		t.Fatalf("toasts = %v, want the notice", c.toasts)
	}
	if len(c.sent) != 0 {
		t.Fatalf("sent = %v, want none", c.sent)
	}
}

func TestNotifyAnsweredCallbackFallsBackToMessage(t *testing.T) {
	c := newNotifyContext(&tele.Callback{ID: "q1"})
	callbacks.MarkAnswered(c)

	if err := newReplier(c).Notify("истекло"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(c.toasts) != 0 {
		t.Fatalf("toasts = %v, want none", c.toasts)
	}
	if len(c.sent) != 1 || c.sent[0] != "истекло" {
		t.Fatalf("sent = %v, want the notice as a message", c.sent)
	}
}

func TestNotifyExpiredQueryFallsBackToMessage(t *testing.T) {
	c := newNotifyContext(&tele.Callback{ID: "q1"})
	c.respondErr = errors.New("Bad Request: query is too old")

	if err := newReplier(c).Notify("истекло"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != "истекло" {
		t.Fatalf("sent = %v, want the notice as a message", c.sent)
	}
}

func TestNotifyWithoutCallbackSendsMessage(t *testing.T) {
	c := newNotifyContext(nil)

	if err := newReplier(c).Notify("готово"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != "готово" {
		t.Fatalf("sent = %v, want one message", c.sent)
	}
}
