package callbacks

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

// cbContext stubs the few tele.Context methods the guard touches.
// Anything else panics through the embedded nil interface.
type cbContext struct {
	tele.Context
	cb         *tele.Callback
	store      map[string]interface{}
	responds   []*tele.CallbackResponse
	respondErr error
}

func newCBContext(cb *tele.Callback) *cbContext {
	return &cbContext{cb: cb, store: make(map[string]interface{})}
}

func (c *cbContext) Callback() *tele.Callback { return c.cb }

func (c *cbContext) Set(key string, val interface{}) { c.store[key] = val }

func (c *cbContext) Get(key string) interface{} { return c.store[key] }

func (c *cbContext) Respond(resp ...*tele.CallbackResponse) error {
	var r *tele.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	c.responds = append(c.responds, r)
	return c.respondErr
}

func TestRespondAnswersQueryOnce(t *testing.T) {
	c := newCBContext(&tele.Callback{ID: "q1"})

	if err := Respond(c, &tele.CallbackResponse{Text: "hi"}); err != nil {
		t.Fatalf("first respond: %v", err)
	}
	if err := Respond(c); err != nil {
		t.Fatalf("second respond: %v", err)
	}

	if len(c.responds) != 1 {
		t.Fatalf("responds = %d, want 1", len(c.responds))
	}
	if c.responds[0] == nil || c.responds[0].Text != "hi" {
		t.Fatalf("first answer lost: %+v", c.responds[0])
	}
	if !Answered(c) {
		t.Fatal("Answered = false after respond")
	}
}

func TestRespondNoCallbackIsNoop(t *testing.T) {
	c := newCBContext(nil)
	if err := Respond(c); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(c.responds) != 0 {
		t.Fatalf("responds = %d, want 0", len(c.responds))
	}
	if Answered(c) {
		t.Fatal("Answered = true without a callback")
	}
}

func TestRespondMarksAnsweredEvenOnError(t *testing.T) {
	c := newCBContext(&tele.Callback{ID: "q1"})
	c.respondErr = errors.New("query is too old")

	if err := Respond(c, &tele.CallbackResponse{Text: "hi"}); err == nil {
		t.Fatal("respond error swallowed")
	}
	if !Answered(c) {
		t.Fatal("failed answer must still burn the query")
	}
	if err := Respond(c); err != nil {
		t.Fatalf("retry must be a noop, got: %v", err)
	}
	if len(c.responds) != 1 {
		t.Fatalf("responds = %d, want 1", len(c.responds))
	}
}

func TestCallbackKeyPrefersUnique(t *testing.T) {
	c := newCBContext(&tele.Callback{Unique: "quality", Data: "720p"})
	if got := CallbackKey(c); got != "quality" {
		t.Fatalf("CallbackKey = %q, want quality", got)
	}
}

func TestCallbackKeyFallsBackToData(t *testing.T) {
	c := newCBContext(&tele.Callback{Data: "\\fquality|720p"})
	if got := CallbackKey(c); got != "quality" {
		t.Fatalf("CallbackKey = %q, want quality", got)
	}
	if got := CallbackPayload(c); got != "720p" {
		t.Fatalf("CallbackPayload = %q, want 720p", got)
	}
}
