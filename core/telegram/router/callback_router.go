package router

import (
	"time"

	tg "github.com/kbmedia/soundsbot/core/telegram"
	"github.com/kbmedia/soundsbot/core/telegram/callbacks"
	"github.com/kbmedia/soundsbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			cbHandler = func(c tele.Context) error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}
		}

		err := handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
		// Stop the spinner when the handler did not answer the query itself.
		_ = callbacks.Respond(c)
		return err
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
