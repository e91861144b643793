// Package bot assembles the Telegram application: configuration,
// collaborators, command/callback registry and routes.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/kbmedia/soundsbot/core/telegram"
	"github.com/kbmedia/soundsbot/core/telegram/commands"
	tghelpers "github.com/kbmedia/soundsbot/core/telegram/helpers"
	"github.com/kbmedia/soundsbot/core/telegram/router"
	"github.com/kbmedia/soundsbot/internal/flow"
	"github.com/kbmedia/soundsbot/internal/media"
	"github.com/kbmedia/soundsbot/internal/session"
	"github.com/kbmedia/soundsbot/internal/storage"
	"github.com/kbmedia/soundsbot/internal/tags"
	"github.com/kbmedia/soundsbot/internal/ui"
)

// App is the assembled bot.
type App struct {
	cfg      *Config
	repo     *storage.Repository
	sessions *session.Store
	ctrl     *flow.Controller
}

// NewApp wires collaborators over an open database handle.
func NewApp(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	client, err := media.NewClient(cfg.Media)
	if err != nil {
		return nil, err
	}

	repo := storage.NewRepository(db)
	sessions := session.NewStore()
	ctrl := flow.NewController(cfg.Media, sessions, client, client, tags.NewID3Writer(), &historyRecorder{repo: repo})

	return &App{
		cfg:      cfg,
		repo:     repo,
		sessions: sessions,
		ctrl:     ctrl,
	}, nil
}

// AwaitingInput implements router.Conversation.
func (a *App) AwaitingInput(userID int64) bool {
	return a.ctrl.AwaitingInput(userID)
}

// InputHandler implements router.Conversation.
func (a *App) InputHandler(c tele.Context) error {
	return a.handleTextInput(c)
}

// TelegramRunOptions builds the registry, routes and middleware chain.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Запустить бота",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Статистика бота",
		AdminOnly:   true,
		Hidden:      true,
	})

	cbs := map[string]tele.HandlerFunc{
		ui.CBAbout:        a.cbAbout,
		ui.CBHowTo:        a.cbHowTo,
		ui.CBFormatMP3:    a.cbChooseMP3,
		ui.CBFormatVideo:  a.cbChooseVideo,
		ui.CBBackToFormat: a.cbBackToFormat,
		ui.CBQuality:      a.cbQuality,
		ui.CBMetadataYes:  a.cbMetadataYes,
		ui.CBMetadataNo:   a.cbMetadataNo,
		ui.CBEditUploaded: a.cbEditUploaded,
		ui.CBCancel:       a.cbCancel,
	}
	for key, h := range cbs {
		if err := reg.RegisterCallback(key, h); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return newReplier(c).Notify(ui.TextSessionExpired)
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a, reg, router.MessageOptions{
		IsLink:          IsLink,
		LinkHandler:     a.handleLink,
		AudioHandler:    a.handleAudio,
		UnknownDocument: a.handleUnknownDocument,
	})...)

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, "⏳ Слишком много запросов, подождите немного.")
	}

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			return media.Install(ctx)
		},
	}, nil
}
