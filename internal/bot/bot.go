// Package bot assembles the submission bot: session store, blacklist guard,
// conversation engine and publisher, wired into the telegram runtime.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/core/config"
	"github.com/asagiri/subgate/core/logger"
	tg "github.com/asagiri/subgate/core/telegram"
	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
	"github.com/asagiri/subgate/core/telegram/router"
	"github.com/asagiri/subgate/internal/blacklist"
	"github.com/asagiri/subgate/internal/conversation"
	"github.com/asagiri/subgate/internal/publish"
	"github.com/asagiri/subgate/internal/session"
	"github.com/asagiri/subgate/internal/storage"
	"github.com/asagiri/subgate/internal/submission"
)

// App holds the application's long-lived components.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	store  *session.Store
	guard  *blacklist.Service
	subs   *storage.SubmissionRepo
	engine *conversation.Engine
	poster *lazyPoster
	reg    *tg.Registry
}

// New builds the application graph from configuration and an open database.
func New(cfg *config.Config, db *sqlx.DB) *App {
	sub := cfg.Submission
	limits := submission.Limits{
		Media:         sub.MediaLimit,
		Documents:     sub.DocumentLimit,
		AttachedMedia: sub.AttachedMediaLimit,
	}

	store := session.NewStore(time.Duration(sub.TimeoutSeconds) * time.Second)
	guard := blacklist.NewService(storage.NewBlacklistRepo(db))
	subs := storage.NewSubmissionRepo(db)

	poster := &lazyPoster{}
	channel, username := publish.ChannelRecipient(sub.ChannelID)
	pub := publish.NewService(poster, subs, publish.Options{
		Channel:         channel,
		ChannelUsername: username,
		ShowSubmitter:   sub.ShowSubmitter,
		OwnerID:         cfg.Telegram.AdminID,
		NotifyOwner:     sub.NotifyOwner,
		Retry:           publish.DefaultRetry(),
	})

	a := &App{
		cfg:    cfg,
		db:     db,
		store:  store,
		guard:  guard,
		subs:   subs,
		poster: poster,
		engine: conversation.NewEngine(store, guard, pub,
			conversation.Policy(sub.Mode), limits, sub.MaxTags),
	}
	a.reg = a.buildRegistry()
	return a
}

// RunOptions wires the app into the telegram runtime: middleware chain,
// command routes, conversation routing for text and attachments, callbacks,
// and the startup hook.
func (a *App) RunOptions() tg.RunOptions {
	fallbacks := router.TextOptions{
		UnknownText:       a.handleIdleText,
		UnknownAttachment: a.handleStrayAttachment,
	}

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, "This command is for the administrator.")
		},
	})
	routes = append(routes, router.TextRoutes(a, a.reg, fallbacks)...)
	routes = append(routes, router.AttachmentRoutes(a, fallbacks)...)
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
	}
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.poster.set(rt.Bot)

	if err := a.guard.Load(ctx); err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}

	interval := time.Duration(a.cfg.Submission.SweepIntervalSeconds) * time.Second
	go a.store.Run(ctx, interval, a.notifyExpired)
	return nil
}

// notifyExpired tells a user their idle session was swept. Best-effort.
func (a *App) notifyExpired(sess *session.Session) {
	_, err := a.poster.Send(tele.ChatID(sess.UserID),
		"Your submission timed out and was discarded. Send /start to begin again.")
	if err != nil {
		logger.TG.Warn("expiry notice failed",
			slog.String("event", "session.expire"),
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
	}
}
