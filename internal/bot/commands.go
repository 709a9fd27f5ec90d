package bot

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/asagiri/subgate/core/telegram"
	"github.com/asagiri/subgate/core/telegram/commands"
	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
	"github.com/asagiri/subgate/internal/submission"
)

func (a *App) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "start a new submission",
	})
	reg.RegisterCommand("/done", commands.Command{
		Handler:     a.sessionOnly("/done"),
		Description: "finish the current collection step",
	})
	reg.RegisterCommand("/skip", commands.Command{
		Handler:     a.sessionOnly("/skip"),
		Description: "skip the current optional field",
	})
	reg.RegisterCommand("/skip_media", commands.Command{
		Handler:     a.sessionOnly("/skip_media"),
		Description: "skip attached media for a file submission",
		Hidden:      true,
	})
	reg.RegisterCommand("/skip_optional", commands.Command{
		Handler:     a.sessionOnly("/skip_optional"),
		Description: "skip all remaining optional fields",
		Hidden:      true,
	})
	reg.RegisterCommand("/skip_all", commands.Command{
		Handler:     a.sessionOnly("/skip_all"),
		Description: "alias of /skip_optional",
		Hidden:      true,
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "discard the current submission",
	})

	reg.RegisterCommand("/ban", commands.Command{
		Handler:     a.handleBan,
		Description: "block a user from submitting",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/unban", commands.Command{
		Handler:     a.handleUnban,
		Description: "unblock a user",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/banlist", commands.Command{
		Handler:     a.handleBanlist,
		Description: "show blocked users",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "runtime and submission counters",
		AdminOnly:   true,
		Hidden:      true,
	})

	reg.SetTextFallback(a.handleIdleText)

	_ = reg.RegisterCallback(cbModeMedia, a.cbSelectMode(submission.ModeMedia))
	_ = reg.RegisterCallback(cbModeDocument, a.cbSelectMode(submission.ModeDocument))
	_ = reg.RegisterCallback(cbSpoilerYes, a.cbSpoiler(true))
	_ = reg.RegisterCallback(cbSpoilerNo, a.cbSpoiler(false))
	_ = reg.RegisterCallback(cbSubmitConfirm, a.cbConfirm)
	_ = reg.RegisterCallback(cbSubmitCancel, a.cbCancel)

	return reg
}

// handleStart opens a session. Everything after this first command flows
// through the conversation engine.
func (a *App) handleStart(c tele.Context) error {
	if a.InProgress(c.Sender().ID) {
		return a.sessionCommand(c, "/start")
	}
	ctx := tghelpers.BuildContext(c)
	username := c.Sender().Username
	reply, err := a.engine.Start(ctx, c.Sender().ID, username)
	return a.deliver(c, reply, err)
}

func (a *App) handleCancel(c tele.Context) error {
	if a.InProgress(c.Sender().ID) {
		return a.sessionCommand(c, "/cancel")
	}
	return tghelpers.SendText(c, "Nothing to cancel.")
}

// sessionOnly wires a command that is only meaningful inside a session.
// Telegram routes slash commands straight to their endpoint, bypassing the
// text router, so the session check happens here.
func (a *App) sessionOnly(cmd string) tele.HandlerFunc {
	return func(c tele.Context) error {
		if a.InProgress(c.Sender().ID) {
			return a.sessionCommand(c, cmd)
		}
		return tghelpers.SendText(c, "No active submission. Send /start to begin.")
	}
}

func (a *App) handleIdleText(c tele.Context) error {
	return tghelpers.SendText(c, "Send /start to begin a submission.")
}

func (a *App) handleStrayAttachment(c tele.Context) error {
	return tghelpers.SendText(c, "Send /start first, then your files.")
}
