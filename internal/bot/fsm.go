package bot

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
	"github.com/asagiri/subgate/internal/conversation"
)

// InProgress reports whether the sender has an active submission session.
// Part of the router FSM contract.
func (a *App) InProgress(userID int64) bool {
	return a.engine.InProgress(userID)
}

// ManagerHandler receives every update belonging to an in-progress session:
// attachments, free-form text, and slash commands typed mid-conversation.
func (a *App) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	if att, ok := attachmentFrom(c.Message()); ok {
		reply, err := a.engine.Attach(ctx, userID, att)
		return a.deliver(c, reply, err)
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return a.sessionCommand(c, commandName(text))
	}

	reply, err := a.engine.Text(ctx, userID, text)
	return a.deliver(c, reply, err)
}

// commandName strips arguments and the @botname suffix from command text.
func commandName(text string) string {
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// sessionCommand maps slash commands onto conversation events while a
// session is active.
func (a *App) sessionCommand(c tele.Context, cmd string) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	switch cmd {
	case "/done":
		reply, err := a.engine.Done(ctx, userID)
		return a.deliver(c, reply, err)
	case "/skip_media":
		reply, err := a.engine.SkipMedia(ctx, userID)
		return a.deliver(c, reply, err)
	case "/skip":
		reply, err := a.engine.Skip(ctx, userID)
		return a.deliver(c, reply, err)
	case "/skip_optional", "/skip_all":
		reply, err := a.engine.SkipOptional(ctx, userID)
		return a.deliver(c, reply, err)
	case "/cancel":
		reply, err := a.engine.Cancel(ctx, userID)
		return a.deliver(c, reply, err)
	case "/start":
		return tghelpers.SendText(c, "You already have a submission in progress. Use /cancel to discard it first.")
	default:
		return tghelpers.SendText(c, "That command is not available during a submission. Use /done, /skip or /cancel.")
	}
}

// deliver renders the engine's reply, or explains a recoverable error to the
// user. Domain errors carry user-presentable messages and stable codes; they
// are returned upward so handler summaries log the code.
func (a *App) deliver(c tele.Context, reply conversation.Reply, err error) error {
	if err == nil {
		return a.render(c, reply)
	}
	if coded, ok := codedError(err); ok {
		_ = tghelpers.SendText(c, coded.Error())
		return coded
	}
	_ = tghelpers.SendText(c, "Something went wrong, please try again.")
	return err
}

// codedError digs a coded domain error out of a wrap chain.
func codedError(err error) (interface {
	error
	Code() string
}, bool) {
	var coded interface {
		error
		Code() string
	}
	if errors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}
