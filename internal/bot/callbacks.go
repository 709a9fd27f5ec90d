package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
	"github.com/asagiri/subgate/internal/conversation"
	"github.com/asagiri/subgate/internal/submission"
)

// deliverEdit is deliver for callback handlers: successful replies edit the
// message the keyboard was attached to.
func (a *App) deliverEdit(c tele.Context, reply conversation.Reply, err error) error {
	if err == nil {
		return a.renderEdit(c, reply)
	}
	if coded, ok := codedError(err); ok {
		_ = tghelpers.SendText(c, coded.Error())
		return coded
	}
	_ = tghelpers.SendText(c, "Something went wrong, please try again.")
	return err
}

func (a *App) cbSelectMode(mode submission.Mode) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		reply, err := a.engine.SelectMode(ctx, c.Sender().ID, mode)
		return a.deliverEdit(c, reply, err)
	}
}

func (a *App) cbSpoiler(spoiler bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		reply, err := a.engine.Spoiler(ctx, c.Sender().ID, spoiler)
		return a.deliverEdit(c, reply, err)
	}
}

// cbConfirm runs the publish transaction. On failure the summary stays in
// place so the user can press publish again or discard.
func (a *App) cbConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.engine.Confirm(ctx, c.Sender().ID)
	return a.deliverEdit(c, reply, err)
}

func (a *App) cbCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.engine.Cancel(ctx, c.Sender().ID)
	return a.deliverEdit(c, reply, err)
}
