package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/asagiri/subgate/core/telegram/helpers"
)

func (a *App) handleBan(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	fields := strings.Fields(c.Message().Payload)
	if len(fields) == 0 {
		return tghelpers.SendText(c, "Usage: /ban <user_id> [reason]")
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "Usage: /ban <user_id> [reason]")
	}
	reason := strings.Join(fields[1:], " ")
	if err := a.guard.Ban(ctx, userID, reason); err != nil {
		_ = tghelpers.SendText(c, "Ban failed.")
		return err
	}
	// An active session of a freshly banned user is torn down immediately.
	a.store.Remove(userID)
	return tghelpers.SendText(c, fmt.Sprintf("User %d is now blocked.", userID))
}

func (a *App) handleUnban(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	fields := strings.Fields(c.Message().Payload)
	if len(fields) != 1 {
		return tghelpers.SendText(c, "Usage: /unban <user_id>")
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "Usage: /unban <user_id>")
	}
	removed, err := a.guard.Unban(ctx, userID)
	if err != nil {
		_ = tghelpers.SendText(c, "Unban failed.")
		return err
	}
	if !removed {
		return tghelpers.SendText(c, fmt.Sprintf("User %d was not blocked.", userID))
	}
	return tghelpers.SendText(c, fmt.Sprintf("User %d is no longer blocked.", userID))
}

func (a *App) handleBanlist(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	entries, err := a.guard.List(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, "Could not load the list.")
		return err
	}
	if len(entries) == 0 {
		return tghelpers.SendText(c, "No blocked users.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Blocked users (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%d — %s (%s)\n", e.UserID, e.Reason, e.AddedAt.Format("2006-01-02"))
	}
	return tghelpers.SendText(c, b.String())
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	total, err := a.subs.CountAll(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, "Stats unavailable.")
		return err
	}
	today, err := a.subs.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		_ = tghelpers.SendText(c, "Stats unavailable.")
		return err
	}

	dbState := "ok"
	pingStart := time.Now()
	if err := a.db.PingContext(ctx); err != nil {
		dbState = "down"
	}
	ping := time.Since(pingStart).Round(time.Millisecond)

	text := fmt.Sprintf(
		"Active sessions: %d\nPublished total: %d\nPublished last 24h: %d\nDatabase: %s (%s)",
		a.store.Len(), total, today, dbState, ping,
	)
	return tghelpers.SendText(c, text)
}
