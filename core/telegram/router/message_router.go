package router

import (
	"time"

	tg "github.com/asagiri/subgate/core/telegram"
	"github.com/asagiri/subgate/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and attachment updates.
type TextOptions struct {
	UnknownText       tele.HandlerFunc
	UnknownAttachment tele.HandlerFunc
}

// TextRoutes builds handlers for text routing: in-progress conversations go
// to the FSM manager, bare command text is resolved through the registry,
// anything else falls through to the configured fallbacks.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}

// attachmentEndpoints lists the update kinds a submission session may carry.
var attachmentEndpoints = []string{
	tele.OnPhoto,
	tele.OnVideo,
	tele.OnAnimation,
	tele.OnAudio,
	tele.OnDocument,
}

// AttachmentRoutes builds handlers for media and document updates. Updates
// belonging to an in-progress conversation are dispatched to the FSM manager;
// stray attachments outside a session hit the fallback.
func AttachmentRoutes(fsmMgr FSM, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm_attachment", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}
		if opts.UnknownAttachment != nil {
			return handleWithSummary(c, "unexpected_attachment", start, "", "", func() error {
				return opts.UnknownAttachment(c)
			})
		}
		logHandlerSummary(c, "unexpected_attachment", start, "skip", "ok", nil)
		return nil
	}

	wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler))
	routes := make([]tg.Route, 0, len(attachmentEndpoints))
	for _, ep := range attachmentEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}
