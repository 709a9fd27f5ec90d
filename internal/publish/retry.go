package publish

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/asagiri/subgate/core/logger"
	"github.com/asagiri/subgate/core/telegram/netutil"
)

// RetryOptions bounds the channel-post retry loop.
type RetryOptions struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetry is used when configuration leaves the retry knobs unset.
func DefaultRetry() RetryOptions {
	return RetryOptions{Attempts: 3, Backoff: time.Second, MaxBackoff: 30 * time.Second}
}

func (o RetryOptions) normalized() RetryOptions {
	def := DefaultRetry()
	if o.Attempts <= 0 {
		o.Attempts = def.Attempts
	}
	if o.Backoff <= 0 {
		o.Backoff = def.Backoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = def.MaxBackoff
	}
	return o
}

// transient reports whether the error is worth another attempt: network
// hiccups, flood-wait, or a Telegram 5xx. Anything else is permanent.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if netutil.ShouldRetry(err) {
		return true
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 500 {
		return true
	}
	return false
}

// retryDelay picks the wait before the next attempt: Telegram's own
// flood-wait hint when present, exponential backoff otherwise.
func retryDelay(err error, attempt int, opts RetryOptions) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	delay := opts.Backoff << (attempt - 1)
	if delay > opts.MaxBackoff {
		delay = opts.MaxBackoff
	}
	return delay
}

// withRetry runs fn until it succeeds, fails permanently, exhausts the
// attempt budget, or ctx is cancelled.
func withRetry(ctx context.Context, action string, opts RetryOptions, fn func() error) error {
	opts = opts.normalized()

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.SVCPublish.Info("post retry succeeded",
					slog.String("event", "publish.retry"),
					slog.String("action", action),
					slog.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err
		if !transient(err) || attempt == opts.Attempts {
			break
		}

		delay := retryDelay(err, attempt, opts)
		logger.SVCPublish.Warn("post attempt failed",
			slog.String("event", "publish.retry"),
			slog.String("action", action),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err", err.Error()),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
