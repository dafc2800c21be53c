package middleware

import (
	"github.com/m3rciful/lingobot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Limiter decides whether a user's update may proceed. Implementations are
// expected to record the attempt no matter what they answer.
type Limiter interface {
	Allow(userID int64) bool
}

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Limiter   Limiter
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware returns a middleware that drops updates the limiter
// rejects. Excluded update kinds bypass the limiter entirely.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Limiter == nil {
				return next(c)
			}

			if _, skip := opts.Exclude[updateKind(c)]; skip {
				return next(c)
			}

			if !opts.Limiter.Allow(user.ID) {
				chat := c.Chat()
				if chat != nil {
					logger.TG.Warn("rate limit",
						slog.String("event", "tg.rate_limit"),
						slog.Int64("chat_id", chat.ID),
						slog.Int64("user_id", user.ID),
					)
				} else {
					logger.TG.Warn("rate limit",
						slog.String("event", "tg.rate_limit"),
						slog.Int64("user_id", user.ID),
					)
				}
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}

			return next(c)
		}
	}
}

func updateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
