package middleware

import (
	"strconv"

	"github.com/m3rciful/lingobot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Deduper answers whether an update key was seen recently. Telegram redelivers
// updates on slow acks, so a dropped duplicate is silent and returns no error.
type Deduper interface {
	ShouldProcess(key string) bool
}

// DedupMiddleware drops redelivered updates keyed by update id and sender.
func DedupMiddleware(d Deduper) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if d == nil {
				return next(c)
			}
			key := dedupKey(c)
			if key == "" {
				return next(c)
			}
			if !d.ShouldProcess(key) {
				logger.TG.Debug("duplicate update dropped",
					slog.String("event", "tg.dedup"),
					slog.String("payload", key),
				)
				return nil
			}
			return next(c)
		}
	}
}

func dedupKey(c tele.Context) string {
	upd := c.Update()
	if upd.ID == 0 {
		return ""
	}
	key := strconv.Itoa(upd.ID)
	if s := c.Sender(); s != nil {
		key += ":" + strconv.FormatInt(s.ID, 10)
	}
	return key
}
