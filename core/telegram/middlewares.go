package telegram

import (
	"strings"

	coreconfig "github.com/m3rciful/lingobot/core/config"
	"github.com/m3rciful/lingobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// GuardOptions carries the per-user protections injected by the application.
type GuardOptions struct {
	Deduper   middleware.Deduper
	Limiter   middleware.Limiter
	OnLimited func(tele.Context) error
}

// DefaultMiddlewares builds the shared middleware chain: panic recovery,
// duplicate-update drop, per-user rate limiting, then request logging and
// metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, guards GuardOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if guards.Deduper != nil {
		mws = append(mws, Middleware{
			Name: "dedup",
			Use:  middleware.DedupMiddleware(guards.Deduper),
		})
	}

	if guards.Limiter != nil {
		ex := map[string]struct{}{}
		if cfg != nil {
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
		}
		opts := middleware.RateLimitOptions{
			Limiter: guards.Limiter,
			Exclude: ex,
		}
		if guards.OnLimited != nil {
			opts.OnLimited = guards.OnLimited
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use:  middleware.RateLimitMiddleware(opts),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
