// Package reminders runs the periodic job that pings users about review
// cards that came due.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/srs"
)

// UserLister enumerates users eligible for reminders.
type UserLister interface {
	ActiveUsers(ctx context.Context) ([]models.User, error)
}

// Notifier delivers one reminder. count is how many cards are due.
type Notifier interface {
	SendDueReminder(user models.User, count int) error
}

// Config tunes the job cadence and the allowed local-time window.
type Config struct {
	Interval  time.Duration
	StartHour int
	EndHour   int
}

// Service owns the gocron scheduler and the reminder pass.
type Service struct {
	cfg       Config
	users     UserLister
	scheduler *srs.Scheduler
	notifier  Notifier
	cron      *gocron.Scheduler
	now       func() time.Time
}

// New wires a reminder service. now may be nil, in which case time.Now is used.
func New(cfg Config, users UserLister, scheduler *srs.Scheduler, notifier Notifier, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		cfg:       cfg,
		users:     users,
		scheduler: scheduler,
		notifier:  notifier,
		cron:      gocron.NewScheduler(time.Local),
		now:       now,
	}
}

// Start schedules the periodic pass and runs the scheduler in the background.
func (s *Service) Start() error {
	if _, err := s.cron.Every(s.cfg.Interval).Do(s.runPass); err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}
	s.cron.StartAsync()
	logger.SCHED.Info("reminder job scheduled",
		slog.String("event", "sched.start"),
		slog.Duration("duration", s.cfg.Interval),
	)
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (s *Service) Stop() {
	s.cron.Stop()
}

func (s *Service) runPass() {
	hour := s.now().Hour()
	if hour < s.cfg.StartHour || hour >= s.cfg.EndHour {
		logger.SCHED.Debug("outside reminder window",
			slog.String("event", "sched.skip"),
			slog.Int("hour", hour),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users, err := s.users.ActiveUsers(ctx)
	if err != nil {
		logger.SCHED.Error("user listing failed",
			slog.String("event", "sched.pass"),
			slog.String("err", err.Error()),
		)
		return
	}

	sent := 0
	for _, u := range users {
		count, err := s.scheduler.DueCount(ctx, u.ID)
		if err != nil {
			logger.SCHED.Warn("due count failed",
				slog.String("event", "sched.pass"),
				slog.Int64("user_id", u.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendDueReminder(u, count); err != nil {
			logger.SCHED.Warn("reminder send failed",
				slog.String("event", "sched.send"),
				slog.Int64("user_id", u.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		sent++
	}

	logger.SCHED.Info("reminder pass done",
		slog.String("event", "sched.pass"),
		slog.Int("count", sent),
	)
}

// RunOnce forces a reminder check for one user, used by admin tooling.
func (s *Service) RunOnce(ctx context.Context, user models.User) error {
	count, err := s.scheduler.DueCount(ctx, user.ID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return s.notifier.SendDueReminder(user, count)
}
