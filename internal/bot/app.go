// Package bot assembles the Telegram delivery layer: it wires repositories,
// flows, and the reminder job into the core bot runtime and translates
// telebot updates into flow events.
package bot

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/lingobot/core/telegram"
	"github.com/m3rciful/lingobot/core/telegram/commands"
	"github.com/m3rciful/lingobot/core/telegram/router"
	"github.com/m3rciful/lingobot/internal/config"
	"github.com/m3rciful/lingobot/internal/flow"
	"github.com/m3rciful/lingobot/internal/grading"
	"github.com/m3rciful/lingobot/internal/guard"
	"github.com/m3rciful/lingobot/internal/reminders"
	"github.com/m3rciful/lingobot/internal/srs"
	"github.com/m3rciful/lingobot/internal/storage"
)

// App is the composed bot application.
type App struct {
	cfg        *config.Config
	db         *sqlx.DB
	repos      *storage.Repositories
	scheduler  *srs.Scheduler
	flows      *flow.Flows
	dispatcher *flow.Dispatcher
	reminders  *reminders.Service
}

// New wires the application from configuration and an open database handle.
func New(cfg *config.Config, db *sqlx.DB) *App {
	repos := storage.New(db)
	sessions := flow.NewSessions(repos.States)
	scheduler := srs.NewScheduler(repos.Cards, nil)
	grader := grading.NewGrader(repos.Homework, repos.Submissions, nil, nil)

	flows := flow.New(flow.Config{
		Sessions:  sessions,
		Homework:  flow.NewMemorySessionIndex(),
		Vocab:     repos.Vocabulary,
		Users:     repos.Users,
		Lessons:   repos.Lessons,
		Homeworks: repos.Homework,
		Grader:    grader,
		Scheduler: scheduler,
	})

	d := flow.NewDispatcher(sessions)
	flows.Register(d)
	d.RegisterCommand("/lesson", flows.StartExercise)
	d.RegisterCommand("/learn", flows.StartLearn)
	d.RegisterCommand("/homework", flows.StartHomework)
	d.RegisterCommand("/dict", flows.StartDictSearch)
	d.RegisterCommand("/add", flows.StartDictAdd)

	return &App{
		cfg:        cfg,
		db:         db,
		repos:      repos,
		scheduler:  scheduler,
		flows:      flows,
		dispatcher: d,
	}
}

// TelegramRunOptions builds the core runtime options: registry, routes,
// middleware chain, and the reminder lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	reg.SetTextFallback(a.UnknownText())
	reg.SetCallbackNotFound(a.UnknownCallback())

	coreCfg := a.cfg.CoreConfig()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: coreCfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: a.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(&fsmAdapter{app: a}, reg, router.TextOptions{
		UnknownDocument: a.UnknownDocument(),
	})...)

	guards := coretelegram.GuardOptions{
		Deduper: guard.NewDeduplicator(time.Duration(a.cfg.Guard.DedupTTLSeconds) * time.Second),
		Limiter: guard.NewRateLimiter(time.Duration(coreCfg.RateLimit.IntervalMS) * time.Millisecond),
	}

	return coretelegram.RunOptions{
		Config:      coreCfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(coreCfg, guards),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Регистрация и текущий урок",
	})
	reg.RegisterCommand("/lesson", commands.Command{
		Handler:     a.flowCommand("/lesson"),
		Description: "Практика слов текущего урока",
	})
	reg.RegisterCommand("/learn", commands.Command{
		Handler:     a.flowCommand("/learn"),
		Description: "Изучение новых и повторение слов",
	})
	reg.RegisterCommand("/review", commands.Command{
		Handler:     a.handleReview,
		Description: "Сколько слов ждут повторения",
	})
	reg.RegisterCommand("/homework", commands.Command{
		Handler:     a.flowCommand("/homework"),
		Description: "Домашнее задание текущего урока",
		Aliases:     []string{"hw"},
	})
	reg.RegisterCommand("/dict", commands.Command{
		Handler:     a.flowCommand("/dict"),
		Description: "Поиск по словарю",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     a.flowCommand("/add"),
		Description: "Добавить своё слово в словарь",
	})
	reg.RegisterCommand("/progress", commands.Command{
		Handler:     a.handleProgress,
		Description: "Статистика обучения",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Сводка по боту",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp(reg),
		Description: "Список команд",
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	for _, action := range []string{
		flow.ActionExerciseAnswer,
		flow.ActionLearnAnswer,
		flow.ActionHomeworkAnswer,
		flow.ActionDictPage,
		flow.ActionCancel,
	} {
		_ = reg.RegisterCallback(action, a.flowCallback)
	}
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if !a.cfg.Reminders.Enabled {
		return nil
	}
	a.reminders = reminders.New(reminders.Config{
		Interval:  time.Duration(a.cfg.Reminders.IntervalMinutes) * time.Minute,
		StartHour: a.cfg.Reminders.StartHour,
		EndHour:   a.cfg.Reminders.EndHour,
	}, a.repos.Users, a.scheduler, &telegramNotifier{bot: rt.Bot}, nil)
	return a.reminders.Start()
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	if a.reminders != nil {
		a.reminders.Stop()
	}
	return nil
}

// fsmAdapter exposes the flow dispatcher to the message router. The router
// keys on the Telegram sender ID, so both methods resolve the internal user
// first.
type fsmAdapter struct {
	app *App
}

func (f *fsmAdapter) InProgress(telegramID int64) bool {
	ctx := context.Background()
	user, err := f.app.repos.Users.UserByTelegramID(ctx, telegramID)
	if err != nil {
		return false
	}
	return f.app.dispatcher.InProgress(ctx, user.ID)
}

func (f *fsmAdapter) ManagerHandler(c tele.Context) error {
	return f.app.handleFlowText(c)
}

var _ router.FSM = (*fsmAdapter)(nil)
