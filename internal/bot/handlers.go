package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lingobot/core/logger"
	coretelegram "github.com/m3rciful/lingobot/core/telegram"
	tghelpers "github.com/m3rciful/lingobot/core/telegram/helpers"
	"github.com/m3rciful/lingobot/core/telegram/ui"
	"github.com/m3rciful/lingobot/internal/flow"
	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/srs"
	"github.com/m3rciful/lingobot/internal/storage"
)

const msgStartFirst = "Сначала зарегистрируйтесь: /start"

var _ ui.FallbackProvider = (*App)(nil)

// errNoUser marks updates from senders that never ran /start.
var errNoUser = errors.New("bot: unknown user")

// resolveUser maps the Telegram sender onto the internal user row.
func (a *App) resolveUser(ctx context.Context, c tele.Context) (*models.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, errNoUser
	}
	user, err := tghelpers.CurrentUser[*models.User](ctx, a.repos.Users, sender.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoUser
	}
	return user, err
}

// eventFor builds a transport-free flow event for the current update.
func (a *App) eventFor(ctx context.Context, c tele.Context) (flow.Event, error) {
	user, err := a.resolveUser(ctx, c)
	if err != nil {
		return flow.Event{}, err
	}
	ev := flow.Event{
		UserID:   user.ID,
		UpdateID: c.Update().ID,
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	if msg := c.Message(); msg != nil {
		ev.MessageID = msg.ID
	}
	return ev, nil
}

// flowCommand adapts a dispatcher-routed command to a telebot handler.
func (a *App) flowCommand(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		ev, err := a.eventFor(ctx, c)
		if errors.Is(err, errNoUser) {
			return tghelpers.SendText(c, msgStartFirst)
		}
		if err != nil {
			return err
		}
		ev.Command = name
		instr, err := a.dispatcher.Handle(ctx, ev)
		if err != nil {
			return err
		}
		return a.deliver(c, instr)
	}
}

// flowCallback routes button presses into the dispatcher. The callback wire
// format is telebot's unique+payload pair; it is folded back into a flow
// token here.
func (a *App) flowCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	ev, err := a.eventFor(ctx, c)
	if errors.Is(err, errNoUser) {
		return c.Respond(&tele.CallbackResponse{Text: msgStartFirst})
	}
	if err != nil {
		return err
	}
	ev.Token = callbackToken(c)
	instr, err := a.dispatcher.Handle(ctx, ev)
	if err != nil {
		return err
	}
	return a.deliver(c, instr)
}

// handleFlowText feeds free text into whatever flow is active.
func (a *App) handleFlowText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev, err := a.eventFor(ctx, c)
	if errors.Is(err, errNoUser) {
		return tghelpers.SendText(c, msgStartFirst)
	}
	if err != nil {
		return err
	}
	ev.Text = strings.TrimSpace(c.Text())
	instr, err := a.dispatcher.Handle(ctx, ev)
	if err != nil {
		return err
	}
	return a.deliver(c, instr)
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	first, err := a.repos.Lessons.FirstLesson(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendText(c, "Курс ещё не загружен. Попробуйте позже.")
	}
	if err != nil {
		return err
	}

	user, err := a.repos.Users.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, first.ID)
	if err != nil {
		return err
	}
	lesson, err := a.repos.Lessons.LessonByID(ctx, user.CurrentLessonID)
	if err != nil {
		return err
	}

	logger.TG.Info("user started",
		slog.String("event", "user.start"),
		slog.Int64("user_id", user.ID),
		slog.Int64("lesson_id", lesson.ID),
	)

	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = "друг"
	}
	text := fmt.Sprintf(
		"Merhaba, %s! 🇹🇷\n\nЭто бот для изучения турецкого языка.\nВаш текущий урок: «%s».\n\n"+
			"/lesson — практика слов урока\n"+
			"/learn — изучение и повторение\n"+
			"/homework — домашнее задание\n"+
			"/dict — поиск по словарю\n"+
			"/add — своё слово\n"+
			"/progress — статистика",
		name, lesson.Title)
	return tghelpers.SendText(c, text)
}

func (a *App) handleReview(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.resolveUser(ctx, c)
	if errors.Is(err, errNoUser) {
		return tghelpers.SendText(c, msgStartFirst)
	}
	if err != nil {
		return err
	}

	due, err := a.scheduler.DueCount(ctx, user.ID)
	if err != nil {
		return err
	}
	if due == 0 {
		return tghelpers.SendText(c, "Сейчас нечего повторять. Загляните позже или изучите новые слова: /learn")
	}
	return tghelpers.SendText(c, fmt.Sprintf("⏰ Ждут повторения: %d. Начните сессию: /learn", due))
}

func (a *App) handleProgress(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user, err := a.resolveUser(ctx, c)
	if errors.Is(err, errNoUser) {
		return tghelpers.SendText(c, msgStartFirst)
	}
	if err != nil {
		return err
	}

	stats, err := a.repos.Cards.Stats(ctx, user.ID, srs.MaxStage)
	if err != nil {
		return err
	}
	due, err := a.scheduler.DueCount(ctx, user.ID)
	if err != nil {
		return err
	}
	lesson, err := a.repos.Lessons.LessonByID(ctx, user.CurrentLessonID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Ваш прогресс\n\n")
	fmt.Fprintf(&b, "Текущий урок: «%s»\n", lesson.Title)
	fmt.Fprintf(&b, "Слов в изучении: %d\n", stats.Total)
	fmt.Fprintf(&b, "Выучено: %d\n", stats.Learned)
	if stats.Attempts > 0 {
		fmt.Fprintf(&b, "Точность ответов: %d%%\n", stats.Correct*100/stats.Attempts)
	}
	fmt.Fprintf(&b, "Ждут повторения: %d", due)
	return tghelpers.SendText(c, b.String())
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	users, err := a.repos.Users.ActiveUsers(ctx)
	if err != nil {
		return err
	}
	lessons, err := a.repos.Lessons.Lessons(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Учеников: %d\nУроков в курсе: %d", len(users), len(lessons)))
}

func (a *App) handleHelp(reg *coretelegram.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		var b strings.Builder
		b.WriteString("Команды бота:\n")
		for _, cmd := range reg.ListCommands(true) {
			fmt.Fprintf(&b, "\n%s — %s", cmd.Text, cmd.Description)
		}
		return tghelpers.SendText(c, b.String())
	}
}

// Fallbacks for updates that matched neither a flow nor a command.

func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Не понимаю. Посмотрите список команд: /help")
	}
}

func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Файлы здесь не принимаются. Посмотрите список команд: /help")
	}
}

func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Эта кнопка устарела."})
	}
}
