package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/reminders"
)

// telegramNotifier delivers due-review reminders over the running bot.
type telegramNotifier struct {
	bot *tele.Bot
}

var _ reminders.Notifier = (*telegramNotifier)(nil)

func (n *telegramNotifier) SendDueReminder(user models.User, count int) error {
	text := fmt.Sprintf("⏰ Пора повторить слова! Ждут повторения: %d.\nНачните сессию: /learn", count)
	_, err := n.bot.Send(&tele.User{ID: user.TelegramID}, text)
	return err
}
