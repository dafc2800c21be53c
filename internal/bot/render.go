package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lingobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lingobot/core/telegram/helpers"
	"github.com/m3rciful/lingobot/core/telegram/keyboard"
	"github.com/m3rciful/lingobot/internal/flow"
)

// Buttons travel as telebot unique+payload callbacks: the flow token's action
// becomes the unique and its parameters are joined with "|". Incoming
// callbacks are folded back into the colon form the dispatcher parses.

func callbackToken(c tele.Context) string {
	key := callbacks.CallbackKey(c)
	if key == "" {
		return ""
	}
	payload := callbacks.CallbackPayload(c)
	if payload == "" {
		return key
	}
	return key + ":" + strings.ReplaceAll(payload, "|", ":")
}

func buildMarkup(rows [][]flow.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	btnRows := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			t := flow.ParseToken(b.Token)
			r = append(r, keyboard.InlineBtn{
				Text:   b.Label,
				Unique: t.Action,
				Data:   strings.Join(t.Args, "|"),
			})
		}
		btnRows = append(btnRows, r)
	}
	return keyboard.InlineButtonsRows(btnRows...)
}

// deliver applies one render instruction to the chat. A nil instruction is a
// deliberate no-op from the dispatcher.
func (a *App) deliver(c tele.Context, instr *flow.RenderInstruction) error {
	if instr == nil {
		return nil
	}
	markup := buildMarkup(instr.Buttons)
	if instr.Edit && c.Callback() != nil {
		return c.EditOrSend(instr.Text, &tele.SendOptions{ReplyMarkup: markup})
	}
	if markup != nil {
		return tghelpers.SendText(c, instr.Text, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(c, instr.Text)
}
