package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
)

const dictPageSize = 5

// StartDictAdd opens the two-step custom word dialog: first the word, then
// its translation.
func (f *Flows) StartDictAdd(ctx context.Context, ev Event) (*RenderInstruction, error) {
	f.homework.Delete(ev.UserID)
	p := &DictAddPayload{Step: DictAddStepWord}
	if err := f.sessions.Save(ctx, ev.UserID, StateDictAddCustom, p); err != nil {
		return nil, err
	}
	out := Render("Напишите слово на турецком, которое хотите добавить.")
	out.Row(Button{Label: "✖ Прервать", Token: ActionCancel})
	return out, nil
}

// DictAddText consumes typed messages while DICT_ADD_CUSTOM is active.
func (f *Flows) DictAddText(ctx context.Context, ev Event) (*RenderInstruction, error) {
	var p DictAddPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateDictAddCustom, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return Render("Сообщение пустое, попробуйте ещё раз."), nil
	}

	switch p.Step {
	case DictAddStepWord:
		p.Step = DictAddStepTranslation
		p.Word = text
		if err := f.sessions.Save(ctx, ev.UserID, StateDictAddCustom, &p); err != nil {
			return nil, err
		}
		return Render(fmt.Sprintf("Теперь напишите перевод слова «%s».", p.Word)), nil

	case DictAddStepTranslation:
		v := &models.Vocabulary{
			Word:        p.Word,
			Translation: text,
			OwnerID:     ev.UserID,
		}
		if err := f.vocab.CreateCustom(ctx, v); err != nil {
			return nil, err
		}
		if err := f.sessions.Clear(ctx, ev.UserID); err != nil {
			return nil, err
		}
		logger.DICT.Info("custom word added",
			slog.String("event", "dict.word.added"),
			slog.Int64("user_id", ev.UserID),
			slog.Int64("vocab_id", v.ID),
		)
		return Render(fmt.Sprintf("✅ Добавлено: %s — %s", v.Word, v.Translation)), nil

	default:
		// Unknown step means the payload predates the current code.
		// Reset rather than guess.
		if err := f.sessions.Clear(ctx, ev.UserID); err != nil {
			return nil, err
		}
		return Render("Диалог сброшен, начните заново: /add"), nil
	}
}

// StartDictSearch opens dictionary search; the next typed message is the
// query.
func (f *Flows) StartDictSearch(ctx context.Context, ev Event) (*RenderInstruction, error) {
	f.homework.Delete(ev.UserID)
	if err := f.sessions.Save(ctx, ev.UserID, StateDictSearch, &DictSearchPayload{}); err != nil {
		return nil, err
	}
	out := Render("Что ищем? Напишите слово или перевод.")
	out.Row(Button{Label: "✖ Прервать", Token: ActionCancel})
	return out, nil
}

// DictSearchText consumes the query message and shows the first result page.
func (f *Flows) DictSearchText(ctx context.Context, ev Event) (*RenderInstruction, error) {
	var p DictSearchPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateDictSearch, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	query := strings.TrimSpace(ev.Text)
	if query == "" {
		return Render("Запрос пустой, попробуйте ещё раз."), nil
	}

	p.Query = query
	p.Page = 0
	if err := f.sessions.Save(ctx, ev.UserID, StateDictSearch, &p); err != nil {
		return nil, err
	}
	return f.renderSearchPage(ctx, ev.UserID, &p, false)
}

// DictPage handles dict_page:<page>, flipping through the saved query.
func (f *Flows) DictPage(ctx context.Context, ev Event, t Token) (*RenderInstruction, error) {
	page, ok := t.Int(0)
	if !ok || page < 0 {
		return nil, nil
	}

	var p DictSearchPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateDictSearch, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	if p.Query == "" {
		return nil, nil
	}

	p.Page = page
	if err := f.sessions.Save(ctx, ev.UserID, StateDictSearch, &p); err != nil {
		return nil, err
	}
	return f.renderSearchPage(ctx, ev.UserID, &p, true)
}

func (f *Flows) renderSearchPage(ctx context.Context, userID int64, p *DictSearchPayload, edit bool) (*RenderInstruction, error) {
	words, total, err := f.vocab.Search(ctx, userID, p.Query, dictPageSize, p.Page*dictPageSize)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		if err := f.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return Render(fmt.Sprintf("По запросу «%s» ничего не найдено.", p.Query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 «%s»: найдено %d\n", p.Query, total)
	for _, w := range words {
		fmt.Fprintf(&b, "\n• %s — %s", w.Word, w.Translation)
		if w.Example != "" {
			fmt.Fprintf(&b, "\n  %s", w.Example)
		}
	}
	lastPage := (total - 1) / dictPageSize
	if lastPage > 0 {
		fmt.Fprintf(&b, "\n\nСтраница %d из %d", p.Page+1, lastPage+1)
	}

	out := Render(b.String())
	out.Edit = edit
	var nav []Button
	if p.Page > 0 {
		nav = append(nav, Button{Label: "⬅️", Token: EncodeTokenInts(ActionDictPage, int64(p.Page-1))})
	}
	if p.Page < lastPage {
		nav = append(nav, Button{Label: "➡️", Token: EncodeTokenInts(ActionDictPage, int64(p.Page+1))})
	}
	if len(nav) > 0 {
		out.Row(nav...)
	}
	out.Row(Button{Label: "✖ Завершить поиск", Token: ActionCancel})
	return out, nil
}
