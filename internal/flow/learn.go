package flow

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/grading"
	"github.com/m3rciful/lingobot/internal/models"
)

const (
	learnDueLimit    = 10
	learnNewLimit    = 5
	learnOptionCount = 4
)

var learnQuestionTypes = []LearnQuestionType{QuizRuToTr, QuizTrToRu, QuizChooseTr, QuizChooseRu}

// StartLearn begins a mixed review session: words due for repetition first,
// topped up with words the user has not seen yet.
func (f *Flows) StartLearn(ctx context.Context, ev Event) (*RenderInstruction, error) {
	pool, err := f.learnPool(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return Render("Сейчас нет слов для повторения. Загляните позже или добавьте свои: /add"), nil
	}

	p := &LearnPayload{Questions: f.buildLearnQuestions(pool)}
	f.homework.Delete(ev.UserID)
	if err := f.sessions.Save(ctx, ev.UserID, StateLearnWords, p); err != nil {
		return nil, err
	}

	logger.FLOW.Info("learn session started",
		slog.String("event", "flow.learn.start"),
		slog.Int64("user_id", ev.UserID),
		slog.Int("count", len(p.Questions)),
	)
	return f.renderLearnQuestion(p, ""), nil
}

// LearnAnswer handles learn_answer:<questionIndex>:<optionIndex>.
func (f *Flows) LearnAnswer(ctx context.Context, ev Event, t Token) (*RenderInstruction, error) {
	index, ok := t.Int(0)
	selected, ok2 := t.Int(1)
	if !ok || !ok2 {
		return nil, nil
	}

	var p LearnPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateLearnWords, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	if p.Done() {
		return f.completeLearn(ctx, ev.UserID, &p)
	}
	// A token for a question other than the current one is a stale tap.
	if index != p.Index {
		return nil, nil
	}
	q := p.Questions[p.Index]
	if selected < 0 || selected >= len(q.Options) {
		return nil, nil
	}

	correct := grading.Normalize(q.Options[selected]) == grading.Normalize(q.Answer)
	if _, err := f.scheduler.UpdateCard(ctx, ev.UserID, q.VocabularyID, correct); err != nil {
		return nil, err
	}

	feedback := "✅ Верно!"
	if correct {
		p.Correct++
	} else {
		feedback = fmt.Sprintf("❌ Неверно. Правильный ответ: %s", q.Answer)
	}

	p.Index++
	if p.Done() {
		out, err := f.completeLearn(ctx, ev.UserID, &p)
		if err != nil {
			return nil, err
		}
		out.Text = feedback + "\n\n" + out.Text
		return out, nil
	}
	if err := f.sessions.Save(ctx, ev.UserID, StateLearnWords, &p); err != nil {
		return nil, err
	}
	return f.renderLearnQuestion(&p, feedback), nil
}

func (f *Flows) completeLearn(ctx context.Context, userID int64, p *LearnPayload) (*RenderInstruction, error) {
	if err := f.sessions.Clear(ctx, userID); err != nil {
		return nil, err
	}
	logger.FLOW.Info("learn session completed",
		slog.String("event", "flow.learn.complete"),
		slog.Int64("user_id", userID),
		slog.Int("count", len(p.Questions)),
		slog.Int("score", p.Correct),
	)
	return RenderEdit(fmt.Sprintf("🎉 Сессия завершена: %d из %d правильно.", p.Correct, len(p.Questions))), nil
}

func (f *Flows) renderLearnQuestion(p *LearnPayload, feedback string) *RenderInstruction {
	q := p.Questions[p.Index]
	text := fmt.Sprintf("Вопрос %d из %d\n\n%s", p.Index+1, len(p.Questions), q.Text)
	if feedback != "" {
		text = feedback + "\n\n" + text
	}
	out := RenderEdit(text)
	for i, opt := range q.Options {
		out.Row(Button{
			Label: opt,
			Token: EncodeTokenInts(ActionLearnAnswer, int64(p.Index), int64(i)),
		})
	}
	out.Row(Button{Label: "✖ Прервать", Token: ActionCancel})
	return out
}

// learnPool collects the session vocabulary: due cards first, then new words.
func (f *Flows) learnPool(ctx context.Context, userID int64) ([]models.Vocabulary, error) {
	due, err := f.scheduler.DueCards(ctx, userID, learnDueLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(due))
	for _, c := range due {
		ids = append(ids, c.VocabularyID)
	}
	pool, err := f.vocab.VocabularyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	fresh, err := f.vocab.NewForUser(ctx, userID, learnNewLimit)
	if err != nil {
		return nil, err
	}
	return append(pool, fresh...), nil
}

func (f *Flows) buildLearnQuestions(pool []models.Vocabulary) []LearnQuestion {
	questions := make([]LearnQuestion, 0, len(pool))
	for _, w := range pool {
		qt := learnQuestionTypes[f.rng.Intn(len(learnQuestionTypes))]
		questions = append(questions, f.buildLearnQuestion(w, pool, qt))
	}
	f.rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	return questions
}

func (f *Flows) buildLearnQuestion(w models.Vocabulary, pool []models.Vocabulary, qt LearnQuestionType) LearnQuestion {
	var text, answer string
	pick := func(v models.Vocabulary) string { return v.Translation }

	switch qt {
	case QuizRuToTr:
		text = fmt.Sprintf("Как будет по-турецки «%s»?", w.Translation)
		answer = w.Word
		pick = func(v models.Vocabulary) string { return v.Word }
	case QuizChooseTr:
		text = fmt.Sprintf("Выберите слово со значением «%s»", w.Translation)
		answer = w.Word
		pick = func(v models.Vocabulary) string { return v.Word }
	case QuizChooseRu:
		text = fmt.Sprintf("Выберите значение слова «%s»", w.Word)
		answer = w.Translation
	default: // QuizTrToRu
		text = fmt.Sprintf("Как переводится «%s»?", w.Word)
		answer = w.Translation
	}

	options := []string{answer}
	for _, j := range f.rng.Perm(len(pool)) {
		if len(options) == learnOptionCount {
			break
		}
		candidate := pick(pool[j])
		if pool[j].ID == w.ID || candidate == answer {
			continue
		}
		options = append(options, candidate)
	}
	f.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return LearnQuestion{
		Type:         qt,
		Text:         text,
		Options:      options,
		Answer:       answer,
		VocabularyID: w.ID,
	}
}
