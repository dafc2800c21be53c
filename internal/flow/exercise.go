package flow

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
)

const exerciseOptionCount = 4

// StartExercise begins lesson practice over the user's current lesson. Any
// flow that was active before is replaced.
func (f *Flows) StartExercise(ctx context.Context, ev Event) (*RenderInstruction, error) {
	user, err := f.users.UserByID(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	lesson, err := f.lessons.LessonByID(ctx, user.CurrentLessonID)
	if err != nil {
		return Render("Урок не найден. Обратитесь к преподавателю."), nil
	}
	words, err := f.vocab.LessonVocabulary(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return Render("В этом уроке пока нет слов для практики."), nil
	}

	p := &ExercisePayload{
		LessonID: lesson.ID,
		Items:    f.buildExerciseItems(words),
	}
	f.homework.Delete(ev.UserID)
	if err := f.sessions.Save(ctx, ev.UserID, StateExercise, p); err != nil {
		return nil, err
	}

	logger.FLOW.Info("exercise started",
		slog.String("event", "flow.exercise.start"),
		slog.Int64("user_id", ev.UserID),
		slog.Int64("lesson_id", lesson.ID),
		slog.Int("count", len(p.Items)),
	)
	return f.renderExerciseQuestion(p, ""), nil
}

// ExerciseAnswer handles exercise_answer:<lessonID>:<vocabID>:<selectedIndex>.
// Stale or mismatched callbacks are a no-op.
func (f *Flows) ExerciseAnswer(ctx context.Context, ev Event, t Token) (*RenderInstruction, error) {
	lessonID, ok := t.Int64(0)
	vocabID, ok2 := t.Int64(1)
	selected, ok3 := t.Int(2)
	if !ok || !ok2 || !ok3 {
		return nil, nil
	}

	var p ExercisePayload
	if err := f.sessions.Load(ctx, ev.UserID, StateExercise, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	if p.LessonID != lessonID {
		return nil, nil
	}
	if p.Done() {
		return f.completeExercise(ctx, ev.UserID, &p)
	}
	item := p.Items[p.Index]
	if item.VocabularyID != vocabID || selected < 0 || selected >= len(item.Options) {
		return nil, nil
	}

	correct := selected == item.Correct
	if _, err := f.scheduler.UpdateCard(ctx, ev.UserID, item.VocabularyID, correct); err != nil {
		return nil, err
	}

	feedback := "✅ Верно!"
	if !correct {
		feedback = fmt.Sprintf("❌ Неверно. Правильный ответ: %s", item.Options[item.Correct])
	}
	if item.Explanation != "" {
		feedback += "\n💡 " + item.Explanation
	}

	p.Index++
	if p.Done() {
		out, err := f.completeExercise(ctx, ev.UserID, &p)
		if err != nil {
			return nil, err
		}
		out.Text = feedback + "\n\n" + out.Text
		return out, nil
	}
	if err := f.sessions.Save(ctx, ev.UserID, StateExercise, &p); err != nil {
		return nil, err
	}
	return f.renderExerciseQuestion(&p, feedback), nil
}

func (f *Flows) completeExercise(ctx context.Context, userID int64, p *ExercisePayload) (*RenderInstruction, error) {
	if err := f.sessions.Clear(ctx, userID); err != nil {
		return nil, err
	}
	logger.FLOW.Info("exercise completed",
		slog.String("event", "flow.exercise.complete"),
		slog.Int64("user_id", userID),
		slog.Int64("lesson_id", p.LessonID),
		slog.Int("count", len(p.Items)),
	)
	return RenderEdit(fmt.Sprintf(
		"🎉 Практика завершена: %d слов.\nТеперь можно сдать домашнее задание: /homework", len(p.Items),
	)), nil
}

func (f *Flows) renderExerciseQuestion(p *ExercisePayload, feedback string) *RenderInstruction {
	item := p.Items[p.Index]
	text := fmt.Sprintf("Вопрос %d из %d\n\n%s", p.Index+1, len(p.Items), item.Question)
	if feedback != "" {
		text = feedback + "\n\n" + text
	}
	out := RenderEdit(text)
	for i, opt := range item.Options {
		out.Row(Button{
			Label: opt,
			Token: EncodeTokenInts(ActionExerciseAnswer, p.LessonID, item.VocabularyID, int64(i)),
		})
	}
	out.Row(Button{Label: "✖ Прервать", Token: ActionCancel})
	return out
}

// buildExerciseItems fixes the full exercise sequence at session start:
// one multiple-choice question per word, distractors drawn from the same
// lesson.
func (f *Flows) buildExerciseItems(words []models.Vocabulary) []ExerciseItem {
	items := make([]ExerciseItem, 0, len(words))
	for _, w := range words {
		options := []string{w.Translation}
		for _, j := range f.rng.Perm(len(words)) {
			if len(options) == exerciseOptionCount {
				break
			}
			if words[j].ID == w.ID || words[j].Translation == w.Translation {
				continue
			}
			options = append(options, words[j].Translation)
		}
		f.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

		correct := 0
		for i, opt := range options {
			if opt == w.Translation {
				correct = i
				break
			}
		}
		items = append(items, ExerciseItem{
			VocabularyID: w.ID,
			Question:     fmt.Sprintf("Как переводится «%s»?", w.Word),
			Options:      options,
			Correct:      correct,
			Explanation:  w.Example,
		})
	}
	return items
}
