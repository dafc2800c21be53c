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

// StartHomework begins the homework of the user's current lesson. Draft
// answers live in the ephemeral session index; only the position survives a
// restart, so a lost session means starting over.
func (f *Flows) StartHomework(ctx context.Context, ev Event) (*RenderInstruction, error) {
	user, err := f.users.UserByID(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	hw, err := f.homeworks.HomeworkByLesson(ctx, user.CurrentLessonID)
	if err != nil {
		return Render("Для текущего урока нет домашнего задания."), nil
	}
	if len(hw.Questions) == 0 {
		return Render("В этом задании пока нет вопросов."), nil
	}

	p := &HomeworkPayload{HomeworkID: hw.ID}
	f.homework.Put(ev.UserID, &HomeworkSession{
		HomeworkID: hw.ID,
		Answers:    make(map[int64]string),
	})
	if err := f.sessions.Save(ctx, ev.UserID, StateHomeworkText, p); err != nil {
		return nil, err
	}

	logger.FLOW.Info("homework started",
		slog.String("event", "flow.homework.start"),
		slog.Int64("user_id", ev.UserID),
		slog.Int64("homework_id", hw.ID),
		slog.Int("count", len(hw.Questions)),
	)
	return f.renderHomeworkQuestion(ev.UserID, hw, p, ""), nil
}

// HomeworkAnswer handles hw_answer:<homeworkID>:<questionID>:<optionIndex>,
// the multiple-choice leg of the homework dialog.
func (f *Flows) HomeworkAnswer(ctx context.Context, ev Event, t Token) (*RenderInstruction, error) {
	homeworkID, ok := t.Int64(0)
	questionID, ok2 := t.Int64(1)
	selected, ok3 := t.Int(2)
	if !ok || !ok2 || !ok3 {
		return nil, nil
	}

	var p HomeworkPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateHomeworkText, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	if p.HomeworkID != homeworkID {
		return nil, nil
	}
	hw, err := f.homeworks.HomeworkByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if p.Index >= len(hw.Questions) {
		return f.submitHomework(ctx, ev.UserID, hw)
	}
	q := hw.Questions[p.Index]
	if q.ID != questionID || q.QuestionType != models.QuestionMultipleChoice {
		return nil, nil
	}
	if selected < 0 || selected >= len(q.Options) {
		return nil, nil
	}

	return f.recordHomeworkAnswer(ctx, ev.UserID, hw, &p, q.ID, q.Options[selected])
}

// HomeworkText consumes a typed message while HOMEWORK_TEXT is active, the
// free-text leg of the homework dialog.
func (f *Flows) HomeworkText(ctx context.Context, ev Event) (*RenderInstruction, error) {
	var p HomeworkPayload
	if err := f.sessions.Load(ctx, ev.UserID, StateHomeworkText, &p); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	hw, err := f.homeworks.HomeworkByID(ctx, p.HomeworkID)
	if err != nil {
		return nil, err
	}
	if p.Index >= len(hw.Questions) {
		return f.submitHomework(ctx, ev.UserID, hw)
	}
	q := hw.Questions[p.Index]
	if !q.QuestionType.FreeText() {
		return Render("Выберите вариант ответа кнопкой под вопросом."), nil
	}
	answer := strings.TrimSpace(ev.Text)
	if answer == "" {
		return Render("Ответ пустой, попробуйте ещё раз."), nil
	}

	return f.recordHomeworkAnswer(ctx, ev.UserID, hw, &p, q.ID, answer)
}

func (f *Flows) recordHomeworkAnswer(ctx context.Context, userID int64, hw *models.Homework, p *HomeworkPayload, questionID int64, answer string) (*RenderInstruction, error) {
	s, ok := f.homework.Get(userID)
	if !ok || s.HomeworkID != hw.ID {
		// The draft was lost, e.g. to a restart. Drop the state too and
		// ask the user to start over rather than grade a partial map.
		f.homework.Delete(userID)
		if err := f.sessions.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return Render("Сессия прервана, начните заново: /homework"), nil
	}
	s.Answers[questionID] = answer
	f.homework.Put(userID, s)

	p.Index++
	if p.Index >= len(hw.Questions) {
		return f.submitHomework(ctx, userID, hw)
	}
	if err := f.sessions.Save(ctx, userID, StateHomeworkText, p); err != nil {
		return nil, err
	}
	return f.renderHomeworkQuestion(userID, hw, p, "Принято."), nil
}

// submitHomework grades the collected answers, clears both session layers and
// advances the user to the next lesson on a perfect score.
func (f *Flows) submitHomework(ctx context.Context, userID int64, hw *models.Homework) (*RenderInstruction, error) {
	s, ok := f.homework.Get(userID)
	answers := map[int64]string{}
	if ok && s.HomeworkID == hw.ID {
		answers = s.Answers
	}
	f.homework.Delete(userID)
	if err := f.sessions.Clear(ctx, userID); err != nil {
		return nil, err
	}

	result, err := f.grader.Submit(ctx, userID, hw.ID, answers)
	if err != nil {
		return nil, err
	}
	sub := result.Submission

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Результат: %d из %d.", sub.Score, sub.MaxScore)
	for _, m := range result.Mistakes {
		fmt.Fprintf(&b, "\n• %s\n  Правильный ответ: %s", m.Question, m.CorrectAnswer)
	}

	if sub.Perfect() {
		next, err := f.lessons.NextLesson(ctx, hw.LessonID)
		if err != nil {
			return nil, err
		}
		if next != nil {
			if err := f.users.SetCurrentLesson(ctx, userID, next.ID); err != nil {
				return nil, err
			}
			logger.FLOW.Info("lesson unlocked",
				slog.String("event", "flow.lesson.unlocked"),
				slog.Int64("user_id", userID),
				slog.Int64("lesson_id", next.ID),
			)
			fmt.Fprintf(&b, "\n\n🏆 Отлично! Открыт следующий урок: «%s». Начните практику: /lesson", next.Title)
		} else {
			b.WriteString("\n\n🏆 Отлично! Вы прошли все уроки курса.")
		}
	} else {
		b.WriteString("\n\nМожно пересдать: /homework")
	}
	return Render(b.String()), nil
}

func (f *Flows) renderHomeworkQuestion(userID int64, hw *models.Homework, p *HomeworkPayload, feedback string) *RenderInstruction {
	q := hw.Questions[p.Index]
	text := fmt.Sprintf("Вопрос %d из %d\n\n%s", p.Index+1, len(hw.Questions), q.QuestionText)
	if q.QuestionType.FreeText() {
		text += "\n\nНапишите ответ сообщением."
	}
	if feedback != "" {
		text = feedback + "\n\n" + text
	}

	if s, ok := f.homework.Get(userID); ok && s.HomeworkID == hw.ID {
		s.QuestionID = q.ID
		f.homework.Put(userID, s)
	}

	out := Render(text)
	if q.QuestionType == models.QuestionMultipleChoice {
		for i, opt := range q.Options {
			out.Row(Button{
				Label: opt,
				Token: EncodeTokenInts(ActionHomeworkAnswer, hw.ID, q.ID, int64(i)),
			})
		}
	}
	out.Row(Button{Label: "✖ Прервать", Token: ActionCancel})
	return out
}
