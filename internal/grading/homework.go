package grading

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
)

// feedbackLimit caps how many incorrect questions are spelled out in feedback.
const feedbackLimit = 3

// HomeworkReader loads homework reference data.
type HomeworkReader interface {
	HomeworkByID(ctx context.Context, id int64) (*models.Homework, error)
}

// SubmissionWriter appends graded submissions. Submissions are immutable:
// implementations must insert a new row per call.
type SubmissionWriter interface {
	CreateSubmission(ctx context.Context, sub *models.HomeworkSubmission) error
}

// Mistake pairs an incorrectly answered question with its canonical answer
// for user-facing feedback.
type Mistake struct {
	Question      string
	CorrectAnswer string
}

// GradeResult is the outcome of one homework attempt.
type GradeResult struct {
	Submission *models.HomeworkSubmission
	Mistakes   []Mistake
}

// Grader scores homework submissions with the Evaluator and persists them.
type Grader struct {
	homework    HomeworkReader
	submissions SubmissionWriter
	evaluator   *Evaluator
	now         func() time.Time
}

// NewGrader wires a Grader. now may be nil, in which case time.Now is used.
func NewGrader(hw HomeworkReader, subs SubmissionWriter, eval *Evaluator, now func() time.Time) *Grader {
	if eval == nil {
		eval = NewEvaluator()
	}
	if now == nil {
		now = time.Now
	}
	return &Grader{homework: hw, submissions: subs, evaluator: eval, now: now}
}

// Submit grades the answers against the homework's questions and appends an
// immutable submission row. A question without an answer counts as incorrect.
// The lesson-unlock decision is left to the caller, keyed on
// result.Submission.Perfect().
func (g *Grader) Submit(ctx context.Context, userID, homeworkID int64, answers map[int64]string) (*GradeResult, error) {
	hw, err := g.homework.HomeworkByID(ctx, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("load homework %d: %w", homeworkID, err)
	}

	score := 0
	var mistakes []Mistake
	for _, q := range hw.Questions {
		if g.evaluator.IsCorrect(q, answers[q.ID]) {
			score++
			continue
		}
		if len(mistakes) < feedbackLimit {
			mistakes = append(mistakes, Mistake{Question: q.QuestionText, CorrectAnswer: q.CorrectAnswer})
		}
	}

	sub := &models.HomeworkSubmission{
		UserID:      userID,
		HomeworkID:  homeworkID,
		Answers:     models.AnswerMap(answers),
		Score:       score,
		MaxScore:    len(hw.Questions),
		SubmittedAt: g.now(),
	}
	if err := g.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	logger.HW.Info("homework graded",
		slog.String("event", "homework.graded"),
		slog.Int64("user_id", userID),
		slog.Int64("homework_id", homeworkID),
		slog.Int("score", score),
		slog.Int("max_score", sub.MaxScore),
	)

	return &GradeResult{Submission: sub, Mistakes: mistakes}, nil
}
