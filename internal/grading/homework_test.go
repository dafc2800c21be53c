package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/lingobot/internal/models"
)

type fakeHomeworkStore struct {
	homework map[int64]*models.Homework
}

func (s *fakeHomeworkStore) HomeworkByID(_ context.Context, id int64) (*models.Homework, error) {
	hw, ok := s.homework[id]
	if !ok {
		return nil, errNotFound
	}
	return hw, nil
}

var errNotFound = errors.New("not found")

type fakeSubmissionStore struct {
	rows []models.HomeworkSubmission
}

func (s *fakeSubmissionStore) CreateSubmission(_ context.Context, sub *models.HomeworkSubmission) error {
	sub.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, *sub)
	return nil
}

func testHomework() *models.Homework {
	return &models.Homework{
		ID:       10,
		LessonID: 5,
		Questions: []models.HomeworkQuestion{
			{ID: 1, QuestionType: models.QuestionMultipleChoice, QuestionText: "спасибо?", CorrectAnswer: "teşekkürler"},
			{ID: 2, QuestionType: models.QuestionTranslation, QuestionText: "Переведите: доброе утро", CorrectAnswer: "günaydın"},
		},
	}
}

func newTestGrader(t *testing.T) (*Grader, *fakeSubmissionStore) {
	t.Helper()
	subs := &fakeSubmissionStore{}
	hw := &fakeHomeworkStore{homework: map[int64]*models.Homework{10: testHomework()}}
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return NewGrader(hw, subs, NewEvaluator(), func() time.Time { return fixed }), subs
}

func TestSubmitPerfectScore(t *testing.T) {
	g, subs := newTestGrader(t)

	res, err := g.Submit(context.Background(), 7, 10, map[int64]string{
		1: "teşekkürler",
		2: "Günaydın!",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Submission.Score != 2 || res.Submission.MaxScore != 2 {
		t.Fatalf("score = %d/%d, want 2/2", res.Submission.Score, res.Submission.MaxScore)
	}
	if !res.Submission.Perfect() {
		t.Fatal("Perfect() must be true for a full score")
	}
	if len(res.Mistakes) != 0 {
		t.Fatalf("mistakes = %d, want 0", len(res.Mistakes))
	}
	if len(subs.rows) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs.rows))
	}
}

func TestSubmitMissingAnswerIncorrect(t *testing.T) {
	g, _ := newTestGrader(t)

	res, err := g.Submit(context.Background(), 7, 10, map[int64]string{1: "teşekkürler"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Submission.Score != 1 {
		t.Fatalf("score = %d, want 1", res.Submission.Score)
	}
	if res.Submission.Perfect() {
		t.Fatal("partial score must not be perfect")
	}
	if len(res.Mistakes) != 1 || res.Mistakes[0].CorrectAnswer != "günaydın" {
		t.Fatalf("unexpected mistakes: %+v", res.Mistakes)
	}
}

func TestSubmitResubmissionAppends(t *testing.T) {
	g, subs := newTestGrader(t)

	first, err := g.Submit(context.Background(), 7, 10, map[int64]string{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first.Submission.Score != 0 {
		t.Fatalf("score = %d, want 0", first.Submission.Score)
	}

	second, err := g.Submit(context.Background(), 7, 10, map[int64]string{1: "teşekkürler", 2: "günaydın"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(subs.rows) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs.rows))
	}
	if subs.rows[0].Score != 0 || subs.rows[1].Score != 2 {
		t.Fatalf("prior submission mutated: %+v", subs.rows)
	}
	if second.Submission.ID == first.Submission.ID {
		t.Fatal("resubmission must create a distinct row")
	}
}

func TestSubmitFeedbackTruncated(t *testing.T) {
	subs := &fakeSubmissionStore{}
	hw := &models.Homework{ID: 11}
	for i := int64(1); i <= 5; i++ {
		hw.Questions = append(hw.Questions, models.HomeworkQuestion{
			ID:            i,
			QuestionType:  models.QuestionTextInput,
			QuestionText:  "q",
			CorrectAnswer: "cevap",
		})
	}
	g := NewGrader(&fakeHomeworkStore{homework: map[int64]*models.Homework{11: hw}}, subs, nil, nil)

	res, err := g.Submit(context.Background(), 7, 11, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.Mistakes) != 3 {
		t.Fatalf("mistakes = %d, want 3 (truncated)", len(res.Mistakes))
	}
}

func TestSubmitHomeworkNotFound(t *testing.T) {
	g, _ := newTestGrader(t)
	if _, err := g.Submit(context.Background(), 7, 999, nil); !errors.Is(err, errNotFound) {
		t.Fatalf("err = %v, want wrapped not-found", err)
	}
}
