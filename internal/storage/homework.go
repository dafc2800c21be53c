package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/models"
)

// HomeworkRepo loads homework reference data.
type HomeworkRepo struct {
	db *sqlx.DB
}

// HomeworkByID loads a homework with its questions in position order.
func (r *HomeworkRepo) HomeworkByID(ctx context.Context, id int64) (*models.Homework, error) {
	var hw models.Homework
	if err := getContext(ctx, r.db, &hw, `SELECT * FROM homeworks WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("load homework %d: %w", id, err)
	}
	if err := r.attachQuestions(ctx, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

// HomeworkByLesson loads the homework attached to a lesson.
func (r *HomeworkRepo) HomeworkByLesson(ctx context.Context, lessonID int64) (*models.Homework, error) {
	var hw models.Homework
	err := getContext(ctx, r.db, &hw, `SELECT * FROM homeworks WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load homework for lesson %d: %w", lessonID, err)
	}
	if err := r.attachQuestions(ctx, &hw); err != nil {
		return nil, err
	}
	return &hw, nil
}

func (r *HomeworkRepo) attachQuestions(ctx context.Context, hw *models.Homework) error {
	err := selectContext(ctx, r.db, &hw.Questions,
		`SELECT * FROM homework_questions WHERE homework_id = ? ORDER BY position`, hw.ID)
	if err != nil {
		return fmt.Errorf("load questions for homework %d: %w", hw.ID, err)
	}
	return nil
}

// SubmissionRepo appends graded homework attempts. Rows are immutable.
type SubmissionRepo struct {
	db *sqlx.DB
}

// CreateSubmission appends one attempt and fills in its id.
func (r *SubmissionRepo) CreateSubmission(ctx context.Context, sub *models.HomeworkSubmission) error {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO homework_submissions (user_id, homework_id, answers, score, max_score, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.UserID, sub.HomeworkID, sub.Answers, sub.Score, sub.MaxScore, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	sub.ID = id
	return nil
}

// SubmissionsByUser lists a user's attempts for one homework, newest first.
func (r *SubmissionRepo) SubmissionsByUser(ctx context.Context, userID, homeworkID int64) ([]models.HomeworkSubmission, error) {
	var out []models.HomeworkSubmission
	err := selectContext(ctx, r.db, &out,
		`SELECT * FROM homework_submissions
		  WHERE user_id = ? AND homework_id = ?
		  ORDER BY submitted_at DESC, id DESC`,
		userID, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// BestScore returns the user's best score for a homework and false when they
// never attempted it.
func (r *SubmissionRepo) BestScore(ctx context.Context, userID, homeworkID int64) (int, bool, error) {
	var best []int
	err := selectContext(ctx, r.db, &best,
		`SELECT score FROM homework_submissions
		  WHERE user_id = ? AND homework_id = ?
		  ORDER BY score DESC LIMIT 1`,
		userID, homeworkID)
	if err != nil {
		return 0, false, fmt.Errorf("best score: %w", err)
	}
	if len(best) == 0 {
		return 0, false, nil
	}
	return best[0], true, nil
}
