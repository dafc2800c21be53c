package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/models"
)

// LessonRepo persists the ordered course units.
type LessonRepo struct {
	db *sqlx.DB
}

// LessonByID loads a lesson.
func (r *LessonRepo) LessonByID(ctx context.Context, id int64) (*models.Lesson, error) {
	var l models.Lesson
	if err := getContext(ctx, r.db, &l, `SELECT * FROM lessons WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("load lesson %d: %w", id, err)
	}
	return &l, nil
}

// FirstLesson returns the lesson new users start at.
func (r *LessonRepo) FirstLesson(ctx context.Context) (*models.Lesson, error) {
	var l models.Lesson
	err := getContext(ctx, r.db, &l, `SELECT * FROM lessons ORDER BY position LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("load first lesson: %w", err)
	}
	return &l, nil
}

// NextLesson returns the lesson following afterID in course order, or
// (nil, nil) when afterID is the last one.
func (r *LessonRepo) NextLesson(ctx context.Context, afterID int64) (*models.Lesson, error) {
	cur, err := r.LessonByID(ctx, afterID)
	if err != nil {
		return nil, err
	}
	var next models.Lesson
	err = getContext(ctx, r.db, &next,
		`SELECT * FROM lessons WHERE position > ? ORDER BY position LIMIT 1`, cur.Position)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load lesson after %d: %w", afterID, err)
	}
	return &next, nil
}

// LessonByTitle loads a lesson by its exact title.
func (r *LessonRepo) LessonByTitle(ctx context.Context, title string) (*models.Lesson, error) {
	var l models.Lesson
	if err := getContext(ctx, r.db, &l, `SELECT * FROM lessons WHERE title = ?`, title); err != nil {
		return nil, err
	}
	return &l, nil
}

// EnsureLesson returns the lesson with the given title, creating it at the
// end of the course when absent. Reports whether a row was created.
func (r *LessonRepo) EnsureLesson(ctx context.Context, title string) (*models.Lesson, bool, error) {
	l, err := r.LessonByTitle(ctx, title)
	if err == nil {
		return l, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("load lesson %q: %w", title, err)
	}

	var maxPos int
	if err := getContext(ctx, r.db, &maxPos,
		`SELECT COALESCE(MAX(position), 0) FROM lessons`); err != nil {
		return nil, false, fmt.Errorf("max lesson position: %w", err)
	}
	now := time.Now().UTC()
	id, err := insertID(ctx, r.db,
		`INSERT INTO lessons (position, title, created_at) VALUES (?, ?, ?)`,
		maxPos+1, title, now)
	if err != nil {
		return nil, false, fmt.Errorf("create lesson %q: %w", title, err)
	}
	return &models.Lesson{ID: id, Position: maxPos + 1, Title: title, CreatedAt: now}, true, nil
}

// Lessons lists the whole course in order.
func (r *LessonRepo) Lessons(ctx context.Context) ([]models.Lesson, error) {
	var out []models.Lesson
	if err := selectContext(ctx, r.db, &out, `SELECT * FROM lessons ORDER BY position`); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return out, nil
}
