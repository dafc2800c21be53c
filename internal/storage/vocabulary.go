package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/models"
)

// VocabularyRepo persists course and user-added vocabulary. Course words have
// owner_id = 0; custom entries carry the owning user's id and no lesson.
type VocabularyRepo struct {
	db *sqlx.DB
}

// LessonVocabulary lists a lesson's words in insertion order.
func (r *VocabularyRepo) LessonVocabulary(ctx context.Context, lessonID int64) ([]models.Vocabulary, error) {
	var out []models.Vocabulary
	err := selectContext(ctx, r.db, &out,
		`SELECT * FROM vocabulary WHERE lesson_id = ? ORDER BY id`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("lesson %d vocabulary: %w", lessonID, err)
	}
	return out, nil
}

// VocabularyByIDs loads the given words; missing ids are silently skipped.
func (r *VocabularyRepo) VocabularyByIDs(ctx context.Context, ids []int64) ([]models.Vocabulary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM vocabulary WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary query: %w", err)
	}
	var out []models.Vocabulary
	if err := selectContext(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("vocabulary by ids: %w", err)
	}
	return out, nil
}

// Search matches the query against words and translations, case-insensitive.
// Course words and the user's own custom entries are searched; other users'
// entries never leak. Returns one result page plus the total match count.
func (r *VocabularyRepo) Search(ctx context.Context, userID int64, query string, limit, offset int) ([]models.Vocabulary, int, error) {
	pattern := "%" + query + "%"
	where := `(owner_id = 0 OR owner_id = ?)
		  AND (LOWER(word) LIKE LOWER(?) OR LOWER(translation) LIKE LOWER(?))`

	var total int
	err := getContext(ctx, r.db, &total,
		`SELECT COUNT(*) FROM vocabulary WHERE `+where, userID, pattern, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("count search %q: %w", query, err)
	}

	var out []models.Vocabulary
	err = selectContext(ctx, r.db, &out,
		`SELECT * FROM vocabulary WHERE `+where+` ORDER BY word, id LIMIT ? OFFSET ?`,
		userID, pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search %q: %w", query, err)
	}
	return out, total, nil
}

// CreateCustom inserts a user-added word and fills in its id.
func (r *VocabularyRepo) CreateCustom(ctx context.Context, v *models.Vocabulary) error {
	return r.Create(ctx, v)
}

// Create inserts a vocabulary row and fills in its id. Course imports use it
// directly with owner_id = 0.
func (r *VocabularyRepo) Create(ctx context.Context, v *models.Vocabulary) error {
	now := time.Now().UTC()
	id, err := insertID(ctx, r.db,
		`INSERT INTO vocabulary (lesson_id, word, translation, example, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.LessonID, v.Word, v.Translation, v.Example, v.OwnerID, now, now)
	if err != nil {
		return fmt.Errorf("create custom word: %w", err)
	}
	v.ID = id
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

// WordExists reports whether a lesson already contains the given word.
func (r *VocabularyRepo) WordExists(ctx context.Context, lessonID int64, word string) (bool, error) {
	var n int
	err := getContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM vocabulary WHERE lesson_id = ? AND LOWER(word) = LOWER(?)`,
		lessonID, word)
	if err != nil {
		return false, fmt.Errorf("word exists: %w", err)
	}
	return n > 0, nil
}

// NewForUser returns up to limit words the user has never reviewed: words
// from their unlocked lessons plus their own custom entries, skipping
// anything that already has a review card.
func (r *VocabularyRepo) NewForUser(ctx context.Context, userID int64, limit int) ([]models.Vocabulary, error) {
	var out []models.Vocabulary
	err := selectContext(ctx, r.db, &out,
		`SELECT v.*
		   FROM vocabulary v
		   JOIN users u ON u.id = ?
		   LEFT JOIN lessons l ON l.id = v.lesson_id
		   LEFT JOIN lessons cur ON cur.id = u.current_lesson_id
		   LEFT JOIN review_cards rc ON rc.user_id = u.id AND rc.vocabulary_id = v.id
		  WHERE rc.id IS NULL
		    AND (v.owner_id = u.id OR (v.owner_id = 0 AND l.position <= cur.position))
		  ORDER BY l.position, v.id
		  LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("new words for user %d: %w", userID, err)
	}
	return out, nil
}
