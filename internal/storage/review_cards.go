package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/srs"
)

// CardRepo persists review cards for the spaced-repetition scheduler.
type CardRepo struct {
	db *sqlx.DB
}

// Card loads the review card of a user+vocabulary pair.
func (r *CardRepo) Card(ctx context.Context, userID, vocabularyID int64) (*models.ReviewCard, error) {
	var c models.ReviewCard
	err := getContext(ctx, r.db, &c,
		`SELECT * FROM review_cards WHERE user_id = ? AND vocabulary_id = ?`,
		userID, vocabularyID)
	if errors.Is(err, ErrNotFound) {
		return nil, srs.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card %d/%d: %w", userID, vocabularyID, err)
	}
	return &c, nil
}

// UpsertCard inserts or replaces the card for its user+vocabulary pair.
func (r *CardRepo) UpsertCard(ctx context.Context, card *models.ReviewCard) error {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	_, err := execContext(ctx, r.db,
		`INSERT INTO review_cards
			(user_id, vocabulary_id, stage, next_review_at, last_result, correct_count, total_attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, vocabulary_id) DO UPDATE SET
			stage = excluded.stage,
			next_review_at = excluded.next_review_at,
			last_result = excluded.last_result,
			correct_count = excluded.correct_count,
			total_attempts = excluded.total_attempts,
			updated_at = excluded.updated_at`,
		card.UserID, card.VocabularyID, card.Stage, card.NextReviewAt, card.LastResult,
		card.CorrectCount, card.TotalAttempts, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert card %d/%d: %w", card.UserID, card.VocabularyID, err)
	}
	return nil
}

// DueCards lists up to limit cards due at now, oldest due first.
func (r *CardRepo) DueCards(ctx context.Context, userID int64, now time.Time, limit int) ([]models.ReviewCard, error) {
	var out []models.ReviewCard
	err := selectContext(ctx, r.db, &out,
		`SELECT * FROM review_cards
		  WHERE user_id = ? AND next_review_at <= ?
		  ORDER BY next_review_at, id
		  LIMIT ?`,
		userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due cards for user %d: %w", userID, err)
	}
	return out, nil
}

// CountDue counts the user's cards due at now.
func (r *CardRepo) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := getContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM review_cards WHERE user_id = ? AND next_review_at <= ?`,
		userID, now)
	if err != nil {
		return 0, fmt.Errorf("count due for user %d: %w", userID, err)
	}
	return n, nil
}

// CardStats summarizes one user's review history for the progress report.
type CardStats struct {
	Total    int `db:"total"`
	Learned  int `db:"learned"`
	Correct  int `db:"correct"`
	Attempts int `db:"attempts"`
}

// Stats aggregates review history; learned means a card at the top stage.
func (r *CardRepo) Stats(ctx context.Context, userID int64, maxStage int) (CardStats, error) {
	var s CardStats
	err := getContext(ctx, r.db, &s,
		`SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN stage >= ? THEN 1 ELSE 0 END), 0) AS learned,
			COALESCE(SUM(correct_count), 0) AS correct,
			COALESCE(SUM(total_attempts), 0) AS attempts
		   FROM review_cards WHERE user_id = ?`,
		maxStage, userID)
	if err != nil {
		return CardStats{}, fmt.Errorf("card stats for user %d: %w", userID, err)
	}
	return s, nil
}
