package models

import (
	"database/sql"
	"time"
)

// ReviewCard tracks spaced-repetition scheduling for one user+vocabulary pair.
// Stage is the interval level (0 = new); NextReviewAt is when the card becomes
// due again. Rows are mutated only through the scheduler.
type ReviewCard struct {
	ID            int64        `json:"id" db:"id"`
	UserID        int64        `json:"user_id" db:"user_id"`
	VocabularyID  int64        `json:"vocabulary_id" db:"vocabulary_id"`
	Stage         int          `json:"stage" db:"stage"`
	NextReviewAt  time.Time    `json:"next_review_at" db:"next_review_at"`
	LastResult    sql.NullBool `json:"last_result" db:"last_result"`
	CorrectCount  int          `json:"correct_count" db:"correct_count"`
	TotalAttempts int          `json:"total_attempts" db:"total_attempts"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// AccuracyPercent returns the integer percentage of correct attempts and false
// when the card has never been attempted.
func (c *ReviewCard) AccuracyPercent() (int, bool) {
	if c.TotalAttempts <= 0 {
		return 0, false
	}
	return c.CorrectCount * 100 / c.TotalAttempts, true
}
