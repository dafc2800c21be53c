// Package srs implements the spaced-repetition scheduling for review cards.
// The model is a simplified SM-2: a card climbs an interval ladder on correct
// answers and falls back to the bottom on an incorrect one.
package srs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
)

// stageIntervals is the review interval per stage. The ladder is strictly
// monotonic and the last entry is the cap.
var stageIntervals = []time.Duration{
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

// retryInterval schedules the next attempt after an incorrect answer.
const retryInterval = 10 * time.Minute

// MaxStage is the highest reachable stage. Stage 0 means "new or relearning";
// stage n >= 1 maps onto stageIntervals[n-1].
var MaxStage = len(stageIntervals)

// ErrCardNotFound is returned by CardStore implementations when no card
// exists for a user+vocabulary pair.
var ErrCardNotFound = errors.New("srs: review card not found")

// CardStore persists review cards.
type CardStore interface {
	Card(ctx context.Context, userID, vocabularyID int64) (*models.ReviewCard, error)
	UpsertCard(ctx context.Context, card *models.ReviewCard) error
	DueCards(ctx context.Context, userID int64, now time.Time, limit int) ([]models.ReviewCard, error)
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
}

// Scheduler computes review stages and due times.
type Scheduler struct {
	cards CardStore
	now   func() time.Time
}

// NewScheduler wires a Scheduler. now may be nil, in which case time.Now is used.
func NewScheduler(cards CardStore, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{cards: cards, now: now}
}

// Interval returns the review interval for a stage, clamping out-of-range
// stages onto the ladder. Stage 0 shares the first rung.
func Interval(stage int) time.Duration {
	if stage < 1 {
		stage = 1
	}
	if stage > MaxStage {
		stage = MaxStage
	}
	return stageIntervals[stage-1]
}

// UpdateCard records one answer for a user+vocabulary pair and reschedules the
// card. A missing card is created at stage 0 first. Correct answers move the
// card one stage up (capped); an incorrect answer drops it back to stage 0 and
// schedules a short retry.
func (s *Scheduler) UpdateCard(ctx context.Context, userID, vocabularyID int64, correct bool) (*models.ReviewCard, error) {
	now := s.now()

	card, err := s.cards.Card(ctx, userID, vocabularyID)
	switch {
	case errors.Is(err, ErrCardNotFound):
		card = &models.ReviewCard{
			UserID:       userID,
			VocabularyID: vocabularyID,
			NextReviewAt: now,
			CreatedAt:    now,
		}
	case err != nil:
		return nil, fmt.Errorf("load card: %w", err)
	}

	if correct {
		if card.Stage < MaxStage {
			card.Stage++
		}
		card.CorrectCount++
		card.NextReviewAt = now.Add(Interval(card.Stage))
	} else {
		card.Stage = 0
		card.NextReviewAt = now.Add(retryInterval)
	}
	card.TotalAttempts++
	card.LastResult = sql.NullBool{Bool: correct, Valid: true}
	card.UpdatedAt = now

	if err := s.cards.UpsertCard(ctx, card); err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}

	logger.SRS.Debug("card updated",
		slog.String("event", "srs.card.updated"),
		slog.Int64("user_id", userID),
		slog.Int64("vocab_id", vocabularyID),
		slog.Bool("correct", correct),
		slog.Int("stage", card.Stage),
	)

	return card, nil
}

// DueCards returns up to limit cards due at now, oldest due first.
func (s *Scheduler) DueCards(ctx context.Context, userID int64, limit int) ([]models.ReviewCard, error) {
	return s.cards.DueCards(ctx, userID, s.now(), limit)
}

// DueCount returns how many cards are currently due for the user.
func (s *Scheduler) DueCount(ctx context.Context, userID int64) (int, error) {
	return s.cards.CountDue(ctx, userID, s.now())
}
