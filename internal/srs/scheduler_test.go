package srs

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/m3rciful/lingobot/internal/models"
)

type memCardStore struct {
	cards map[[2]int64]models.ReviewCard
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: make(map[[2]int64]models.ReviewCard)}
}

func (s *memCardStore) Card(_ context.Context, userID, vocabID int64) (*models.ReviewCard, error) {
	c, ok := s.cards[[2]int64{userID, vocabID}]
	if !ok {
		return nil, ErrCardNotFound
	}
	out := c
	return &out, nil
}

func (s *memCardStore) UpsertCard(_ context.Context, card *models.ReviewCard) error {
	s.cards[[2]int64{card.UserID, card.VocabularyID}] = *card
	return nil
}

func (s *memCardStore) DueCards(_ context.Context, userID int64, now time.Time, limit int) ([]models.ReviewCard, error) {
	var due []models.ReviewCard
	for k, c := range s.cards {
		if k[0] == userID && !c.NextReviewAt.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextReviewAt.Before(due[j].NextReviewAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memCardStore) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	due, _ := s.DueCards(ctx, userID, now, 0)
	return len(due), nil
}

func newTestScheduler() (*Scheduler, *memCardStore, *time.Time) {
	store := newMemCardStore()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	sched := NewScheduler(store, func() time.Time { return now })
	return sched, store, &now
}

func TestUpdateCardCreatesAtStageOne(t *testing.T) {
	sched, _, now := newTestScheduler()

	card, err := sched.UpdateCard(context.Background(), 1, 100, true)
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if card.Stage != 1 {
		t.Fatalf("stage = %d, want 1 after first correct answer", card.Stage)
	}
	if card.TotalAttempts != 1 || card.CorrectCount != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", card.CorrectCount, card.TotalAttempts)
	}
	if !card.LastResult.Valid || !card.LastResult.Bool {
		t.Fatal("lastResult must record the outcome")
	}
	if got, want := card.NextReviewAt, now.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("nextReviewAt = %v, want %v", got, want)
	}
}

func TestUpdateCardMonotonicIntervalsUpToCap(t *testing.T) {
	sched, _, _ := newTestScheduler()
	ctx := context.Background()

	var prev time.Duration
	var prevStage int
	for i := 0; i < 10; i++ {
		card, err := sched.UpdateCard(ctx, 1, 100, true)
		if err != nil {
			t.Fatalf("UpdateCard: %v", err)
		}
		gap := Interval(card.Stage)
		if gap < prev {
			t.Fatalf("interval decreased: %v after %v", gap, prev)
		}
		if card.Stage > MaxStage {
			t.Fatalf("stage %d exceeds cap %d", card.Stage, MaxStage)
		}
		if prevStage == MaxStage && card.Stage != MaxStage {
			t.Fatalf("stage left the cap: %d", card.Stage)
		}
		prev, prevStage = gap, card.Stage
	}
	if prevStage != MaxStage {
		t.Fatalf("stage = %d, want cap %d after repeated correct answers", prevStage, MaxStage)
	}
}

func TestUpdateCardIncorrectResetsStage(t *testing.T) {
	sched, _, now := newTestScheduler()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := sched.UpdateCard(ctx, 1, 100, true); err != nil {
			t.Fatalf("UpdateCard: %v", err)
		}
	}
	card, err := sched.UpdateCard(ctx, 1, 100, false)
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if card.Stage != 0 {
		t.Fatalf("stage = %d, want 0 after incorrect answer", card.Stage)
	}
	if card.TotalAttempts != 5 || card.CorrectCount != 4 {
		t.Fatalf("counters = %d/%d, want 4/5", card.CorrectCount, card.TotalAttempts)
	}
	if got, want := card.NextReviewAt, now.Add(10*time.Minute); !got.Equal(want) {
		t.Fatalf("retry at %v, want %v", got, want)
	}
	if acc, ok := card.AccuracyPercent(); !ok || acc != 80 {
		t.Fatalf("accuracy = %d,%v, want 80,true", acc, ok)
	}
}

func TestDueCardsOrderedAndLimited(t *testing.T) {
	sched, store, now := newTestScheduler()
	ctx := context.Background()

	for i, offset := range []time.Duration{-3 * time.Hour, -1 * time.Hour, -2 * time.Hour, 5 * time.Hour} {
		store.cards[[2]int64{1, int64(i)}] = models.ReviewCard{
			UserID:       1,
			VocabularyID: int64(i),
			NextReviewAt: now.Add(offset),
		}
	}

	due, err := sched.DueCards(ctx, 1, 2)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2 (limit)", len(due))
	}
	if due[0].VocabularyID != 0 || due[1].VocabularyID != 2 {
		t.Fatalf("wrong order: %d, %d (want oldest due first)", due[0].VocabularyID, due[1].VocabularyID)
	}

	count, err := sched.DueCount(ctx, 1)
	if err != nil {
		t.Fatalf("DueCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("DueCount = %d, want 3", count)
	}
}
