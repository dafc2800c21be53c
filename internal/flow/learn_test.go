package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/lingobot/internal/models"
)

func seedLearnData(fx *fixture) {
	// One card overdue for review, one brand new word.
	fx.cards.cards[[2]int64{1, 101}] = &models.ReviewCard{
		UserID: 1, VocabularyID: 101, Stage: 2,
		NextReviewAt: fx.now.Add(-time.Hour),
	}
	fx.vocab.fresh = []models.Vocabulary{
		{ID: 104, LessonID: 6, Word: "köpek", Translation: "собака"},
	}
}

func (fx *fixture) learnPayload(t *testing.T) LearnPayload {
	t.Helper()
	var p LearnPayload
	fx.decodePayload(t, 1, StateLearnWords, &p)
	return p
}

func answerIndex(t *testing.T, q LearnQuestion) int {
	t.Helper()
	for i, opt := range q.Options {
		if opt == q.Answer {
			return i
		}
	}
	t.Fatalf("answer %q not among options %v", q.Answer, q.Options)
	return -1
}

func TestLearnSessionMixesDueAndNewWords(t *testing.T) {
	fx := newFixture(t)
	seedLearnData(fx)

	out := fx.handle(t, Event{UserID: 1, Command: "/learn"})
	if out == nil || !strings.Contains(out.Text, "Вопрос 1 из 2") {
		t.Fatalf("unexpected first question: %+v", out)
	}

	p := fx.learnPayload(t)
	ids := map[int64]bool{}
	for _, q := range p.Questions {
		ids[q.VocabularyID] = true
		if q.Text == "" || q.Answer == "" || len(q.Options) < 2 {
			t.Fatalf("degenerate question: %+v", q)
		}
	}
	if !ids[101] || !ids[104] {
		t.Fatalf("expected words 101 and 104, got %v", ids)
	}
}

func TestLearnSessionCompletesAndReschedules(t *testing.T) {
	fx := newFixture(t)
	seedLearnData(fx)
	ctx := context.Background()

	fx.handle(t, Event{UserID: 1, Command: "/learn"})

	var out *RenderInstruction
	for i := 0; i < 2; i++ {
		p := fx.learnPayload(t)
		q := p.Questions[p.Index]
		out = fx.handle(t, Event{
			UserID: 1,
			Token:  EncodeTokenInts(ActionLearnAnswer, int64(p.Index), int64(answerIndex(t, q))),
		})
		if out == nil {
			t.Fatalf("answer %d produced no instruction", i)
		}
	}

	if !strings.Contains(out.Text, "Сессия завершена: 2 из 2") {
		t.Fatalf("summary missing: %q", out.Text)
	}
	fx.mustIdle(t, 1)

	// The due card climbed one stage, the new word got its first card.
	card, err := fx.cards.Card(ctx, 1, 101)
	if err != nil {
		t.Fatal(err)
	}
	if card.Stage != 3 {
		t.Fatalf("reviewed card stage = %d, want 3", card.Stage)
	}
	card, err = fx.cards.Card(ctx, 1, 104)
	if err != nil {
		t.Fatal(err)
	}
	if card.Stage != 1 {
		t.Fatalf("new card stage = %d, want 1", card.Stage)
	}
}

func TestLearnWrongAnswerCountsAndResets(t *testing.T) {
	fx := newFixture(t)
	seedLearnData(fx)
	ctx := context.Background()

	fx.handle(t, Event{UserID: 1, Command: "/learn"})

	p := fx.learnPayload(t)
	q := p.Questions[0]
	wrong := (answerIndex(t, q) + 1) % len(q.Options)
	out := fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionLearnAnswer, 0, int64(wrong))})
	if out == nil || !strings.Contains(out.Text, "❌ Неверно") {
		t.Fatalf("unexpected feedback: %+v", out)
	}
	if !strings.Contains(out.Text, q.Answer) {
		t.Fatalf("correct answer missing from feedback: %q", out.Text)
	}

	card, err := fx.cards.Card(ctx, 1, q.VocabularyID)
	if err != nil {
		t.Fatal(err)
	}
	if card.Stage != 0 {
		t.Fatalf("card stage after mistake = %d, want 0", card.Stage)
	}

	p = fx.learnPayload(t)
	if p.Index != 1 || p.Correct != 0 {
		t.Fatalf("payload after mistake = %+v", p)
	}
}

func TestLearnStaleIndexIgnored(t *testing.T) {
	fx := newFixture(t)
	seedLearnData(fx)

	fx.handle(t, Event{UserID: 1, Command: "/learn"})

	// Token for question 1 while the cursor still sits at 0.
	if out := fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionLearnAnswer, 1, 0)}); out != nil {
		t.Fatalf("stale tap produced %+v", out)
	}
	if p := fx.learnPayload(t); p.Index != 0 {
		t.Fatalf("cursor moved to %d", p.Index)
	}
}

func TestLearnNothingDue(t *testing.T) {
	fx := newFixture(t)

	out := fx.handle(t, Event{UserID: 1, Command: "/learn"})
	if out == nil || !strings.Contains(out.Text, "нет слов") {
		t.Fatalf("unexpected output: %+v", out)
	}
	fx.mustIdle(t, 1)
}
