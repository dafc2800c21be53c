package flow

import (
	"strings"
	"testing"
)

func TestHomeworkPerfectScoreUnlocksNextLesson(t *testing.T) {
	fx := newFixture(t)

	out := fx.handle(t, Event{UserID: 1, Command: "/homework"})
	if out == nil || !strings.Contains(out.Text, "Вопрос 1 из 2") {
		t.Fatalf("unexpected first question: %+v", out)
	}
	if len(out.Buttons) == 0 {
		t.Fatal("multiple-choice question rendered without buttons")
	}

	// Option 0 is the correct one ("дом").
	out = fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionHomeworkAnswer, 7, 71, 0)})
	if out == nil || !strings.Contains(out.Text, "Вопрос 2 из 2") {
		t.Fatalf("unexpected second question: %+v", out)
	}
	// Free-text answer, sloppy casing and spacing still count.
	out = fx.handle(t, Event{UserID: 1, Text: "  Su  "})
	if out == nil {
		t.Fatal("submission produced no instruction")
	}

	if !strings.Contains(out.Text, "2 из 2") {
		t.Fatalf("score missing from feedback: %q", out.Text)
	}
	if !strings.Contains(out.Text, "Дом и семья") {
		t.Fatalf("unlock message missing: %q", out.Text)
	}
	if got := fx.users.users[1].CurrentLessonID; got != 6 {
		t.Fatalf("current lesson = %d, want 6", got)
	}
	if len(fx.subs.subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(fx.subs.subs))
	}
	sub := fx.subs.subs[0]
	if sub.Score != 2 || sub.MaxScore != 2 {
		t.Fatalf("submission = %d/%d", sub.Score, sub.MaxScore)
	}
	fx.mustIdle(t, 1)
	if _, ok := fx.index.Get(1); ok {
		t.Fatal("homework draft should be cleared after submission")
	}
}

func TestHomeworkImperfectScoreKeepsLesson(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/homework"})
	// Wrong option, then a wrong typed answer.
	fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionHomeworkAnswer, 7, 71, 1)})
	out := fx.handle(t, Event{UserID: 1, Text: "ekmek"})
	if out == nil {
		t.Fatal("submission produced no instruction")
	}

	if !strings.Contains(out.Text, "0 из 2") {
		t.Fatalf("score missing: %q", out.Text)
	}
	if !strings.Contains(out.Text, "Правильный ответ: дом") || !strings.Contains(out.Text, "Правильный ответ: su") {
		t.Fatalf("mistake feedback missing: %q", out.Text)
	}
	if !strings.Contains(out.Text, "/homework") {
		t.Fatalf("retry hint missing: %q", out.Text)
	}
	if got := fx.users.users[1].CurrentLessonID; got != 5 {
		t.Fatalf("current lesson = %d, want 5", got)
	}

	// Resubmission appends a second row.
	fx.handle(t, Event{UserID: 1, Command: "/homework"})
	fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionHomeworkAnswer, 7, 71, 0)})
	fx.handle(t, Event{UserID: 1, Text: "su"})
	if len(fx.subs.subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(fx.subs.subs))
	}
}

func TestHomeworkStaleCallbacksIgnored(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/homework"})

	cases := []struct {
		name  string
		token string
	}{
		{"wrong homework", EncodeTokenInts(ActionHomeworkAnswer, 99, 71, 0)},
		{"wrong question", EncodeTokenInts(ActionHomeworkAnswer, 7, 72, 0)},
		{"option out of range", EncodeTokenInts(ActionHomeworkAnswer, 7, 71, 5)},
		{"garbage", "hw_answer:x:y:z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if out := fx.handle(t, Event{UserID: 1, Token: tc.token}); out != nil {
				t.Fatalf("got %+v, want no-op", out)
			}
		})
	}

	var p HomeworkPayload
	fx.decodePayload(t, 1, StateHomeworkText, &p)
	if p.Index != 0 {
		t.Fatalf("cursor moved to %d", p.Index)
	}
	if len(fx.subs.subs) != 0 {
		t.Fatal("no submission should exist yet")
	}
}

func TestHomeworkLostDraftRestarts(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/homework"})
	// Simulate a process restart: the persisted state survives, the
	// in-memory draft does not.
	fx.index.Delete(1)

	out := fx.handle(t, Event{UserID: 1, Token: EncodeTokenInts(ActionHomeworkAnswer, 7, 71, 0)})
	if out == nil || !strings.Contains(out.Text, "начните заново") {
		t.Fatalf("unexpected output: %+v", out)
	}
	fx.mustIdle(t, 1)
	if len(fx.subs.subs) != 0 {
		t.Fatal("a partial draft must not be graded")
	}
}

func TestHomeworkTextOnChoiceQuestionNudges(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/homework"})
	out := fx.handle(t, Event{UserID: 1, Text: "дом"})
	if out == nil || !strings.Contains(out.Text, "кнопкой") {
		t.Fatalf("unexpected output: %+v", out)
	}

	var p HomeworkPayload
	fx.decodePayload(t, 1, StateHomeworkText, &p)
	if p.Index != 0 {
		t.Fatalf("cursor moved to %d", p.Index)
	}
}
