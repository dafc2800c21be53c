package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/lingobot/internal/grading"
	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/srs"
)

type memStateStore struct {
	mu       sync.Mutex
	states   map[int64]State
	payloads map[int64][]byte
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[int64]State), payloads: make(map[int64][]byte)}
}

func (m *memStateStore) Get(_ context.Context, userID int64) (State, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[userID]
	if !ok {
		return "", nil, ErrNoSession
	}
	return st, m.payloads[userID], nil
}

func (m *memStateStore) Set(_ context.Context, userID int64, state State, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = state
	m.payloads[userID] = payload
	return nil
}

func (m *memStateStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	delete(m.payloads, userID)
	return nil
}

type fakeVocabStore struct {
	byLesson map[int64][]models.Vocabulary
	byID     map[int64]models.Vocabulary
	fresh    []models.Vocabulary
	results  []models.Vocabulary
	custom   []*models.Vocabulary
}

func newFakeVocabStore() *fakeVocabStore {
	return &fakeVocabStore{
		byLesson: make(map[int64][]models.Vocabulary),
		byID:     make(map[int64]models.Vocabulary),
	}
}

func (s *fakeVocabStore) add(lessonID int64, words ...models.Vocabulary) {
	for _, w := range words {
		s.byLesson[lessonID] = append(s.byLesson[lessonID], w)
		s.byID[w.ID] = w
	}
}

func (s *fakeVocabStore) LessonVocabulary(_ context.Context, lessonID int64) ([]models.Vocabulary, error) {
	return s.byLesson[lessonID], nil
}

func (s *fakeVocabStore) VocabularyByIDs(_ context.Context, ids []int64) ([]models.Vocabulary, error) {
	var out []models.Vocabulary
	for _, id := range ids {
		if w, ok := s.byID[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeVocabStore) Search(_ context.Context, _ int64, _ string, limit, offset int) ([]models.Vocabulary, int, error) {
	total := len(s.results)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return s.results[offset:end], total, nil
}

func (s *fakeVocabStore) CreateCustom(_ context.Context, v *models.Vocabulary) error {
	v.ID = int64(9000 + len(s.custom))
	s.custom = append(s.custom, v)
	s.byID[v.ID] = *v
	return nil
}

func (s *fakeVocabStore) NewForUser(_ context.Context, _ int64, limit int) ([]models.Vocabulary, error) {
	if limit > len(s.fresh) {
		limit = len(s.fresh)
	}
	return s.fresh[:limit], nil
}

type fakeUserStore struct {
	users map[int64]*models.User
}

func (s *fakeUserStore) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}

func (s *fakeUserStore) SetCurrentLesson(_ context.Context, userID, lessonID int64) error {
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	u.CurrentLessonID = lessonID
	return nil
}

type fakeLessonStore struct {
	lessons []models.Lesson
}

func (s *fakeLessonStore) LessonByID(_ context.Context, id int64) (*models.Lesson, error) {
	for i := range s.lessons {
		if s.lessons[i].ID == id {
			return &s.lessons[i], nil
		}
	}
	return nil, fmt.Errorf("lesson %d not found", id)
}

func (s *fakeLessonStore) NextLesson(_ context.Context, afterID int64) (*models.Lesson, error) {
	cur, err := s.LessonByID(context.Background(), afterID)
	if err != nil {
		return nil, err
	}
	var next *models.Lesson
	for i := range s.lessons {
		l := &s.lessons[i]
		if l.Position <= cur.Position {
			continue
		}
		if next == nil || l.Position < next.Position {
			next = l
		}
	}
	return next, nil
}

type fakeHomeworkStore struct {
	byID     map[int64]*models.Homework
	byLesson map[int64]*models.Homework
}

func (s *fakeHomeworkStore) HomeworkByID(_ context.Context, id int64) (*models.Homework, error) {
	hw, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("homework %d not found", id)
	}
	return hw, nil
}

func (s *fakeHomeworkStore) HomeworkByLesson(_ context.Context, lessonID int64) (*models.Homework, error) {
	hw, ok := s.byLesson[lessonID]
	if !ok {
		return nil, fmt.Errorf("homework for lesson %d not found", lessonID)
	}
	return hw, nil
}

type fakeSubmissionStore struct {
	subs []models.HomeworkSubmission
}

func (s *fakeSubmissionStore) CreateSubmission(_ context.Context, sub *models.HomeworkSubmission) error {
	sub.ID = int64(len(s.subs) + 1)
	s.subs = append(s.subs, *sub)
	return nil
}

type memCardStore struct {
	cards map[[2]int64]*models.ReviewCard
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: make(map[[2]int64]*models.ReviewCard)}
}

func (m *memCardStore) Card(_ context.Context, userID, vocabularyID int64) (*models.ReviewCard, error) {
	c, ok := m.cards[[2]int64{userID, vocabularyID}]
	if !ok {
		return nil, srs.ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCardStore) UpsertCard(_ context.Context, card *models.ReviewCard) error {
	cp := *card
	m.cards[[2]int64{card.UserID, card.VocabularyID}] = &cp
	return nil
}

func (m *memCardStore) DueCards(_ context.Context, userID int64, now time.Time, limit int) ([]models.ReviewCard, error) {
	var out []models.ReviewCard
	for _, c := range m.cards {
		if c.UserID == userID && !c.NextReviewAt.After(now) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextReviewAt.Before(out[j].NextReviewAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCardStore) CountDue(_ context.Context, userID int64, now time.Time) (int, error) {
	n := 0
	for _, c := range m.cards {
		if c.UserID == userID && !c.NextReviewAt.After(now) {
			n++
		}
	}
	return n, nil
}

type fixture struct {
	flows    *Flows
	d        *Dispatcher
	sessions *Sessions
	store    *memStateStore
	index    SessionIndex
	users    *fakeUserStore
	lessons  *fakeLessonStore
	vocab    *fakeVocabStore
	hw       *fakeHomeworkStore
	subs     *fakeSubmissionStore
	cards    *memCardStore
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := newMemStateStore()
	sessions := NewSessions(store)
	index := NewMemorySessionIndex()

	vocab := newFakeVocabStore()
	vocab.add(5,
		models.Vocabulary{ID: 101, LessonID: 5, Word: "ev", Translation: "дом", Example: "Evim küçük."},
		models.Vocabulary{ID: 102, LessonID: 5, Word: "su", Translation: "вода"},
		models.Vocabulary{ID: 103, LessonID: 5, Word: "kedi", Translation: "кошка"},
	)
	vocab.add(6, models.Vocabulary{ID: 104, LessonID: 6, Word: "köpek", Translation: "собака"})

	users := &fakeUserStore{users: map[int64]*models.User{
		1: {ID: 1, TelegramID: 100500, CurrentLessonID: 5},
	}}
	lessons := &fakeLessonStore{lessons: []models.Lesson{
		{ID: 5, Position: 1, Title: "Знакомство"},
		{ID: 6, Position: 2, Title: "Дом и семья"},
	}}
	hw := &fakeHomeworkStore{
		byID:     make(map[int64]*models.Homework),
		byLesson: make(map[int64]*models.Homework),
	}
	homework := &models.Homework{
		ID:       7,
		LessonID: 5,
		Questions: []models.HomeworkQuestion{
			{ID: 71, HomeworkID: 7, Position: 1, QuestionType: models.QuestionMultipleChoice,
				QuestionText: "Как переводится «ev»?", Options: models.StringList{"дом", "вода"}, CorrectAnswer: "дом"},
			{ID: 72, HomeworkID: 7, Position: 2, QuestionType: models.QuestionTextInput,
				QuestionText: "Напишите «вода» по-турецки.", CorrectAnswer: "su"},
		},
	}
	hw.byID[7] = homework
	hw.byLesson[5] = homework

	subs := &fakeSubmissionStore{}
	cards := newMemCardStore()
	eval := grading.NewEvaluator()

	flows := New(Config{
		Sessions:  sessions,
		Homework:  index,
		Vocab:     vocab,
		Users:     users,
		Lessons:   lessons,
		Homeworks: hw,
		Grader:    grading.NewGrader(hw, subs, eval, clock),
		Evaluator: eval,
		Scheduler: srs.NewScheduler(cards, clock),
		Rand:      rand.New(rand.NewSource(1)),
		Now:       clock,
	})
	d := NewDispatcher(sessions)
	flows.Register(d)
	d.RegisterCommand("/lesson", flows.StartExercise)
	d.RegisterCommand("/learn", flows.StartLearn)
	d.RegisterCommand("/homework", flows.StartHomework)
	d.RegisterCommand("/add", flows.StartDictAdd)
	d.RegisterCommand("/dict", flows.StartDictSearch)

	return &fixture{
		flows: flows, d: d, sessions: sessions, store: store, index: index,
		users: users, lessons: lessons, vocab: vocab, hw: hw, subs: subs,
		cards: cards, now: now,
	}
}

func (fx *fixture) handle(t *testing.T, ev Event) *RenderInstruction {
	t.Helper()
	out, err := fx.d.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("handle %+v: %v", ev, err)
	}
	return out
}

func (fx *fixture) exercisePayload(t *testing.T, userID int64) ExercisePayload {
	t.Helper()
	var p ExercisePayload
	fx.decodePayload(t, userID, StateExercise, &p)
	return p
}

func (fx *fixture) decodePayload(t *testing.T, userID int64, want State, dst any) {
	t.Helper()
	st, raw, err := fx.store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if st != want {
		t.Fatalf("state = %q, want %q", st, want)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func (fx *fixture) mustIdle(t *testing.T, userID int64) {
	t.Helper()
	if _, _, err := fx.store.Get(context.Background(), userID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected idle user, got err=%v", err)
	}
}

func TestExerciseFlowCompletes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out := fx.handle(t, Event{UserID: 1, Command: "/lesson"})
	if out == nil || !strings.Contains(out.Text, "Вопрос 1 из 3") {
		t.Fatalf("unexpected first question: %+v", out)
	}

	for i := 0; i < 3; i++ {
		p := fx.exercisePayload(t, 1)
		if p.Index != i {
			t.Fatalf("cursor = %d, want %d", p.Index, i)
		}
		item := p.Items[p.Index]
		out = fx.handle(t, Event{
			UserID: 1,
			Token:  EncodeTokenInts(ActionExerciseAnswer, p.LessonID, item.VocabularyID, int64(item.Correct)),
		})
		if out == nil {
			t.Fatalf("answer %d produced no instruction", i)
		}
		if !strings.Contains(out.Text, "✅ Верно!") {
			t.Fatalf("answer %d feedback missing: %q", i, out.Text)
		}
	}

	if !strings.Contains(out.Text, "Практика завершена") {
		t.Fatalf("completion message missing: %q", out.Text)
	}
	fx.mustIdle(t, 1)

	// One review card per word, each promoted to stage 1.
	for _, id := range []int64{101, 102, 103} {
		card, err := fx.cards.Card(ctx, 1, id)
		if err != nil {
			t.Fatalf("card %d: %v", id, err)
		}
		if card.Stage != 1 || card.CorrectCount != 1 {
			t.Fatalf("card %d = stage %d correct %d", id, card.Stage, card.CorrectCount)
		}
	}

	// A tap on the finished session's buttons is a no-op.
	if out := fx.handle(t, Event{UserID: 1, Token: "exercise_answer:5:101:0"}); out != nil {
		t.Fatalf("stale tap produced %+v", out)
	}
}

func TestExerciseStaleCallbacksIgnored(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/lesson"})
	p := fx.exercisePayload(t, 1)
	item := p.Items[0]

	cases := []struct {
		name  string
		token string
	}{
		{"wrong lesson", EncodeTokenInts(ActionExerciseAnswer, 99, item.VocabularyID, 0)},
		{"wrong vocabulary", EncodeTokenInts(ActionExerciseAnswer, p.LessonID, 999, 0)},
		{"option out of range", EncodeTokenInts(ActionExerciseAnswer, p.LessonID, item.VocabularyID, 12)},
		{"garbage args", "exercise_answer:abc:def:ghi"},
		{"missing args", "exercise_answer:5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if out := fx.handle(t, Event{UserID: 1, Token: tc.token}); out != nil {
				t.Fatalf("got %+v, want no-op", out)
			}
			if got := fx.exercisePayload(t, 1); got.Index != 0 {
				t.Fatalf("cursor moved to %d", got.Index)
			}
		})
	}

	// Another user without a session taps an old button.
	if out := fx.handle(t, Event{UserID: 42, Token: EncodeTokenInts(ActionExerciseAnswer, 5, 101, 0)}); out != nil {
		t.Fatalf("sessionless tap produced %+v", out)
	}
}

func TestMalformedPayloadTreatedAsIdle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.store.Set(ctx, 1, StateExercise, []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	if out := fx.handle(t, Event{UserID: 1, Token: "exercise_answer:5:101:0"}); out != nil {
		t.Fatalf("callback on malformed payload produced %+v", out)
	}

	if err := fx.store.Set(ctx, 1, StateDictAddCustom, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if out := fx.handle(t, Event{UserID: 1, Text: "kitap"}); out != nil {
		t.Fatalf("text on malformed payload produced %+v", out)
	}
}

func TestDispatcherUnroutableEvents(t *testing.T) {
	fx := newFixture(t)

	cases := []struct {
		name string
		ev   Event
	}{
		{"unknown command", Event{UserID: 1, Command: "/unknown"}},
		{"unknown action", Event{UserID: 1, Token: "no_such_action:1:2"}},
		{"empty token fields", Event{UserID: 1, Token: ":::"}},
		{"text while idle", Event{UserID: 1, Text: "merhaba"}},
		{"empty event", Event{UserID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if out := fx.handle(t, tc.ev); out != nil {
				t.Fatalf("got %+v, want no-op", out)
			}
		})
	}
}

func TestCancelClearsFlow(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/lesson"})
	out := fx.handle(t, Event{UserID: 1, Token: ActionCancel})
	if out == nil || !strings.Contains(out.Text, "отменено") {
		t.Fatalf("unexpected cancel output: %+v", out)
	}
	fx.mustIdle(t, 1)

	if fx.d.InProgress(context.Background(), 1) {
		t.Fatal("InProgress should be false after cancel")
	}
}

func TestStartReplacesActiveFlow(t *testing.T) {
	fx := newFixture(t)

	fx.handle(t, Event{UserID: 1, Command: "/homework"})
	fx.handle(t, Event{UserID: 1, Command: "/lesson"})

	p := fx.exercisePayload(t, 1)
	if p.Index != 0 || len(p.Items) != 3 {
		t.Fatalf("unexpected payload after restart: %+v", p)
	}
	if _, ok := fx.index.Get(1); ok {
		t.Fatal("homework draft should be dropped when another flow starts")
	}
}
