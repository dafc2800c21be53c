package flow

import (
	"context"
	"math/rand"
	"time"

	"github.com/m3rciful/lingobot/internal/grading"
	"github.com/m3rciful/lingobot/internal/models"
	"github.com/m3rciful/lingobot/internal/srs"
)

// Callback action names. Kept short, Telegram limits callback data to 64 bytes.
const (
	ActionExerciseAnswer = "exercise_answer"
	ActionLearnAnswer    = "learn_answer"
	ActionHomeworkAnswer = "hw_answer"
	ActionDictPage       = "dict_page"
	ActionCancel         = "flow_cancel"
)

// VocabularyStore is the flows' view of the dictionary.
type VocabularyStore interface {
	LessonVocabulary(ctx context.Context, lessonID int64) ([]models.Vocabulary, error)
	VocabularyByIDs(ctx context.Context, ids []int64) ([]models.Vocabulary, error)
	Search(ctx context.Context, userID int64, query string, limit, offset int) ([]models.Vocabulary, int, error)
	CreateCustom(ctx context.Context, v *models.Vocabulary) error
	NewForUser(ctx context.Context, userID int64, limit int) ([]models.Vocabulary, error)
}

// UserStore is the flows' view of user rows.
type UserStore interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	SetCurrentLesson(ctx context.Context, userID, lessonID int64) error
}

// LessonStore resolves lessons and their course order. NextLesson returns
// (nil, nil) when afterID is the last lesson of the course.
type LessonStore interface {
	LessonByID(ctx context.Context, id int64) (*models.Lesson, error)
	NextLesson(ctx context.Context, afterID int64) (*models.Lesson, error)
}

// HomeworkStore extends the grader's reader with lesson lookup.
type HomeworkStore interface {
	grading.HomeworkReader
	HomeworkByLesson(ctx context.Context, lessonID int64) (*models.Homework, error)
}

// Flows bundles every flow handler with its dependencies.
type Flows struct {
	sessions  *Sessions
	homework  SessionIndex
	vocab     VocabularyStore
	users     UserStore
	lessons   LessonStore
	homeworks HomeworkStore
	grader    *grading.Grader
	eval      *grading.Evaluator
	scheduler *srs.Scheduler
	rng       *rand.Rand
	now       func() time.Time
}

// Config wires a Flows instance.
type Config struct {
	Sessions  *Sessions
	Homework  SessionIndex
	Vocab     VocabularyStore
	Users     UserStore
	Lessons   LessonStore
	Homeworks HomeworkStore
	Grader    *grading.Grader
	Evaluator *grading.Evaluator
	Scheduler *srs.Scheduler
	// Rand and Now are injectable for deterministic tests; nil selects
	// the runtime defaults.
	Rand *rand.Rand
	Now  func() time.Time
}

// New builds the Flows aggregate.
func New(cfg Config) *Flows {
	if cfg.Evaluator == nil {
		cfg.Evaluator = grading.NewEvaluator()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Flows{
		sessions:  cfg.Sessions,
		homework:  cfg.Homework,
		vocab:     cfg.Vocab,
		users:     cfg.Users,
		lessons:   cfg.Lessons,
		homeworks: cfg.Homeworks,
		grader:    cfg.Grader,
		eval:      cfg.Evaluator,
		scheduler: cfg.Scheduler,
		rng:       cfg.Rand,
		now:       cfg.Now,
	}
}

// Register binds every flow handler onto the dispatcher.
func (f *Flows) Register(d *Dispatcher) {
	d.RegisterAction(ActionExerciseAnswer, f.ExerciseAnswer)
	d.RegisterAction(ActionLearnAnswer, f.LearnAnswer)
	d.RegisterAction(ActionHomeworkAnswer, f.HomeworkAnswer)
	d.RegisterAction(ActionDictPage, f.DictPage)
	d.RegisterAction(ActionCancel, f.Cancel)

	d.RegisterState(StateHomeworkText, f.HomeworkText)
	d.RegisterState(StateDictAddCustom, f.DictAddText)
	d.RegisterState(StateDictSearch, f.DictSearchText)
}

// Cancel abandons whatever flow is active and drops the ephemeral session.
func (f *Flows) Cancel(ctx context.Context, ev Event, _ Token) (*RenderInstruction, error) {
	f.homework.Delete(ev.UserID)
	if err := f.sessions.Clear(ctx, ev.UserID); err != nil {
		return nil, err
	}
	return RenderEdit("Действие отменено."), nil
}
