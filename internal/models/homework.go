package models

import "time"

// QuestionType discriminates how a homework question is asked and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTextInput      QuestionType = "TEXT_INPUT"
	QuestionTranslation    QuestionType = "TRANSLATION"
)

// FreeText reports whether answers are typed rather than picked, which also
// controls whether fuzzy matching applies during grading.
func (t QuestionType) FreeText() bool {
	return t == QuestionTextInput || t == QuestionTranslation
}

// Homework is read-only reference data attached to a lesson.
type Homework struct {
	ID        int64              `json:"id" db:"id"`
	LessonID  int64              `json:"lesson_id" db:"lesson_id"`
	Questions []HomeworkQuestion `json:"questions" db:"-"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// HomeworkQuestion is one graded item. Options is only populated for
// MULTIPLE_CHOICE questions.
type HomeworkQuestion struct {
	ID            int64        `json:"id" db:"id"`
	HomeworkID    int64        `json:"homework_id" db:"homework_id"`
	Position      int          `json:"position" db:"position"`
	QuestionType  QuestionType `json:"question_type" db:"question_type"`
	QuestionText  string       `json:"question_text" db:"question_text"`
	Options       StringList   `json:"options" db:"options"`
	CorrectAnswer string       `json:"correct_answer" db:"correct_answer"`
}

// HomeworkSubmission is one graded attempt. Rows are append-only: a
// resubmission creates a new row and never touches earlier attempts.
type HomeworkSubmission struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	HomeworkID  int64     `json:"homework_id" db:"homework_id"`
	Answers     AnswerMap `json:"answers" db:"answers"`
	Score       int       `json:"score" db:"score"`
	MaxScore    int       `json:"max_score" db:"max_score"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// Perfect reports whether every question was answered correctly, the signal
// callers use for the lesson-unlock policy.
func (s *HomeworkSubmission) Perfect() bool {
	return s.MaxScore > 0 && s.Score == s.MaxScore
}
