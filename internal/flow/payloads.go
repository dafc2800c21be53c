package flow

// LearnQuestionType names the four quiz shapes of the learn-words flow.
type LearnQuestionType string

const (
	QuizRuToTr    LearnQuestionType = "MCQ_RU_TO_TR"
	QuizTrToRu    LearnQuestionType = "MCQ_TR_TO_RU"
	QuizChooseTr  LearnQuestionType = "MCQ_CHOOSE_TR"
	QuizChooseRu  LearnQuestionType = "MCQ_CHOOSE_RU"
)

// ExerciseItem is one multiple-choice exercise fixed at session start. The
// whole sequence is carried in the payload so it stays stable even if the
// underlying vocabulary changes mid-session.
type ExerciseItem struct {
	VocabularyID int64    `json:"vocabulary_id"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	Correct      int      `json:"correct"`
	Explanation  string   `json:"explanation,omitempty"`
}

// ExercisePayload is the EXERCISE flow state. Index is a 0-based cursor that
// only ever moves forward; the session is complete once Index >= len(Items).
type ExercisePayload struct {
	LessonID int64          `json:"lesson_id"`
	Index    int            `json:"index"`
	Items    []ExerciseItem `json:"items"`
}

// Done reports whether the cursor ran past the fixed sequence.
func (p *ExercisePayload) Done() bool { return p.Index >= len(p.Items) }

// LearnQuestion is one generated quiz question of a learn session.
type LearnQuestion struct {
	Type         LearnQuestionType `json:"type"`
	Text         string            `json:"text"`
	Options      []string          `json:"options"`
	Answer       string            `json:"answer"`
	VocabularyID int64             `json:"vocabulary_id"`
}

// LearnPayload is the LEARN_WORDS flow state.
type LearnPayload struct {
	Questions []LearnQuestion `json:"questions"`
	Index     int             `json:"index"`
	Correct   int             `json:"correct"`
}

// Done reports whether the cursor ran past the question list.
func (p *LearnPayload) Done() bool { return p.Index >= len(p.Questions) }

// HomeworkPayload is the HOMEWORK_TEXT flow state. Only the position is
// persisted; draft answers accumulate in the ephemeral session index and are
// lost on restart, in which case the user simply starts the homework over.
type HomeworkPayload struct {
	HomeworkID int64 `json:"homework_id"`
	Index      int   `json:"index"`
}

// Steps of the DICT_ADD_CUSTOM two-step dialog.
const (
	DictAddStepWord        = "word"
	DictAddStepTranslation = "translation"
)

// DictAddPayload is the DICT_ADD_CUSTOM flow state.
type DictAddPayload struct {
	Step string `json:"step"`
	Word string `json:"word,omitempty"`
}

// DictSearchPayload is the DICT_SEARCH flow state. The query is kept in the
// payload so pagination callbacks can re-run it.
type DictSearchPayload struct {
	Query string `json:"query,omitempty"`
	Page  int    `json:"page"`
}
