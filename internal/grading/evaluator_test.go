package grading

import (
	"testing"

	"github.com/m3rciful/lingobot/internal/models"
)

func mcq(correct string, options ...string) models.HomeworkQuestion {
	return models.HomeworkQuestion{
		QuestionType:  models.QuestionMultipleChoice,
		QuestionText:  "Выберите перевод",
		Options:       options,
		CorrectAnswer: correct,
	}
}

func textQ(prompt, correct string) models.HomeworkQuestion {
	return models.HomeworkQuestion{
		QuestionType:  models.QuestionTextInput,
		QuestionText:  prompt,
		CorrectAnswer: correct,
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Merhaba!", "merhaba"},
		{"  merhaba  ", "merhaba"},
		{"Merhaba, dünya!", "merhabadünya"},
		{"Günaydın :-)", "günaydın"},
		{"", ""},
		{"?!..,", ""},
		{"42 elma", "42elma"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsCorrectExactMatchAnyType(t *testing.T) {
	e := NewEvaluator()
	questions := []models.HomeworkQuestion{
		mcq("teşekkürler", "teşekkürler", "merhaba", "evet"),
		textQ("Переведите: спасибо", "teşekkürler"),
		{QuestionType: models.QuestionTranslation, QuestionText: "Переведите", CorrectAnswer: "teşekkürler"},
	}
	for _, q := range questions {
		if !e.IsCorrect(q, q.CorrectAnswer) {
			t.Errorf("canonical answer rejected for %s", q.QuestionType)
		}
		if !e.IsCorrect(q, "Teşekkürler!") {
			t.Errorf("case/punctuation variant rejected for %s", q.QuestionType)
		}
	}
}

func TestIsCorrectEmptySubmission(t *testing.T) {
	e := NewEvaluator()
	for _, q := range []models.HomeworkQuestion{mcq("evet", "evet", "hayır"), textQ("Переведите: да", "evet")} {
		if e.IsCorrect(q, "") {
			t.Errorf("empty submission accepted for %s", q.QuestionType)
		}
		if e.IsCorrect(q, "  !?  ") {
			t.Errorf("punctuation-only submission accepted for %s", q.QuestionType)
		}
	}
}

func TestIsCorrectSubstringOnlyForFreeText(t *testing.T) {
	e := NewEvaluator()

	text := textQ("Переведите: я иду домой", "eve gidiyorum")
	if !e.IsCorrect(text, "Ben şimdi eve gidiyorum.") {
		t.Error("embedded canonical answer must be accepted for TEXT_INPUT")
	}

	choice := mcq("eve gidiyorum", "eve gidiyorum", "okula gidiyorum")
	if e.IsCorrect(choice, "Ben şimdi eve gidiyorum.") {
		t.Error("substring rule must not apply to MULTIPLE_CHOICE")
	}
	if e.IsCorrect(choice, "okula gidiyorum") {
		t.Error("wrong option must never be accepted")
	}
}

func TestIsCorrectStartCue(t *testing.T) {
	e := NewEvaluator()
	q := textQ("Составьте предложение. Начните с: Ben her gün", "ben her gün kitap okuyorum")

	if !e.IsCorrect(q, "Ben her gün çay içerim") {
		t.Error("submission starting with the cue phrase must be accepted")
	}
	if e.IsCorrect(q, "Her gün çay içerim") {
		t.Error("submission missing the cue opening must not match the cue rule")
	}

	// Same prompt on a MULTIPLE_CHOICE question must not trigger the cue rule.
	mc := mcq("ben her gün kitap okuyorum", "ben her gün kitap okuyorum", "evet")
	mc.QuestionText = q.QuestionText
	if e.IsCorrect(mc, "Ben her gün çay içerim") {
		t.Error("cue rule must not apply to MULTIPLE_CHOICE")
	}
}

func TestIsCorrectEnglishCueMarker(t *testing.T) {
	e := NewEvaluator()
	q := models.HomeworkQuestion{
		QuestionType:  models.QuestionTranslation,
		QuestionText:  "Make a sentence. Start with: Dün akşam",
		CorrectAnswer: "dün akşam sinemaya gittim",
	}
	if !e.IsCorrect(q, "Dün akşam evde kaldım") {
		t.Error("english cue marker must be recognized")
	}
}
