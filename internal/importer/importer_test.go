package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/lingobot/internal/models"
)

// memCourse implements LessonWriter and WordWriter in memory.
type memCourse struct {
	lessons map[string]*models.Lesson
	words   map[int64][]models.Vocabulary
	nextID  int64
}

func newMemCourse() *memCourse {
	return &memCourse{
		lessons: make(map[string]*models.Lesson),
		words:   make(map[int64][]models.Vocabulary),
	}
}

func (m *memCourse) EnsureLesson(ctx context.Context, title string) (*models.Lesson, bool, error) {
	if l, ok := m.lessons[title]; ok {
		return l, false, nil
	}
	m.nextID++
	l := &models.Lesson{ID: m.nextID, Position: len(m.lessons) + 1, Title: title}
	m.lessons[title] = l
	return l, true, nil
}

func (m *memCourse) Create(ctx context.Context, v *models.Vocabulary) error {
	m.nextID++
	v.ID = m.nextID
	m.words[v.LessonID] = append(m.words[v.LessonID], *v)
	return nil
}

func (m *memCourse) WordExists(ctx context.Context, lessonID int64, word string) (bool, error) {
	for _, w := range m.words[lessonID] {
		if strings.EqualFold(w.Word, word) {
			return true, nil
		}
	}
	return false, nil
}

func writeCSV(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportCSV(t *testing.T) {
	path := writeCSV(t, []string{
		"Урок,Слово,Перевод,Пример",
		"Знакомство,merhaba,здравствуйте,Merhaba! Nasılsın?",
		"Знакомство,evet,да",
		"Знакомство,merhaba,привет",
		"Дом,ev,дом,Ev çok güzel.",
	})

	course := newMemCourse()
	im := New(course, course)

	res, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if res.Rows != 4 {
		t.Fatalf("Rows = %d, want 4", res.Rows)
	}
	if res.LessonsCreated != 2 {
		t.Fatalf("LessonsCreated = %d, want 2", res.LessonsCreated)
	}
	if res.WordsCreated != 3 {
		t.Fatalf("WordsCreated = %d, want 3", res.WordsCreated)
	}
	if res.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1 (duplicate word)", res.Skipped)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", res.Errors)
	}

	lesson := course.lessons["Знакомство"]
	if lesson == nil {
		t.Fatal("lesson not created")
	}
	words := course.words[lesson.ID]
	if len(words) != 2 {
		t.Fatalf("lesson has %d words, want 2", len(words))
	}
	if words[0].Example != "Merhaba! Nasılsın?" {
		t.Fatalf("example not kept: %q", words[0].Example)
	}
}

func TestImportMalformedRows(t *testing.T) {
	path := writeCSV(t, []string{
		"lesson,word,translation",
		"Знакомство,su,вода",
		"Знакомство,kedi",
		",ev,дом",
	})

	course := newMemCourse()
	im := New(course, course)

	res, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	if res.WordsCreated != 1 {
		t.Fatalf("WordsCreated = %d, want 1", res.WordsCreated)
	}
	if res.Skipped != 2 {
		t.Fatalf("Skipped = %d, want 2", res.Skipped)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", res.Errors)
	}
}

func TestImportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Урок", "Слово", "Перевод"},
		{"Знакомство", "merhaba", "здравствуйте"},
		{"Знакомство", "evet", "да"},
	}
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, axis, cell); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	course := newMemCourse()
	im := New(course, course)

	res, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.WordsCreated != 2 {
		t.Fatalf("WordsCreated = %d, want 2", res.WordsCreated)
	}
	if res.LessonsCreated != 1 {
		t.Fatalf("LessonsCreated = %d, want 1", res.LessonsCreated)
	}
}
