// Package importer loads course vocabulary from spreadsheet files.
// Expected columns: lesson title, word, translation, optional example.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
	"github.com/m3rciful/lingobot/internal/models"
)

// LessonWriter resolves or creates lessons by title.
type LessonWriter interface {
	EnsureLesson(ctx context.Context, title string) (*models.Lesson, bool, error)
}

// WordWriter inserts course words, skipping duplicates within a lesson.
type WordWriter interface {
	Create(ctx context.Context, v *models.Vocabulary) error
	WordExists(ctx context.Context, lessonID int64, word string) (bool, error)
}

// Result summarizes one import run.
type Result struct {
	Rows           int
	LessonsCreated int
	WordsCreated   int
	Skipped        int
	Errors         []string
}

// Importer reads xlsx or csv course files into the vocabulary tables.
type Importer struct {
	lessons LessonWriter
	words   WordWriter
	// Sheet is the worksheet read from xlsx files. Empty selects the
	// workbook's first sheet.
	Sheet string
}

// New wires an Importer.
func New(lessons LessonWriter, words WordWriter) *Importer {
	return &Importer{lessons: lessons, words: words}
}

// ImportFile dispatches on the file extension: .csv is parsed as
// comma-separated text, anything else is handed to excelize.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSV(path)
	} else {
		rows, err = im.readXLSX(path)
	}
	if err != nil {
		return nil, err
	}
	return im.importRows(ctx, rows)
}

func (im *Importer) readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := im.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (*Result, error) {
	res := &Result{}
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		res.Rows++
		if err := im.importRow(ctx, row, res); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
		}
	}

	logger.SEED.Info("course import done",
		slog.String("event", "import.done"),
		slog.Int("count", res.WordsCreated),
		slog.Int("lessons", res.LessonsCreated),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (im *Importer) importRow(ctx context.Context, row []string, res *Result) error {
	if len(row) < 3 {
		res.Skipped++
		return fmt.Errorf("want at least 3 columns, got %d", len(row))
	}
	title := strings.TrimSpace(row[0])
	word := strings.TrimSpace(row[1])
	translation := strings.TrimSpace(row[2])
	example := ""
	if len(row) > 3 {
		example = strings.TrimSpace(row[3])
	}
	if title == "" || word == "" || translation == "" {
		res.Skipped++
		return fmt.Errorf("empty lesson, word or translation")
	}

	lesson, created, err := im.lessons.EnsureLesson(ctx, title)
	if err != nil {
		return err
	}
	if created {
		res.LessonsCreated++
	}

	exists, err := im.words.WordExists(ctx, lesson.ID, word)
	if err != nil {
		return err
	}
	if exists {
		res.Skipped++
		return nil
	}

	v := &models.Vocabulary{
		LessonID:    lesson.ID,
		Word:        word,
		Translation: translation,
		Example:     example,
	}
	if err := im.words.Create(ctx, v); err != nil {
		return err
	}
	res.WordsCreated++
	return nil
}

func isHeader(row []string) bool {
	if len(row) < 3 {
		return true
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "lesson" || first == "урок" || first == "тема"
}
