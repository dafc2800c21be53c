package models

import "time"

// Vocabulary is a single Turkish word with its Russian translation.
// Custom entries added by users carry a non-zero OwnerID and no lesson.
type Vocabulary struct {
	ID          int64     `json:"id" db:"id"`
	LessonID    int64     `json:"lesson_id" db:"lesson_id"`
	Word        string    `json:"word" db:"word"`
	Translation string    `json:"translation" db:"translation"`
	Example     string    `json:"example" db:"example"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Lesson groups vocabulary and homework into an ordered course unit.
type Lesson struct {
	ID        int64     `json:"id" db:"id"`
	Position  int       `json:"position" db:"position"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
