package models

import "time"

// User is a learner registered with the bot. TelegramID is the external
// identity; CurrentLessonID is the lesson-unlock pointer advanced by the
// perfect-homework policy.
type User struct {
	ID              int64     `json:"id" db:"id"`
	TelegramID      int64     `json:"telegram_id" db:"telegram_id"`
	Username        string    `json:"username" db:"username"`
	FirstName       string    `json:"first_name" db:"first_name"`
	CurrentLessonID int64     `json:"current_lesson_id" db:"current_lesson_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
