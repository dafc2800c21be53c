package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/models"
)

// UserRepo persists learner accounts.
type UserRepo struct {
	db *sqlx.DB
}

// UserByID loads a user by internal id.
func (r *UserRepo) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := getContext(ctx, r.db, &u, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &u, nil
}

// UserByTelegramID loads a user by their Telegram identity.
func (r *UserRepo) UserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	err := getContext(ctx, r.db, &u, `SELECT * FROM users WHERE telegram_id = ?`, telegramID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user tg=%d: %w", telegramID, err)
	}
	return &u, nil
}

// EnsureUser returns the user for the Telegram identity, creating the account
// on first contact. New users start at the given lesson. Username and first
// name are refreshed on every call.
func (r *UserRepo) EnsureUser(ctx context.Context, telegramID int64, username, firstName string, startLessonID int64) (*models.User, error) {
	u, err := r.UserByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if u.Username == username && u.FirstName == firstName {
			return u, nil
		}
		_, err = execContext(ctx, r.db,
			`UPDATE users SET username = ?, first_name = ?, updated_at = ? WHERE id = ?`,
			username, firstName, time.Now().UTC(), u.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh user %d: %w", u.ID, err)
		}
		u.Username = username
		u.FirstName = firstName
		return u, nil

	case errors.Is(err, ErrNotFound):
		now := time.Now().UTC()
		id, insErr := insertID(ctx, r.db,
			`INSERT INTO users (telegram_id, username, first_name, current_lesson_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			telegramID, username, firstName, startLessonID, now, now)
		if insErr != nil {
			return nil, fmt.Errorf("create user tg=%d: %w", telegramID, insErr)
		}
		return &models.User{
			ID:              id,
			TelegramID:      telegramID,
			Username:        username,
			FirstName:       firstName,
			CurrentLessonID: startLessonID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, nil

	default:
		return nil, err
	}
}

// SetCurrentLesson moves the user's lesson-unlock pointer.
func (r *UserRepo) SetCurrentLesson(ctx context.Context, userID, lessonID int64) error {
	res, err := execContext(ctx, r.db,
		`UPDATE users SET current_lesson_id = ?, updated_at = ? WHERE id = ?`,
		lessonID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set lesson for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveUsers lists every registered user, used by the reminder job.
func (r *UserRepo) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := selectContext(ctx, r.db, &users, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
