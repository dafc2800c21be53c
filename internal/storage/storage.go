// Package storage implements the sqlx repositories behind the bot's domain
// interfaces. Queries are written with ? placeholders and rebound per driver,
// so the same repositories run on postgres and sqlite.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Repositories bundles every repository over one shared connection pool.
type Repositories struct {
	Users       *UserRepo
	Lessons     *LessonRepo
	Vocabulary  *VocabularyRepo
	Homework    *HomeworkRepo
	Cards       *CardRepo
	States      *StateRepo
	Submissions *SubmissionRepo
}

// New wires all repositories onto the given pool.
func New(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:       &UserRepo{db: db},
		Lessons:     &LessonRepo{db: db},
		Vocabulary:  &VocabularyRepo{db: db},
		Homework:    &HomeworkRepo{db: db},
		Cards:       &CardRepo{db: db},
		States:      &StateRepo{db: db},
		Submissions: &SubmissionRepo{db: db},
	}
}

func getContext(ctx context.Context, db *sqlx.DB, dest any, query string, args ...any) error {
	err := db.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func selectContext(ctx context.Context, db *sqlx.DB, dest any, query string, args ...any) error {
	return db.SelectContext(ctx, dest, db.Rebind(query), args...)
}

func execContext(ctx context.Context, db *sqlx.DB, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

// insertID runs an insert and reports the new row id. Postgres has no
// LastInsertId, so the query is re-issued with RETURNING there.
func insertID(ctx context.Context, db *sqlx.DB, query string, args ...any) (int64, error) {
	if db.DriverName() == "postgres" {
		var id int64
		err := db.QueryRowContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := execContext(ctx, db, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
