package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lingobot/internal/flow"
)

// StateRepo persists the single active flow state per user. The payload
// column is opaque JSON owned by the flow package.
type StateRepo struct {
	db *sqlx.DB
}

type stateRow struct {
	State   string `db:"state"`
	Payload []byte `db:"payload"`
}

// Get returns the user's active state and payload, or flow.ErrNoSession when
// the user is idle.
func (r *StateRepo) Get(ctx context.Context, userID int64) (flow.State, []byte, error) {
	var row stateRow
	err := getContext(ctx, r.db, &row,
		`SELECT state, payload FROM user_states WHERE user_id = ?`, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil, flow.ErrNoSession
	}
	if err != nil {
		return "", nil, fmt.Errorf("load state for user %d: %w", userID, err)
	}
	return flow.State(row.State), row.Payload, nil
}

// Set upserts the user's state, replacing whatever flow was active before.
func (r *StateRepo) Set(ctx context.Context, userID int64, state flow.State, payload []byte) error {
	_, err := execContext(ctx, r.db,
		`INSERT INTO user_states (user_id, state, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			state = excluded.state,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		userID, string(state), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save state for user %d: %w", userID, err)
	}
	return nil
}

// Clear removes the user's state row. Clearing an idle user is a no-op.
func (r *StateRepo) Clear(ctx context.Context, userID int64) error {
	if _, err := execContext(ctx, r.db,
		`DELETE FROM user_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear state for user %d: %w", userID, err)
	}
	return nil
}
