package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
)

// State identifies the active flow of a user. An absent row means idle.
type State string

const (
	StateExercise      State = "EXERCISE"
	StateLearnWords    State = "LEARN_WORDS"
	StateHomeworkText  State = "HOMEWORK_TEXT"
	StateDictAddCustom State = "DICT_ADD_CUSTOM"
	StateDictSearch    State = "DICT_SEARCH"
)

// ErrNoSession is returned when a user has no active flow.
var ErrNoSession = errors.New("flow: no active session")

// StateStore persists the single (state, payload) pair per user with upsert
// semantics. Implementations return ErrNoSession from Get when no row exists.
type StateStore interface {
	Get(ctx context.Context, userID int64) (State, []byte, error)
	Set(ctx context.Context, userID int64, state State, payload []byte) error
	Clear(ctx context.Context, userID int64) error
}

// Sessions wraps a StateStore with the payload codec and the fail-safe rules:
// a malformed payload is logged and treated as "no session" rather than
// surfaced as an error.
type Sessions struct {
	store StateStore
}

// NewSessions wraps the given store.
func NewSessions(store StateStore) *Sessions {
	return &Sessions{store: store}
}

// Load reads the user's active state and decodes its payload into dst.
// It returns ErrNoSession when the user is idle, when the persisted tag does
// not match want, or when the payload cannot be decoded.
func (s *Sessions) Load(ctx context.Context, userID int64, want State, dst any) error {
	st, raw, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if st != want {
		return ErrNoSession
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.FLOW.Warn("malformed flow payload",
			slog.String("event", "flow.payload.malformed"),
			slog.Int64("user_id", userID),
			slog.String("flow", string(st)),
			slog.String("err", err.Error()),
		)
		return ErrNoSession
	}
	return nil
}

// Save encodes the payload and upserts the user's state, replacing any flow
// that was active before.
func (s *Sessions) Save(ctx context.Context, userID int64, state State, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", state, err)
	}
	return s.store.Set(ctx, userID, state, raw)
}

// Clear removes the user's active flow. Clearing an idle user is a no-op.
func (s *Sessions) Clear(ctx context.Context, userID int64) error {
	return s.store.Clear(ctx, userID)
}

// Current returns the user's active state tag, or "" when idle.
func (s *Sessions) Current(ctx context.Context, userID int64) (State, error) {
	st, _, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return st, nil
}
