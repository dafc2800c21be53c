package flow

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/m3rciful/lingobot/core/logger"
)

// Event is one inbound update, already stripped of transport details.
// Exactly one of Token, Command, or Text is meaningful.
type Event struct {
	UserID    int64
	ChatID    int64
	UpdateID  int
	MessageID int
	// Token is the raw callback token for button presses.
	Token string
	// Command is a leading-slash bot command, without arguments.
	Command string
	// Text is a free-text message.
	Text string
}

// Handler processes a command or a free-text message in some flow state.
type Handler func(ctx context.Context, ev Event) (*RenderInstruction, error)

// ActionHandler processes a parsed callback token.
type ActionHandler func(ctx context.Context, ev Event, t Token) (*RenderInstruction, error)

// Dispatcher routes events to flow handlers: callbacks by action name,
// commands by name, and free text by the user's persisted state tag.
// A nil instruction with a nil error is a deliberate no-op (stale or
// malformed input).
type Dispatcher struct {
	sessions *Sessions
	actions  map[string]ActionHandler
	commands map[string]Handler
	states   map[State]Handler
}

// NewDispatcher builds an empty dispatcher over the given session store.
func NewDispatcher(sessions *Sessions) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		actions:  make(map[string]ActionHandler),
		commands: make(map[string]Handler),
		states:   make(map[State]Handler),
	}
}

// RegisterAction maps a callback action name to its handler.
func (d *Dispatcher) RegisterAction(name string, h ActionHandler) {
	if name == "" || h == nil {
		return
	}
	d.actions[name] = h
}

// RegisterCommand maps a command (with leading slash) to its handler.
func (d *Dispatcher) RegisterCommand(name string, h Handler) {
	if name == "" || h == nil {
		return
	}
	d.commands[name] = h
}

// RegisterState maps a flow state to the handler of free-text messages
// arriving while that state is active.
func (d *Dispatcher) RegisterState(st State, h Handler) {
	if st == "" || h == nil {
		return
	}
	d.states[st] = h
}

// Handle routes one event. Unroutable events (unknown action, unknown
// command, free text while idle) return (nil, nil): duplicate and stale
// callbacks are expected from network retries and must never crash or error.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (*RenderInstruction, error) {
	start := time.Now()
	switch {
	case ev.Token != "":
		return d.handleToken(ctx, ev, start)
	case ev.Command != "":
		h, ok := d.commands[ev.Command]
		if !ok {
			return nil, nil
		}
		return h(ctx, ev)
	case ev.Text != "":
		return d.handleText(ctx, ev)
	}
	return nil, nil
}

func (d *Dispatcher) handleToken(ctx context.Context, ev Event, start time.Time) (*RenderInstruction, error) {
	t := ParseToken(ev.Token)
	h, ok := d.actions[t.Action]
	if !ok {
		logger.FLOW.Debug("unknown callback action",
			slog.String("event", "flow.action.unknown"),
			slog.Int64("user_id", ev.UserID),
			slog.String("payload", logger.SanitizeLimit(ev.Token, 64)),
		)
		return nil, nil
	}
	out, err := h(ctx, ev, t)
	logger.FLOW.Debug("action handled",
		slog.String("event", "flow.action.handled"),
		slog.Int64("user_id", ev.UserID),
		slog.String("op", t.Action),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, err
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) (*RenderInstruction, error) {
	st, err := d.sessions.Current(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	h, ok := d.states[st]
	if !ok {
		return nil, nil
	}
	out, err := h(ctx, ev)
	if errors.Is(err, ErrNoSession) {
		// The state row vanished between the lookup and the handler; treat
		// exactly like a stale message.
		return nil, nil
	}
	return out, err
}

// InProgress reports whether the user currently has an active flow.
func (d *Dispatcher) InProgress(ctx context.Context, userID int64) bool {
	st, err := d.sessions.Current(ctx, userID)
	return err == nil && st != ""
}
