package flow

import (
	"strconv"
	"strings"
)

// Callback tokens are colon-separated positional strings: the first field is
// the action name, the rest are parameters, e.g.
// "exercise_answer:12:340:2". The transport only carries short opaque
// strings, so everything is encoded as text.

// Token is a parsed callback token.
type Token struct {
	Action string
	Args   []string
}

// EncodeToken builds the wire form of an action token.
func EncodeToken(action string, args ...string) string {
	if len(args) == 0 {
		return action
	}
	return action + ":" + strings.Join(args, ":")
}

// EncodeTokenInts builds a token from integer parameters.
func EncodeTokenInts(action string, args ...int64) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strconv.FormatInt(a, 10)
	}
	return EncodeToken(action, parts...)
}

// ParseToken splits a raw callback token. It never fails: an empty input
// yields an empty action, which no handler is registered for, turning
// malformed callbacks into no-ops downstream.
func ParseToken(raw string) Token {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	t := Token{Action: parts[0]}
	if len(parts) > 1 {
		t.Args = parts[1:]
	}
	return t
}

// Int64 returns the i-th parameter as int64. Missing or non-numeric fields
// report ok=false so handlers can bail out as a no-op instead of panicking.
func (t Token) Int64(i int) (int64, bool) {
	if i < 0 || i >= len(t.Args) {
		return 0, false
	}
	v, err := strconv.ParseInt(t.Args[i], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int returns the i-th parameter as int.
func (t Token) Int(i int) (int, bool) {
	v, ok := t.Int64(i)
	return int(v), ok
}
