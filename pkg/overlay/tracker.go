package overlay

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies one measurement request.
type Token string

// Tracker hands out measurement tokens and remembers which one is current.
// Accepting a result for any other token fails, which gives last-write-wins
// semantics without cancelling the measurement itself.
type Tracker struct {
	mu      sync.Mutex
	current Token
}

// Begin starts a new measurement and supersedes every earlier one.
func (t *Tracker) Begin() Token {
	tok := Token(uuid.NewString())
	t.mu.Lock()
	t.current = tok
	t.mu.Unlock()
	return tok
}

// Current reports the token of the latest measurement, or "" when none is
// in flight.
func (t *Tracker) Current() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Accept reports whether tok is the latest measurement. The first accepted
// result completes the measurement, so a token is accepted at most once.
func (t *Tracker) Accept(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok == "" || tok != t.current {
		return false
	}
	t.current = ""
	return true
}

// Invalidate drops the in-flight measurement, if any.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.current = ""
	t.mu.Unlock()
}
