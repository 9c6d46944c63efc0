package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Turn is one user/bot exchange in a conversation.
type Turn struct {
	User string
	Bot  string
	At   time.Time
}

type entry struct {
	turns    []Turn
	lastSeen time.Time
}

// Store keeps per-session conversation history in memory. Sessions that
// stay idle past the timeout are evicted by Sweep. transcriptCap counts
// transcript entries (user and bot messages separately), so each turn
// costs two against it.
type Store struct {
	mu            sync.Mutex
	sessions      map[string]*entry
	timeout       time.Duration
	transcriptCap int
}

func NewStore(timeout time.Duration, transcriptCap int) *Store {
	return &Store{
		sessions:      make(map[string]*entry),
		timeout:       timeout,
		transcriptCap: transcriptCap,
	}
}

// Touch marks the session as active, creating it if needed.
func (s *Store) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked(sessionID)
}

func (s *Store) touchLocked(sessionID string) *entry {
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	e.lastSeen = time.Now()
	return e
}

// AppendTurn records an exchange, dropping the oldest turns once the
// transcript entry cap is exceeded. A turn holds two entries.
func (s *Store) AppendTurn(sessionID, userMsg, botMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touchLocked(sessionID)
	e.turns = append(e.turns, Turn{User: userMsg, Bot: botMsg, At: time.Now()})
	if over := len(e.turns) - s.transcriptCap/2; over > 0 {
		e.turns = e.turns[over:]
	}
}

// History renders recent turns as alternating User:/Bot: lines for prompt
// construction, capped at maxMessages lines. Empty string when the session
// is new or expired.
func (s *Store) History(sessionID string, maxMessages int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok || len(e.turns) == 0 {
		return ""
	}

	turns := e.turns
	if maxTurns := maxMessages / 2; len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "User: %s\nBot: %s\n", t.User, t.Bot)
	}
	return b.String()
}

// Sweep evicts sessions idle longer than the timeout and returns how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.timeout)
	evicted := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("expired sessions evicted", "count", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// Count returns the number of live sessions after evicting expired ones.
func (s *Store) Count() int {
	s.Sweep()
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
