package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds per-client state across invocations of one service.
type Session struct {
	id      string
	service string

	mu       sync.Mutex
	values   map[string]any
	lastUsed time.Time
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Service() string {
	return s.service
}

func (s *Session) Get(name string) (any, bool) {
	s.mu.Lock()
	v, ok := s.values[name]
	s.mu.Unlock()
	return v, ok
}

func (s *Session) Set(name string, value any) {
	s.mu.Lock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = value
	s.mu.Unlock()
}

// load returns the value stored under name, creating it with newFn first if
// absent.
func (s *Session) load(name string, newFn func() (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	v, err := newFn()
	if err != nil {
		return nil, err
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = v
	return v, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionTable indexes sessions by service name and session id.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]map[string]*Session
	now      func() time.Time
}

func NewSessionTable() *SessionTable {
	return &SessionTable{
		sessions: make(map[string]map[string]*Session),
		now:      time.Now,
	}
}

func (t *SessionTable) Create(service string) *Session {
	s := &Session{
		id:       uuid.NewString(),
		service:  service,
		lastUsed: t.now(),
	}
	t.mu.Lock()
	byID := t.sessions[service]
	if byID == nil {
		byID = make(map[string]*Session)
		t.sessions[service] = byID
	}
	byID[s.id] = s
	t.mu.Unlock()
	return s
}

// Lookup returns a live session and marks it used.
func (t *SessionTable) Lookup(service string, id string) *Session {
	t.mu.Lock()
	s := t.sessions[service][id]
	t.mu.Unlock()
	if s != nil {
		s.touch(t.now())
	}
	return s
}

func (t *SessionTable) Remove(service string, id string) {
	t.mu.Lock()
	if byID := t.sessions[service]; byID != nil {
		delete(byID, id)
		if len(byID) == 0 {
			delete(t.sessions, service)
		}
	}
	t.mu.Unlock()
}

// Sweep drops sessions unused for longer than idle and reports how many were
// removed.
func (t *SessionTable) Sweep(idle time.Duration) int {
	deadline := t.now().Add(-idle)
	n := 0
	t.mu.Lock()
	for service, byID := range t.sessions {
		for id, s := range byID {
			if s.idleSince().Before(deadline) {
				delete(byID, id)
				n++
			}
		}
		if len(byID) == 0 {
			delete(t.sessions, service)
		}
	}
	t.mu.Unlock()
	return n
}

func (t *SessionTable) Len(service string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions[service])
}
