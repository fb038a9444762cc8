package engine

import (
	"testing"
	"time"
)

func TestSessionTable(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewSessionTable()
	st.now = func() time.Time { return now }

	a := st.Create("calc")
	b := st.Create("calc")
	c := st.Create("echo")
	if a.ID() == b.ID() {
		t.Fatalf("duplicate session id %s", a.ID())
	}
	if got := st.Lookup("calc", a.ID()); got != a {
		t.Errorf("SessionTable.Lookup() = %v, want %v", got, a)
	}
	if got := st.Lookup("echo", a.ID()); got != nil {
		t.Errorf("SessionTable.Lookup() across services = %v", got)
	}

	now = now.Add(time.Minute)
	st.Lookup("calc", b.ID())
	now = now.Add(30 * time.Second)
	if n := st.Sweep(45 * time.Second); n != 2 {
		t.Errorf("SessionTable.Sweep() = %d, want 2", n)
	}
	if st.Lookup("calc", b.ID()) != b {
		t.Errorf("recently used session was swept")
	}
	if st.Lookup("echo", c.ID()) != nil {
		t.Errorf("idle session survived sweep")
	}

	st.Remove("calc", b.ID())
	if n := st.Len("calc"); n != 0 {
		t.Errorf("SessionTable.Len() = %d, want 0", n)
	}
}

func TestSession_load(t *testing.T) {
	s := &Session{}
	calls := 0
	newFn := func() (any, error) {
		calls++
		return calls, nil
	}
	for i := 0; i < 3; i++ {
		v, err := s.load("k", newFn)
		if err != nil || v != 1 {
			t.Fatalf("Session.load() = %v, %v", v, err)
		}
	}
	s.Set("x", "y")
	if v, ok := s.Get("x"); !ok || v != "y" {
		t.Errorf("Session.Get() = %v, %v", v, ok)
	}
}
