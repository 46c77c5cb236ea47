package session

import (
	"testing"
	"time"
)

type formState struct {
	Step string
	Age  int
}

func TestGetReturnsDefault(t *testing.T) {
	s := New(Options[formState]{Default: func() formState { return formState{Step: "idle"} }})
	if got := s.Get(1); got.Step != "idle" {
		t.Fatalf("default state = %+v", got)
	}
	if s.Len() != 0 {
		t.Fatalf("Get must not create sessions, len=%d", s.Len())
	}
}

func TestSetAndClear(t *testing.T) {
	s := New(Options[formState]{})
	s.Set(7, formState{Step: "ask_age"})
	if got := s.Get(7); got.Step != "ask_age" {
		t.Fatalf("got %+v", got)
	}
	s.Clear(7)
	s.Clear(7)
	if got := s.Get(7); got != (formState{}) {
		t.Fatalf("cleared state = %+v", got)
	}
}

func TestSetStoresCopy(t *testing.T) {
	s := New(Options[formState]{})
	st := formState{Step: "ask_name"}
	s.Set(1, st)
	st.Step = "changed"
	if got := s.Get(1); got.Step != "ask_name" {
		t.Fatalf("store aliased caller value: %+v", got)
	}
}

func TestSweepEvictsOnlyIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(Options[formState]{IdleTTL: 10 * time.Minute, Now: func() time.Time { return now }})

	s.Set(1, formState{Step: "a"})
	now = now.Add(8 * time.Minute)
	s.Set(2, formState{Step: "b"})
	now = now.Add(5 * time.Minute)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if s.Get(1).Step != "" || s.Get(2).Step != "b" {
		t.Fatalf("wrong session evicted: 1=%+v 2=%+v", s.Get(1), s.Get(2))
	}
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	now := time.Now()
	s := New(Options[formState]{Now: func() time.Time { return now }})
	s.Set(1, formState{})
	now = now.Add(24 * time.Hour)
	if removed := s.Sweep(); removed != 0 || s.Len() != 1 {
		t.Fatalf("sweep without ttl removed %d", removed)
	}
}
