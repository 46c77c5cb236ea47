package conversation

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestEventCommand(t *testing.T) {
	cases := map[string]string{
		"/start":            "/start",
		"  /Help  ":         "/help",
		"/stats@deplot_bot": "/stats",
		"/menu please":      "/menu",
	}
	for in, want := range cases {
		got, ok := TextEvent(1, in).Command()
		if !ok || got != want {
			t.Fatalf("Command(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := TextEvent(1, "56").Command(); ok {
		t.Fatal("plain text must not be a command")
	}
	if _, ok := ButtonEvent(1, "/start").Command(); ok {
		t.Fatal("buttons are never commands")
	}
}

func TestButtonTag(t *testing.T) {
	name, payload := ButtonEvent(1, "category:math").ButtonTag()
	if name != TagCategory || payload != "math" {
		t.Fatalf("got %q %q", name, payload)
	}
	name, payload = ButtonEvent(1, "menu").ButtonTag()
	if name != TagMenu || payload != "" {
		t.Fatalf("got %q %q", name, payload)
	}
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("age %q: %w", "abc", ErrMalformedInput)
	if got := ErrorCode(wrapped); got != "MALFORMED_INPUT" {
		t.Fatalf("ErrorCode = %s", got)
	}
	if got := ErrorCode(errors.New("x")); got != "INTERNAL" {
		t.Fatalf("ErrorCode = %s", got)
	}
	if got := ErrorCode(nil); got != "" {
		t.Fatalf("ErrorCode(nil) = %s", got)
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var (
		km      KeyedMutex
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d", counter)
	}
	if len(km.locks) != 0 {
		t.Fatalf("entries leaked: %d", len(km.locks))
	}
}
