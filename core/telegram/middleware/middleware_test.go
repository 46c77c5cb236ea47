package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func messageCtx(userID int64, text string) tele.Context {
	return tele.NewContext(nil, tele.Update{
		ID: 1,
		Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
		},
	})
}

func TestRateLimitBlocksWithinInterval(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(messageCtx(7, "a"))
	_ = h(messageCtx(7, "b"))
	_ = h(messageCtx(8, "c"))
	if calls != 2 || limited != 1 {
		t.Fatalf("calls=%d limited=%d, want 2 and 1", calls, limited)
	}
	now = now.Add(time.Second)
	_ = h(messageCtx(7, "d"))
	if calls != 3 {
		t.Fatalf("expected pass after interval, calls=%d", calls)
	}
}

func TestRateLimitExclusions(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(messageCtx(7, "x"))
	}
	if calls != 3 {
		t.Fatalf("excluded kind should pass, calls=%d", calls)
	}
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(messageCtx(1, "x")); err == nil {
		t.Fatalf("expected error from recovered panic")
	}
}

type observed struct {
	kind, status string
}

type recordingObserver struct{ got []observed }

func (r *recordingObserver) ObserveUpdate(kind, status string, _ time.Duration) {
	r.got = append(r.got, observed{kind, status})
}

func TestMessageMetricsReportsKindAndStatus(t *testing.T) {
	obs := &recordingObserver{}
	mw := MessageMetricsMiddleware(obs)
	_ = mw(func(tele.Context) error { return nil })(messageCtx(1, "hi"))
	_ = mw(func(tele.Context) error { return errors.New("x") })(messageCtx(1, "hi"))

	if len(obs.got) != 2 {
		t.Fatalf("observations = %d", len(obs.got))
	}
	if obs.got[0] != (observed{"message", "ok"}) || obs.got[1].status == "ok" {
		t.Fatalf("unexpected observations: %+v", obs.got)
	}
}

func TestAdminOnly(t *testing.T) {
	opts := AdminOptions{AdminID: 42}
	calls := 0
	h := AdminOnlyMiddleware(opts)(func(tele.Context) error { calls++; return nil })
	_ = h(messageCtx(1, "/status"))
	_ = h(messageCtx(42, "/status"))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if (AdminOptions{}).IsAdmin(messageCtx(42, "")) {
		t.Fatalf("no admin configured should reject everyone")
	}
}
