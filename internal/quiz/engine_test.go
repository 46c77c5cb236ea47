package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ranggaxyy/deplot-bot/internal/conversation"
	"github.com/ranggaxyy/deplot-bot/internal/questions"
	"github.com/ranggaxyy/deplot-bot/internal/ratelimit"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type countingRecorder struct {
	mu        sync.Mutex
	started   map[string]int
	rejected  map[ratelimit.Reason]int
	outcomes  map[string]int
	abandoned int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		started:  map[string]int{},
		rejected: map[ratelimit.Reason]int{},
		outcomes: map[string]int{},
	}
}

func (r *countingRecorder) GameStarted(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started[category]++
}

func (r *countingRecorder) GuardRejected(reason ratelimit.Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

func (r *countingRecorder) AnswerGraded(_ string, outcome string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) GameAbandoned(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandoned++
}

var fixedSets = map[questions.Category][]questions.Question{
	questions.Math:   {{Text: "Berapa 7 × 8?", Answer: "56", Difficulty: questions.Easy}},
	questions.Riddle: {{Text: "Punya banyak gigi tapi tidak menggigit?", Answer: "Sisir", Difficulty: questions.Medium}},
}

type harness struct {
	engine *Engine
	clock  *testClock
	rec    *countingRecorder
}

func newHarness(t *testing.T, opts ratelimit.Options) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	opts.Location = time.UTC
	rec := newCountingRecorder()
	eng, err := New(Options{
		Bank:     questions.NewBank(rand.New(rand.NewSource(1)), fixedSets),
		Limiter:  ratelimit.New(opts),
		Recorder: rec,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &harness{engine: eng, clock: clock, rec: rec}
}

func (h *harness) text(user int64, text string) []conversation.OutgoingMessage {
	return h.engine.Handle(context.Background(), conversation.TextEvent(user, text))
}

func (h *harness) button(user int64, tag string) []conversation.OutgoingMessage {
	return h.engine.Handle(context.Background(), conversation.ButtonEvent(user, tag))
}

func single(t *testing.T, out []conversation.OutgoingMessage) conversation.OutgoingMessage {
	t.Helper()
	if len(out) != 1 {
		t.Fatalf("expected one message, got %d: %+v", len(out), out)
	}
	return out[0]
}

func TestFirstMathGameSolvedWithFiftySix(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})

	q := single(t, h.text(1, "math"))
	if !strings.Contains(q.Text, "7 × 8") || q.Keyboard != conversation.KeyboardBackToMenu {
		t.Fatalf("unexpected question message: %+v", q)
	}
	if st := h.engine.State(1); st.Kind != KindActiveGame || st.Attempts != 0 || st.Category != questions.Math {
		t.Fatalf("state after start = %+v", st)
	}

	msg := single(t, h.text(1, "  56 "))
	if !strings.Contains(msg.Text, "Benar") || !strings.Contains(msg.Text, "1 percobaan") {
		t.Fatalf("unexpected success message: %q", msg.Text)
	}
	if msg.Keyboard != conversation.KeyboardMainMenu {
		t.Fatalf("keyboard = %v", msg.Keyboard)
	}
	if st := h.engine.State(1); st.Kind != KindMainMenu {
		t.Fatalf("state after solve = %+v", st)
	}
	if got := h.engine.Limiter().GamesToday(1); got != 1 {
		t.Fatalf("games today = %d, want 1", got)
	}
}

func TestSolvedOnThirdAttempt(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	h.button(1, "category:riddle")

	if msg := single(t, h.text(1, "gunting")); !strings.Contains(msg.Text, "sisa <b>2</b> percobaan") {
		t.Fatalf("first wrong answer: %q", msg.Text)
	}
	if msg := single(t, h.text(1, "pisau")); !strings.Contains(msg.Text, "sisa <b>1</b> percobaan") {
		t.Fatalf("second wrong answer: %q", msg.Text)
	}
	if st := h.engine.State(1); st.Kind != KindActiveGame || st.Attempts != 2 {
		t.Fatalf("state after two misses = %+v", st)
	}
	msg := single(t, h.text(1, "SISIR"))
	if !strings.Contains(msg.Text, "3 percobaan") {
		t.Fatalf("success message should report 3 attempts: %q", msg.Text)
	}
	if h.engine.State(1).Kind != KindMainMenu {
		t.Fatalf("expected main menu after solve")
	}
	if h.rec.outcomes[OutcomeWrong] != 2 || h.rec.outcomes[OutcomeSolved] != 1 {
		t.Fatalf("recorded outcomes = %v", h.rec.outcomes)
	}
}

func TestExhaustedAttemptsRevealAnswer(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	h.button(1, "category:math")
	h.text(1, "")
	h.text(1, "55")
	msg := single(t, h.text(1, "57"))
	if !strings.Contains(msg.Text, "<code>56</code>") {
		t.Fatalf("failure message must reveal the answer: %q", msg.Text)
	}
	if h.engine.State(1).Kind != KindMainMenu {
		t.Fatalf("expected main menu after exhausting attempts")
	}
	if h.rec.outcomes[OutcomeExhausted] != 1 {
		t.Fatalf("recorded outcomes = %v", h.rec.outcomes)
	}
}

func TestReturnToMenuIsIdempotent(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})

	first := single(t, h.button(1, "menu"))
	second := single(t, h.text(1, "/menu"))
	if first != second || first.Text != msgBackToMenu {
		t.Fatalf("menu confirmations differ: %+v vs %+v", first, second)
	}
	if h.engine.Sessions().Len() != 0 {
		t.Fatalf("main menu should not hold a session")
	}

	h.button(1, "category:math")
	h.clock.advance(time.Second)
	out := single(t, h.text(1, "🏠 Menu"))
	if out != first {
		t.Fatalf("menu from active game = %+v", out)
	}
	if h.engine.State(1).Kind != KindMainMenu {
		t.Fatalf("expected main menu")
	}
	if got := h.engine.Limiter().GamesToday(1); got != 1 {
		t.Fatalf("returning to menu must not touch counters, games today = %d", got)
	}
	if h.rec.abandoned != 1 {
		t.Fatalf("abandoned = %d", h.rec.abandoned)
	}
}

func TestCooldownRejectsAndKeepsMainMenu(t *testing.T) {
	h := newHarness(t, ratelimit.Options{Cooldown: 10 * time.Second})
	h.button(1, "category:math")
	h.text(1, "56")

	h.clock.advance(5 * time.Second)
	msg := single(t, h.button(1, "category:math"))
	if !strings.Contains(msg.Text, "Tunggu 10 detik") {
		t.Fatalf("cooldown message = %q", msg.Text)
	}
	if h.engine.State(1).Kind != KindMainMenu {
		t.Fatalf("rejected start must stay in main menu")
	}

	// The rejected check at t=5 pushed the cooldown to t=15.
	h.clock.advance(6 * time.Second)
	if msg := single(t, h.button(1, "category:math")); !strings.Contains(msg.Text, "Tunggu") {
		t.Fatalf("start at t=11 should still be cooling down, got %q", msg.Text)
	}
	h.clock.advance(10 * time.Second)
	h.button(1, "category:math")
	if h.engine.State(1).Kind != KindActiveGame {
		t.Fatalf("start after a full quiet cooldown should succeed")
	}
	if h.rec.rejected[ratelimit.ReasonCooldown] != 2 {
		t.Fatalf("rejections = %v", h.rec.rejected)
	}
}

func TestGuardRejectionCarriesRateLimitedCode(t *testing.T) {
	h := newHarness(t, ratelimit.Options{Cooldown: 10 * time.Second})
	ctx := context.Background()
	if _, _, err := h.engine.startGame(ctx, 1, questions.Math); err != nil {
		t.Fatalf("first start: %v", err)
	}
	st, out, err := h.engine.startGame(ctx, 1, questions.Math)
	if !errors.Is(err, conversation.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if code := conversation.ErrorCode(err); code != "RATE_LIMITED" {
		t.Fatalf("code = %q", code)
	}
	if !strings.Contains(err.Error(), string(ratelimit.ReasonCooldown)) {
		t.Fatalf("reason missing from %q", err)
	}
	if st.Kind != KindMainMenu || len(out) != 1 {
		t.Fatalf("state = %+v, out = %+v", st, out)
	}
}

func TestClearToMainMenuDropsActiveGame(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	ctx := context.Background()

	if h.engine.ClearToMainMenu(ctx, 1) {
		t.Fatal("user in main menu reported a dropped game")
	}
	h.button(1, "category:math")
	if !h.engine.ClearToMainMenu(ctx, 1) {
		t.Fatal("active game not reported")
	}
	if st := h.engine.State(1); st.Kind != KindMainMenu {
		t.Fatalf("state = %+v", st)
	}
	if h.engine.Sessions().Len() != 0 || h.rec.abandoned != 1 {
		t.Fatalf("sessions = %d, abandoned = %d", h.engine.Sessions().Len(), h.rec.abandoned)
	}
	if got := h.engine.Limiter().GamesToday(1); got != 1 {
		t.Fatalf("clearing must keep counters, games today = %d", got)
	}
	// Answers after a clear are read as category text, not as answers.
	if msg := single(t, h.text(1, "56")); msg.Text != msgNotUnderstood {
		t.Fatalf("text after clear = %q", msg.Text)
	}
}

func TestDailyCapRejects(t *testing.T) {
	h := newHarness(t, ratelimit.Options{MaxDailyGames: 2, Cooldown: time.Second})
	for i := 0; i < 2; i++ {
		h.button(1, "category:math")
		h.button(1, "menu")
		h.clock.advance(2 * time.Second)
	}
	msg := single(t, h.button(1, "category:riddle"))
	if !strings.Contains(msg.Text, "batas <b>2</b> permainan") {
		t.Fatalf("daily limit message = %q", msg.Text)
	}
	if h.engine.State(1).Kind != KindMainMenu || h.engine.Limiter().GamesToday(1) != 2 {
		t.Fatalf("rejected start changed state or counters")
	}
}

func TestConsecutiveCapRejectsSameCategoryOnly(t *testing.T) {
	h := newHarness(t, ratelimit.Options{MaxConsecutiveAttempts: 2, Cooldown: time.Second})
	for i := 0; i < 2; i++ {
		h.button(1, "category:math")
		h.button(1, "menu")
		h.clock.advance(2 * time.Second)
	}
	msg := single(t, h.button(1, "category:math"))
	if msg.Text != msgConsecutive {
		t.Fatalf("expected consecutive warning, got %q", msg.Text)
	}
	h.clock.advance(2 * time.Second)
	h.button(1, "category:riddle")
	if st := h.engine.State(1); st.Kind != KindActiveGame || st.Category != questions.Riddle {
		t.Fatalf("other category should start, state = %+v", st)
	}
}

func TestUnknownInputsLeaveStateUnchanged(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})

	if msg := single(t, h.button(1, "gender:male")); msg.Text != msgNotUnderstood {
		t.Fatalf("gender button in main menu: %q", msg.Text)
	}
	if msg := single(t, h.text(1, "halo")); msg.Text != msgNotUnderstood {
		t.Fatalf("free text in main menu: %q", msg.Text)
	}
	if msg := single(t, h.text(1, "/logika")); msg.Text != msgNotUnderstood {
		t.Fatalf("unknown command in main menu: %q", msg.Text)
	}
	if msg := single(t, h.button(1, "category:history")); msg.Text != msgNotUnderstood {
		t.Fatalf("unknown category: %q", msg.Text)
	}

	h.button(1, "category:math")
	msg := single(t, h.button(1, "category:riddle"))
	if msg.Text != msgNotUnderstood || msg.Keyboard != conversation.KeyboardBackToMenu {
		t.Fatalf("category button during a game: %+v", msg)
	}
	if st := h.engine.State(1); st.Kind != KindActiveGame || st.Category != questions.Math || st.Attempts != 0 {
		t.Fatalf("state changed: %+v", st)
	}
}

func TestUnknownCommandDuringGameCountsAsAnswer(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	h.button(1, "category:math")
	h.text(1, "/skip")
	if st := h.engine.State(1); st.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", st.Attempts)
	}
}

func TestHelpAndStatsDoNotChangeState(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	h.button(1, "category:math")

	stats := single(t, h.text(1, "/stats"))
	if !strings.Contains(stats.Text, "<b>1</b> dari 20") {
		t.Fatalf("stats = %q", stats.Text)
	}
	help := single(t, h.button(1, "help"))
	if !strings.Contains(help.Text, "Cara bermain") || help.Keyboard != conversation.KeyboardBackToMenu {
		t.Fatalf("help = %+v", help)
	}
	if st := h.engine.State(1); st.Kind != KindActiveGame || st.Attempts != 0 {
		t.Fatalf("informational requests changed state: %+v", st)
	}
	if h.engine.Limiter().GamesToday(2) != 0 || h.engine.Limiter().Len() != 1 {
		t.Fatalf("stats must not create limiter records")
	}
	single(t, h.text(2, "/stats"))
	if h.engine.Limiter().Len() != 1 {
		t.Fatalf("stats for a new user created a record")
	}
}

func TestStartShowsWelcomeAndEndsGame(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	msg := single(t, h.text(1, "/start"))
	if msg.Text != msgWelcome || msg.Keyboard != conversation.KeyboardMainMenu {
		t.Fatalf("welcome = %+v", msg)
	}
	h.button(1, "category:math")
	h.text(1, "/start@deplot_bot")
	if h.engine.State(1).Kind != KindMainMenu {
		t.Fatalf("/start should return to main menu")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	h := newHarness(t, ratelimit.Options{})
	var wg sync.WaitGroup
	for u := int64(1); u <= 20; u++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			h.button(u, "category:math")
		}(u)
	}
	wg.Wait()
	for u := int64(1); u <= 20; u++ {
		if h.engine.State(u).Kind != KindActiveGame || h.engine.Limiter().GamesToday(u) != 1 {
			t.Fatalf("user %d did not start exactly one game", u)
		}
	}
}

func TestMatchCategory(t *testing.T) {
	cases := []struct {
		in   string
		want questions.Category
		ok   bool
	}{
		{"🧮 Matematika", questions.Math, true},
		{"MATH", questions.Math, true},
		{"matem", questions.Math, true},
		{"matematka", questions.Math, true},
		{"🧩 Teka-teki", questions.Riddle, true},
		{"teka teki", questions.Riddle, true},
		{"logi", questions.Logic, true},
		{"halo", "", false},
		{"56", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := matchCategory(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("matchCategory(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without bank and limiter")
	}
}
