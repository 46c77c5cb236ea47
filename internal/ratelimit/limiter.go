// Package ratelimit implements the anti-abuse guards consulted before a quiz
// game starts: a cooldown between starts, a daily cap and a cap on
// same-category starts that follow each other without a long enough pause.
package ratelimit

import (
	"sync"
	"time"
)

// Reason names the guard that rejected a start.
type Reason string

const (
	ReasonCooldown    Reason = "cooldown"
	ReasonDailyLimit  Reason = "daily_limit"
	ReasonConsecutive Reason = "consecutive"
)

const dateLayout = "2006-01-02"

// Options configures a Limiter. Zero values fall back to the defaults below.
type Options struct {
	MaxDailyGames          int
	Cooldown               time.Duration
	MaxConsecutiveAttempts int
	ConsecutiveWindow      time.Duration
	// Location decides where calendar days start. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxDailyGames          = 20
	DefaultCooldown               = 10 * time.Second
	DefaultMaxConsecutiveAttempts = 5
	DefaultConsecutiveWindow      = 60 * time.Second
)

// Window counts back-to-back starts of one category. It closes once the gap
// since LastAt exceeds the consecutive window.
type Window struct {
	Count     int
	StartedAt time.Time
	LastAt    time.Time
}

// Record is everything the limiter knows about one user.
type Record struct {
	GamesByDate       map[string]int
	LastGameStartedAt time.Time
	Consecutive       map[string]*Window
}

func newRecord() *Record {
	return &Record{
		GamesByDate: make(map[string]int),
		Consecutive: make(map[string]*Window),
	}
}

// Limiter is safe for concurrent use.
type Limiter struct {
	opts Options

	mu      sync.Mutex
	records map[int64]*Record
}

// New builds a Limiter, filling defaults.
func New(opts Options) *Limiter {
	if opts.MaxDailyGames <= 0 {
		opts.MaxDailyGames = DefaultMaxDailyGames
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.MaxConsecutiveAttempts <= 0 {
		opts.MaxConsecutiveAttempts = DefaultMaxConsecutiveAttempts
	}
	if opts.ConsecutiveWindow <= 0 {
		opts.ConsecutiveWindow = DefaultConsecutiveWindow
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Limiter{opts: opts, records: make(map[int64]*Record)}
}

// Options returns the effective configuration.
func (l *Limiter) Options() Options {
	return l.opts
}

// record returns the user's record, creating it on first sight. Callers hold l.mu.
func (l *Limiter) record(user int64) *Record {
	rec, ok := l.records[user]
	if !ok {
		rec = newRecord()
		l.records[user] = rec
	}
	return rec
}

func (l *Limiter) today(now time.Time) string {
	return now.In(l.opts.Location).Format(dateLayout)
}

// CanStartGame reports whether today's game count is still below the daily cap.
func (l *Limiter) CanStartGame(user int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.record(user)
	return rec.GamesByDate[l.today(l.opts.Now())] < l.opts.MaxDailyGames
}

// CheckCooldown reports whether no check happened within the cooldown.
//
// Every call stamps LastGameStartedAt with the current time, including calls
// that return false, so a user who keeps retrying keeps pushing the cooldown
// forward. The bots have always behaved this way and the messages rely on it
// ("wait N seconds" is exact after a rejection).
func (l *Limiter) CheckCooldown(user int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.opts.Now()
	rec := l.record(user)
	last := rec.LastGameStartedAt
	rec.LastGameStartedAt = now
	return last.IsZero() || now.Sub(last) >= l.opts.Cooldown
}

// CheckConsecutive counts one more start of category and reports whether the
// streak is within the cap. The streak resets when the user has been idle on
// this category for longer than ConsecutiveWindow; every call, rejected or
// not, refreshes LastAt.
func (l *Limiter) CheckConsecutive(user int64, category string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.opts.Now()
	rec := l.record(user)
	w, ok := rec.Consecutive[category]
	if !ok || now.Sub(w.LastAt) > l.opts.ConsecutiveWindow {
		w = &Window{StartedAt: now}
		rec.Consecutive[category] = w
	}
	w.Count++
	w.LastAt = now
	return w.Count <= l.opts.MaxConsecutiveAttempts
}

// RecordGameStart adds one game to today's count. It does not de-duplicate:
// call it exactly once per accepted start.
func (l *Limiter) RecordGameStart(user int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	today := l.today(l.opts.Now())
	rec := l.record(user)
	for date := range rec.GamesByDate {
		if date != today {
			delete(rec.GamesByDate, date)
		}
	}
	rec.GamesByDate[today]++
}

// GamesToday returns today's count without creating a record.
func (l *Limiter) GamesToday(user int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[user]
	if !ok {
		return 0
	}
	return rec.GamesByDate[l.today(l.opts.Now())]
}

// Prune drops records that can no longer influence any guard: no start today
// and both the cooldown and the consecutive window long expired.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.opts.Now()
	today := l.today(now)
	horizon := max(l.opts.Cooldown, l.opts.ConsecutiveWindow)
	removed := 0
	for user, rec := range l.records {
		if rec.GamesByDate[today] > 0 || now.Sub(rec.LastGameStartedAt) <= horizon {
			continue
		}
		stale := true
		for _, w := range rec.Consecutive {
			if now.Sub(w.LastAt) <= l.opts.ConsecutiveWindow {
				stale = false
				break
			}
		}
		if stale {
			delete(l.records, user)
			removed++
		}
	}
	return removed
}

// Len reports how many users the limiter tracks.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
