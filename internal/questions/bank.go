// Package questions holds the compiled-in quiz questions and picks them at random.
package questions

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Category groups questions of one kind.
type Category string

const (
	Math   Category = "math"
	Riddle Category = "riddle"
	Logic  Category = "logic"
)

// Label is the Indonesian name shown to users.
func (c Category) Label() string {
	switch c {
	case Math:
		return "Matematika"
	case Riddle:
		return "Teka-teki"
	case Logic:
		return "Logika"
	default:
		return string(c)
	}
}

// Emoji decorates category buttons.
func (c Category) Emoji() string {
	switch c {
	case Math:
		return "🧮"
	case Riddle:
		return "🧩"
	case Logic:
		return "🧠"
	default:
		return "❓"
	}
}

// Difficulty tiers.
const (
	Easy   = 1
	Medium = 2
	Hard   = 3
)

// Question is immutable once loaded.
type Question struct {
	Text       string
	Answer     string
	Difficulty int
	Category   Category
}

// ErrUnknownCategory is returned when a category has no questions.
var ErrUnknownCategory = errors.New("questions: unknown category")

// Bank is read-only after construction; the random source is the only
// mutable part and is guarded by a mutex.
type Bank struct {
	sets  map[Category][]Question
	order []Category

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank copies sets and tags every question with its category. A nil rng
// gets a time-seeded source.
func NewBank(rng *rand.Rand, sets map[Category][]Question) *Bank {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Bank{sets: make(map[Category][]Question, len(sets)), rng: rng}
	for cat, qs := range sets {
		if len(qs) == 0 {
			continue
		}
		cp := make([]Question, len(qs))
		copy(cp, qs)
		for i := range cp {
			cp[i].Category = cat
		}
		b.sets[cat] = cp
		b.order = append(b.order, cat)
	}
	sort.Slice(b.order, func(i, j int) bool { return categoryRank(b.order[i]) < categoryRank(b.order[j]) })
	return b
}

// Default builds a bank over the compiled-in question sets.
func Default(rng *rand.Rand) *Bank {
	return NewBank(rng, builtin)
}

func categoryRank(c Category) string {
	switch c {
	case Math:
		return "0"
	case Riddle:
		return "1"
	case Logic:
		return "2"
	}
	return "9" + string(c)
}

// Categories lists categories in menu order.
func (b *Bank) Categories() []Category {
	return append([]Category(nil), b.order...)
}

// Has reports whether the category has questions.
func (b *Bank) Has(c Category) bool {
	return len(b.sets[c]) > 0
}

// Count returns the number of questions in a category.
func (b *Bank) Count(c Category) int {
	return len(b.sets[c])
}

// Select picks uniformly among questions of category whose difficulty equals
// the optional filter. An absent, zero or unmatched filter falls back to the
// whole category.
func (b *Bank) Select(category Category, difficulty ...int) (Question, error) {
	all := b.sets[category]
	if len(all) == 0 {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	pool := all
	if len(difficulty) > 0 && difficulty[0] != 0 {
		var filtered []Question
		for _, q := range all {
			if q.Difficulty == difficulty[0] {
				filtered = append(filtered, q)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	b.mu.Lock()
	idx := b.rng.Intn(len(pool))
	b.mu.Unlock()
	return pool[idx], nil
}
