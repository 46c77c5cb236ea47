package questions

import (
	"errors"
	"math/rand"
	"testing"
)

func TestDefaultSetSizes(t *testing.T) {
	b := Default(rand.New(rand.NewSource(1)))
	want := map[Category]int{Math: 7, Riddle: 5, Logic: 2}
	for cat, n := range want {
		if got := b.Count(cat); got != n {
			t.Fatalf("%s: %d questions, want %d", cat, got, n)
		}
	}
	cats := b.Categories()
	if len(cats) != 3 || cats[0] != Math || cats[1] != Riddle || cats[2] != Logic {
		t.Fatalf("unexpected category order %v", cats)
	}
}

func TestSelectHonoursDifficulty(t *testing.T) {
	b := Default(rand.New(rand.NewSource(7)))
	for i := 0; i < 200; i++ {
		q, err := b.Select(Math, Medium)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if q.Difficulty != Medium || q.Category != Math {
			t.Fatalf("got %+v", q)
		}
	}
}

func TestSelectFallsBackWhenNoMatch(t *testing.T) {
	b := Default(rand.New(rand.NewSource(3)))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		q, err := b.Select(Logic, Hard)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if q.Category != Logic {
			t.Fatalf("wrong category %+v", q)
		}
		seen[q.Answer] = true
	}
	if len(seen) != 2 {
		t.Fatalf("fallback should draw from the full category, saw %v", seen)
	}
}

func TestSelectIsReproducible(t *testing.T) {
	a := Default(rand.New(rand.NewSource(99)))
	b := Default(rand.New(rand.NewSource(99)))
	for i := 0; i < 20; i++ {
		qa, _ := a.Select(Riddle)
		qb, _ := b.Select(Riddle)
		if qa != qb {
			t.Fatalf("draw %d differs: %q vs %q", i, qa.Text, qb.Text)
		}
	}
}

func TestSelectUnknownCategory(t *testing.T) {
	b := Default(nil)
	if _, err := b.Select(Category("history")); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewBankCopiesInput(t *testing.T) {
	src := map[Category][]Question{Math: {{Text: "1+1", Answer: "2", Difficulty: Easy}}}
	b := NewBank(rand.New(rand.NewSource(1)), src)
	src[Math][0].Answer = "3"
	q, _ := b.Select(Math)
	if q.Answer != "2" || q.Category != Math {
		t.Fatalf("bank shares storage with caller: %+v", q)
	}
}
