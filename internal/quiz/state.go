// Package quiz implements the quiz conversation: category selection guarded
// by the rate limiter, one question per round and three answer attempts.
package quiz

import "github.com/ranggaxyy/deplot-bot/internal/questions"

// MaxAttempts is the number of answers accepted for one question.
const MaxAttempts = 3

// Kind tags the variant held by State.
type Kind int

const (
	// KindMainMenu waits for a category. It is the zero value.
	KindMainMenu Kind = iota
	// KindActiveGame waits for an answer to Question.
	KindActiveGame
)

// String implements fmt.Stringer for logs.
func (k Kind) String() string {
	if k == KindActiveGame {
		return "active_game"
	}
	return "main_menu"
}

// State is either MainMenu or ActiveGame. Category, Question and Attempts are
// only meaningful for ActiveGame.
type State struct {
	Kind     Kind
	Category questions.Category
	Question questions.Question
	Attempts int
}

// MainMenu is the initial state.
func MainMenu() State { return State{} }

// ActiveGame starts a round with no attempts used.
func ActiveGame(q questions.Question) State {
	return State{Kind: KindActiveGame, Category: q.Category, Question: q}
}

// AttemptsLeft reports the remaining answers for an active game.
func (s State) AttemptsLeft() int {
	return max(MaxAttempts-s.Attempts, 0)
}
