package quiz

import "github.com/ranggaxyy/deplot-bot/internal/ratelimit"

// Outcomes of a graded answer.
const (
	OutcomeSolved    = "solved"
	OutcomeExhausted = "exhausted"
	OutcomeWrong     = "wrong"
)

// Recorder receives game events for metrics. Implementations must be safe
// for concurrent use.
type Recorder interface {
	GameStarted(category string)
	GuardRejected(reason ratelimit.Reason)
	AnswerGraded(category, outcome string, attempts int)
	GameAbandoned(category string)
}

type nopRecorder struct{}

func (nopRecorder) GameStarted(string) {}

func (nopRecorder) GuardRejected(ratelimit.Reason) {}

func (nopRecorder) AnswerGraded(string, string, int) {}

func (nopRecorder) GameAbandoned(string) {}
