// Package survey implements the three-question survey form
// (name, age, gender) and the storage of completed submissions.
package survey

// Step is the question the user is expected to answer next.
type Step string

const (
	StepIdle      Step = "idle"
	StepAskName   Step = "ask_name"
	StepAskAge    Step = "ask_age"
	StepAskGender Step = "ask_gender"
)

// State carries answers collected so far.
type State struct {
	Step Step
	Name string
	Age  int
}

// Idle is the state of users without a form in progress.
func Idle() State { return State{Step: StepIdle} }

// Gender values accepted from the gender keyboard.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender validates a button payload.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(s); g {
	case GenderMale, GenderFemale:
		return g, true
	}
	return "", false
}

// Label is the Indonesian name of the gender.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Laki-laki"
	case GenderFemale:
		return "Perempuan"
	default:
		return string(g)
	}
}
