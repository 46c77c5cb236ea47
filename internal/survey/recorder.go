package survey

// Recorder receives survey events for metrics.
type Recorder interface {
	FormStarted()
	InputRejected(step Step)
	SubmissionSaved(err error)
}

type nopRecorder struct{}

func (nopRecorder) FormStarted() {}

func (nopRecorder) InputRejected(Step) {}

func (nopRecorder) SubmissionSaved(error) {}
