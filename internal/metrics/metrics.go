// Package metrics holds the Prometheus instruments of the bot and implements
// the engines' Recorder interfaces.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ranggaxyy/deplot-bot/internal/ratelimit"
	"github.com/ranggaxyy/deplot-bot/internal/survey"
)

// Metrics groups all instruments. Each instance owns its registry so tests
// and multiple bots in one process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	Updates         *prometheus.CounterVec
	HandlerLatency  prometheus.Histogram
	MessagesSent    *prometheus.CounterVec
	ActiveSessions  *prometheus.GaugeVec
	GamesStarted    *prometheus.CounterVec
	GuardRejections *prometheus.CounterVec
	Answers         *prometheus.CounterVec
	AttemptsUsed    prometheus.Histogram
	GamesAbandoned  *prometheus.CounterVec
	SurveyForms     prometheus.Counter
	SurveyRejected  *prometheus.CounterVec
	SurveySaved     *prometheus.CounterVec
	IdleReplies     *prometheus.CounterVec
}

// New registers every instrument under namespace in a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind and status.",
		}, []string{"kind", "status"}),
		HandlerLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_ms",
			Help:      "Time spent handling one update in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		MessagesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outgoing Telegram messages by status.",
		}, []string{"status"}),
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Users with a conversation in progress.",
		}, []string{"bot"}),
		GamesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_games_started_total",
			Help:      "Quiz games started by category.",
		}, []string{"category"}),
		GuardRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_guard_rejections_total",
			Help:      "Game starts rejected by guard.",
		}, []string{"reason"}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_answers_total",
			Help:      "Graded answers by category and outcome.",
		}, []string{"category", "outcome"}),
		AttemptsUsed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_attempts_used",
			Help:      "Attempts used in finished rounds.",
			Buckets:   []float64{1, 2, 3},
		}),
		GamesAbandoned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_games_abandoned_total",
			Help:      "Rounds left through the menu before they ended.",
		}, []string{"category"}),
		SurveyForms: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_forms_started_total",
			Help:      "Survey forms started.",
		}),
		SurveyRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_inputs_rejected_total",
			Help:      "Survey answers rejected by step.",
		}, []string{"step"}),
		SurveySaved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survey_submissions_total",
			Help:      "Survey submissions by status.",
		}, []string{"status"}),
		IdleReplies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_replies_total",
			Help:      "Resting replies by event kind.",
		}, []string{"kind"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveUpdate records one handled update.
func (m *Metrics) ObserveUpdate(kind, status string, took time.Duration) {
	m.Updates.WithLabelValues(kind, status).Inc()
	m.HandlerLatency.Observe(float64(took.Milliseconds()))
}

// MessageSent records the outcome of one send.
func (m *Metrics) MessageSent(err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	m.MessagesSent.WithLabelValues(status).Inc()
}

// SetActiveSessions publishes the current session count of bot.
func (m *Metrics) SetActiveSessions(bot string, n int) {
	m.ActiveSessions.WithLabelValues(bot).Set(float64(n))
}

// GameStarted implements quiz.Recorder.
func (m *Metrics) GameStarted(category string) {
	m.GamesStarted.WithLabelValues(category).Inc()
}

// GuardRejected implements quiz.Recorder.
func (m *Metrics) GuardRejected(reason ratelimit.Reason) {
	m.GuardRejections.WithLabelValues(string(reason)).Inc()
}

// AnswerGraded implements quiz.Recorder. Only answers that end a round feed
// the attempts histogram.
func (m *Metrics) AnswerGraded(category, outcome string, attempts int) {
	m.Answers.WithLabelValues(category, outcome).Inc()
	if outcome != "wrong" {
		m.AttemptsUsed.Observe(float64(attempts))
	}
}

// GameAbandoned implements quiz.Recorder.
func (m *Metrics) GameAbandoned(category string) {
	m.GamesAbandoned.WithLabelValues(category).Inc()
}

// FormStarted implements survey.Recorder.
func (m *Metrics) FormStarted() {
	m.SurveyForms.Inc()
}

// InputRejected implements survey.Recorder.
func (m *Metrics) InputRejected(step survey.Step) {
	m.SurveyRejected.WithLabelValues(string(step)).Inc()
}

// SubmissionSaved implements survey.Recorder.
func (m *Metrics) SubmissionSaved(err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	m.SurveySaved.WithLabelValues(status).Inc()
}

// Replied implements idle.Recorder.
func (m *Metrics) Replied(kind string) {
	m.IdleReplies.WithLabelValues(kind).Inc()
}
