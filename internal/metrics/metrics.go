package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tictactoe"

// Outcome labels for suggestion requests.
const (
	OutcomeSuccess           = "success"
	OutcomeUnreachable       = "unreachable"
	OutcomeServiceError      = "service_error"
	OutcomeMalformedResponse = "malformed_response"
	OutcomeInvalidSuggestion = "invalid_suggestion"
)

type Metrics struct {
	suggestions       *prometheus.CounterVec
	suggestionLatency prometheus.Histogram
	moves             *prometheus.CounterVec
	fallbacks         prometheus.Counter
	staleReplies      prometheus.Counter
	games             *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	that := &Metrics{
		suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestion_requests_total",
				Help:      "Total number of move-suggestion requests by outcome",
			},
			[]string{"outcome"},
		),
		suggestionLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "suggestion_duration_seconds",
				Help:      "Duration of move-suggestion round trips",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moves_total",
				Help:      "Total number of accepted moves by side and origin",
			},
			[]string{"side", "origin"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_moves_total",
				Help:      "Total number of moves chosen by the local fallback policy",
			},
		),
		staleReplies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_suggestions_total",
				Help:      "Total number of suggestion replies dropped after a reset",
			},
		),
		games: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_finished_total",
				Help:      "Total number of finished games by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(that.suggestions, that.suggestionLatency, that.moves, that.fallbacks, that.staleReplies, that.games)

	return that
}

// Nop returns metrics registered on a private registry, for callers that do not export them.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (that *Metrics) ObserveSuggestion(outcome string, elapsed time.Duration) {
	that.suggestions.WithLabelValues(outcome).Inc()
	that.suggestionLatency.Observe(elapsed.Seconds())
}

func (that *Metrics) MoveAccepted(side, origin string) {
	that.moves.WithLabelValues(side, origin).Inc()
}

func (that *Metrics) FallbackUsed() {
	that.fallbacks.Inc()
}

func (that *Metrics) StaleReply() {
	that.staleReplies.Inc()
}

func (that *Metrics) GameFinished(result string) {
	that.games.WithLabelValues(result).Inc()
}
