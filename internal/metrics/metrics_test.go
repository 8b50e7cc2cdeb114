package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Given: metrics on a fresh registry
	reg := prometheus.NewRegistry()
	m := New(reg)

	// When: recording a few events
	m.ObserveSuggestion(OutcomeSuccess, 120*time.Millisecond)
	m.ObserveSuggestion(OutcomeUnreachable, time.Second)
	m.ObserveSuggestion(OutcomeUnreachable, time.Second)
	m.MoveAccepted("O", "fallback")
	m.FallbackUsed()
	m.StaleReply()
	m.GameFinished("X")

	// Then: the counters reflect them
	assert.InDelta(t, 1, testutil.ToFloat64(m.suggestions.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.suggestions.WithLabelValues(OutcomeUnreachable)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.moves.WithLabelValues("O", "fallback")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fallbacks), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.staleReplies), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.games.WithLabelValues("X")), 0)

	count, err := testutil.GatherAndCount(reg, "tictactoe_suggestion_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNop(t *testing.T) {
	// Two independent instances must not collide on registration.
	assert.NotPanics(t, func() {
		Nop().FallbackUsed()
		Nop().FallbackUsed()
	})
}
