package suggester

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/config"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
	"github.com/rocketscienceinc/tictactoe-llm/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, schema Schema) *Client {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := New(logger, config.Suggester{
		URL:         url,
		Model:       "codellama",
		Schema:      string(schema),
		Temperature: 0.3,
		TopK:        10,
		TopP:        0.8,
	}, metrics.Nop())
	require.NoError(t, err)

	return client
}

// replyWith serves an Ollama style envelope whose "response" field is answer.
func replyWith(t *testing.T, answer string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(generateResponse{Model: "codellama", Response: answer, Done: true})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClient_RequestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends the board, instructions and declared schema", func(t *testing.T) {
		// Given: a service that records the request
		var got generateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"position": [0, 2]}`, Done: true})
		}))
		defer server.Close()

		client := newTestClient(t, server.URL+"/", SchemaPair)
		board := entity.Board{entity.EmptyCell, entity.MarkX, entity.EmptyCell, entity.EmptyCell, entity.MarkO, entity.EmptyCell, entity.EmptyCell, entity.EmptyCell, entity.MarkX}

		// When: requesting a move for O
		cell, err := client.RequestMove(ctx, board, entity.PlayerO)

		// Then: the reply [0, 2] becomes cell 2 and the request carries everything the service needs
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
		assert.Equal(t, "codellama", got.Model)
		assert.False(t, got.Stream)
		assert.Equal(t, 10, got.Options.TopK)
		assert.Contains(t, got.Prompt, "[null,X,null,null,O,null,null,null,X]")
		assert.Contains(t, got.Prompt, "block it first")
		assert.Equal(t, "object", got.Format.Type)
		assert.Equal(t, []string{"position"}, got.Format.Required)
		assert.Equal(t, "array", got.Format.Properties["position"].Type)
	})

	t.Run("Index schema returns the index as is", func(t *testing.T) {
		server := replyWith(t, `{"position": 4}`)
		client := newTestClient(t, server.URL, SchemaIndex)

		cell, err := client.RequestMove(ctx, entity.EmptyBoard(), entity.PlayerO)

		require.NoError(t, err)
		assert.Equal(t, 4, cell)
	})

	t.Run("Out of range index is an invalid suggestion", func(t *testing.T) {
		// Given: a service that suggests cell 99
		server := replyWith(t, `{"position": 99}`)
		client := newTestClient(t, server.URL, SchemaIndex)
		board := entity.Board{entity.MarkX}

		// When: requesting a move
		cell, err := client.RequestMove(ctx, board, entity.PlayerO)

		// Then: the suggestion is rejected and the board is untouched
		require.ErrorIs(t, err, apperror.ErrInvalidSuggestion)
		assert.Equal(t, -1, cell)
		assert.Equal(t, entity.Board{entity.MarkX}, board)
	})

	t.Run("Occupied cell is an invalid suggestion", func(t *testing.T) {
		server := replyWith(t, `{"position": [1, 1]}`)
		client := newTestClient(t, server.URL, SchemaPair)
		board, err := entity.EmptyBoard().WithMove(4, entity.MarkX)
		require.NoError(t, err)

		_, err = client.RequestMove(ctx, board, entity.PlayerO)

		assert.ErrorIs(t, err, apperror.ErrInvalidSuggestion)
	})

	t.Run("Row or column outside the grid is an invalid suggestion", func(t *testing.T) {
		server := replyWith(t, `{"position": [3, 0]}`)
		client := newTestClient(t, server.URL, SchemaPair)

		_, err := client.RequestMove(ctx, entity.EmptyBoard(), entity.PlayerO)

		assert.ErrorIs(t, err, apperror.ErrInvalidSuggestion)
	})

	t.Run("Non-success status is a service error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, SchemaPair)

		_, err := client.RequestMove(ctx, entity.EmptyBoard(), entity.PlayerO)

		require.ErrorIs(t, err, apperror.ErrServiceError)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
		assert.Contains(t, statusErr.Body, "model not loaded")
	})

	t.Run("Envelope that is not JSON is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, SchemaPair)

		_, err := client.RequestMove(ctx, entity.EmptyBoard(), entity.PlayerO)

		assert.ErrorIs(t, err, apperror.ErrMalformedResponse)
	})

	t.Run("Closed server is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()
		client := newTestClient(t, url, SchemaPair)

		_, err := client.RequestMove(ctx, entity.EmptyBoard(), entity.PlayerO)

		assert.ErrorIs(t, err, apperror.ErrUnreachable)
	})

	t.Run("Caller deadline is honoured", func(t *testing.T) {
		// Given: a service slower than the caller's deadline
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)
		client := newTestClient(t, server.URL, SchemaPair)

		timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		// When: requesting a move
		_, err := client.RequestMove(timeoutCtx, entity.EmptyBoard(), entity.PlayerO)

		// Then: the request is abandoned as unreachable
		require.ErrorIs(t, err, apperror.ErrUnreachable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNew_UnknownSchema(t *testing.T) {
	_, err := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), config.Suggester{Schema: "xml"}, metrics.Nop())

	assert.ErrorIs(t, err, ErrUnknownSchema)
}
