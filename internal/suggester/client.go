package suggester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/config"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
	"github.com/rocketscienceinc/tictactoe-llm/internal/metrics"
)

type Schema string

const (
	SchemaIndex Schema = "index"
	SchemaPair  Schema = "pair"
)

const (
	generatePath     = "/api/generate"
	maxResponseBytes = 1 << 20
	maxErrorBody     = 512
)

var ErrUnknownSchema = errors.New("unknown response schema")

// StatusError is returned when the service answers with a non-success status.
type StatusError struct {
	Code int
	Body string
}

func (that *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", apperror.ErrServiceError, that.Code)
}

func (that *StatusError) Unwrap() error {
	return apperror.ErrServiceError
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
	Format  jsonSchema      `json:"format"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Client asks an Ollama compatible /api/generate endpoint for the next move.
type Client struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	httpClient *http.Client

	endpoint string
	model    string
	schema   Schema
	options  generateOptions
}

func New(logger *slog.Logger, conf config.Suggester, m *metrics.Metrics, opts ...Option) (*Client, error) {
	schema := Schema(conf.Schema)
	if schema != SchemaIndex && schema != SchemaPair {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, conf.Schema)
	}

	client := &Client{
		logger:     logger.With("component", "suggester"),
		metrics:    m,
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(conf.URL, "/") + generatePath,
		model:      conf.Model,
		schema:     schema,
		options: generateOptions{
			Temperature: conf.Temperature,
			TopK:        conf.TopK,
			TopP:        conf.TopP,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// RequestMove asks the service for side's next move on board. The returned index is
// in range and points at an empty cell. Deadlines and cancellation come from ctx.
func (that *Client) RequestMove(ctx context.Context, board entity.Board, side entity.Turn) (int, error) {
	log := that.logger.With("method", "RequestMove", "side", side)

	start := time.Now()
	cell, err := that.requestMove(ctx, board, side)
	that.metrics.ObserveSuggestion(outcome(err), time.Since(start))

	if err != nil {
		log.Warn("suggestion rejected", "error", err, "elapsed", time.Since(start))
		return -1, err
	}

	log.Debug("suggestion accepted", "cell", cell, "elapsed", time.Since(start))

	return cell, nil
}

func (that *Client) requestMove(ctx context.Context, board entity.Board, side entity.Turn) (int, error) {
	body, err := json.Marshal(generateRequest{
		Model:   that.model,
		Prompt:  BuildPrompt(board, side, that.schema),
		Stream:  false,
		Options: that.options,
		Format:  responseFormat(that.schema),
	})
	if err != nil {
		return -1, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.endpoint, bytes.NewReader(body))
	if err != nil {
		return -1, fmt.Errorf("%w: %w", apperror.ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", apperror.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return -1, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return -1, fmt.Errorf("%w: could not read body: %w", apperror.ErrUnreachable, err)
	}

	var envelope generateResponse
	if err = json.Unmarshal(payload, &envelope); err != nil {
		return -1, fmt.Errorf("%w: %w", apperror.ErrMalformedResponse, err)
	}

	if envelope.Error != "" {
		return -1, fmt.Errorf("%w: %s", apperror.ErrMalformedResponse, envelope.Error)
	}

	cell, err := ParseSuggestion(envelope.Response, that.schema)
	if err != nil {
		return -1, err
	}

	if cell < 0 || cell >= entity.BoardSize {
		return -1, fmt.Errorf("%w: cell %d out of range", apperror.ErrInvalidSuggestion, cell)
	}

	if !board.IsEmpty(cell) {
		return -1, fmt.Errorf("%w: cell %d is occupied", apperror.ErrInvalidSuggestion, cell)
	}

	return cell, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, apperror.ErrServiceError):
		return metrics.OutcomeServiceError
	case errors.Is(err, apperror.ErrMalformedResponse):
		return metrics.OutcomeMalformedResponse
	case errors.Is(err, apperror.ErrInvalidSuggestion):
		return metrics.OutcomeInvalidSuggestion
	default:
		return metrics.OutcomeUnreachable
	}
}
