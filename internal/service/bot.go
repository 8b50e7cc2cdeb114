package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
	"github.com/rocketscienceinc/tictactoe-llm/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-llm/internal/tictactoe"
)

var ErrNoRequester = errors.New("no move requester configured")

type moveRequester interface {
	RequestMove(ctx context.Context, board entity.Board, side entity.Turn) (int, error)
}

// Move is the automated side's chosen cell. Cause holds the last request
// error when the cell came from the fallback policy.
type Move struct {
	Cell     int
	Fallback bool
	Cause    error
}

type BotService interface {
	MakeTurn(ctx context.Context, board entity.Board, side entity.Turn) (Move, error)
}

type BotOptions struct {
	// Retries is the number of extra requests after the first failure.
	Retries int
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration
	// Policy picks a move when every request failed; nil surfaces the failure instead.
	Policy tictactoe.Policy
}

type botService struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	requester moveRequester
	opts      BotOptions
}

func NewBotService(logger *slog.Logger, requester moveRequester, m *metrics.Metrics, opts BotOptions) BotService {
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	return &botService{
		logger:    logger.With("component", "bot"),
		metrics:   m,
		requester: requester,
		opts:      opts,
	}
}

func (that *botService) MakeTurn(ctx context.Context, board entity.Board, side entity.Turn) (Move, error) {
	log := that.logger.With("method", "MakeTurn", "side", side)

	lastErr := ErrNoRequester
	if that.requester != nil {
		for attempt := 0; attempt <= that.opts.Retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return Move{}, fmt.Errorf("bot turn abandoned: %w", err)
			}

			cell, err := that.request(ctx, board, side)
			if err == nil {
				return Move{Cell: cell}, nil
			}

			log.Warn("move request failed", "attempt", attempt+1, "error", err)
			lastErr = err
		}
	}

	// a cancelled turn belongs to a game that no longer exists
	if err := ctx.Err(); err != nil {
		return Move{}, fmt.Errorf("bot turn abandoned: %w", err)
	}

	if that.opts.Policy == nil {
		return Move{}, lastErr
	}

	cell, err := that.opts.Policy(board, side)
	if err != nil {
		return Move{}, fmt.Errorf("fallback failed: %w", errors.Join(lastErr, err))
	}

	that.metrics.FallbackUsed()
	log.Info("fallback move chosen", "cell", cell, "cause", lastErr)

	return Move{Cell: cell, Fallback: true, Cause: lastErr}, nil
}

func (that *botService) request(ctx context.Context, board entity.Board, side entity.Turn) (int, error) {
	if that.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.opts.Timeout)
		defer cancel()
	}

	return that.requester.RequestMove(ctx, board, side)
}
