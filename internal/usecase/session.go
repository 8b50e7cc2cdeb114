package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
	"github.com/rocketscienceinc/tictactoe-llm/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-llm/internal/service"
	"github.com/rocketscienceinc/tictactoe-llm/internal/tictactoe"
)

const (
	originHuman     = "human"
	originSuggested = "suggested"
	originFallback  = "fallback"
)

type botService interface {
	MakeTurn(ctx context.Context, board entity.Board, side entity.Turn) (service.Move, error)
}

// Observer receives a snapshot after every state transition.
// OnSnapshot is called with the controller locked: it must not block or call back.
type Observer interface {
	OnSnapshot(snapshot entity.Snapshot)
}

// SessionController owns the single live board. X is played by the human,
// O by the bot service. At most one bot request is in flight; every request
// carries a token and replies with an outdated token are dropped.
type SessionController struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	bot       botService
	observers []Observer

	human     entity.Turn
	automated entity.Turn

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu            sync.Mutex
	sessionID     string
	token         uint64
	board         entity.Board
	state         entity.SessionState
	inFlight      bool
	cancelRequest context.CancelFunc
	stalled       bool
	lastErr       error
	fallback      bool
	updatedAt     time.Time
}

func NewSessionController(logger *slog.Logger, bot botService, m *metrics.Metrics, observers ...Observer) *SessionController {
	ctx, cancel := context.WithCancel(context.Background())

	that := &SessionController{
		logger:    logger.With("component", "session"),
		metrics:   m,
		bot:       bot,
		observers: observers,
		human:     entity.PlayerX,
		automated: entity.PlayerO,
		baseCtx:   ctx,
		stop:      cancel,
		sessionID: uuid.NewString(),
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.resetLocked()
	that.notifyLocked()

	return that
}

// Board returns a copy of the live board.
func (that *SessionController) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board
}

func (that *SessionController) Status() entity.GameStatus {
	that.mu.Lock()
	defer that.mu.Unlock()

	return tictactoe.Evaluate(that.board)
}

func (that *SessionController) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

// PlayHumanMove applies the human's move. Rejected moves leave the session untouched.
func (that *SessionController) PlayHumanMove(cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "PlayHumanMove", "cell", cell, "token", that.token)

	switch that.state {
	case entity.StateFinished:
		return fmt.Errorf("%w: %s", apperror.ErrGameOver, tictactoe.Evaluate(that.board).Text())
	case entity.StateAwaitingAutomated:
		return fmt.Errorf("%w: waiting for %s", apperror.ErrNotYourTurn, that.automated)
	}

	next, err := tictactoe.Apply(that.board, that.human, cell)
	if err != nil {
		log.Debug("move rejected", "error", err)
		return fmt.Errorf("failed make turn: %w", err)
	}

	that.board = next
	that.fallback = false
	that.lastErr = nil
	that.metrics.MoveAccepted(string(that.human), originHuman)

	that.advanceLocked()
	that.notifyLocked()

	return nil
}

// RetryAutomated re-issues the bot request after a stall.
func (that *SessionController) RetryAutomated() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != entity.StateAwaitingAutomated {
		return fmt.Errorf("%w: state %s", apperror.ErrNotYourTurn, that.state)
	}

	if that.inFlight {
		return apperror.ErrRequestInFlight
	}

	that.startRequestLocked()
	that.notifyLocked()

	return nil
}

// ResetGame starts a new game and invalidates any outstanding request.
func (that *SessionController) ResetGame() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.resetLocked()
	that.notifyLocked()

	that.logger.Info("game reset", "token", that.token)
}

// Close abandons any outstanding request and waits for it to return.
func (that *SessionController) Close() {
	that.stop()
	that.wg.Wait()
}

func (that *SessionController) resetLocked() {
	if that.cancelRequest != nil {
		that.cancelRequest()
		that.cancelRequest = nil
	}

	that.token++
	that.board = entity.EmptyBoard()
	that.state = entity.StateAwaitingHuman
	that.inFlight = false
	that.stalled = false
	that.lastErr = nil
	that.fallback = false
}

// advanceLocked derives the next state from the board.
func (that *SessionController) advanceLocked() {
	status := tictactoe.Evaluate(that.board)

	switch {
	case status.IsTerminal():
		that.state = entity.StateFinished
		that.metrics.GameFinished(resultLabel(status))
		that.logger.Info("game finished", "result", status.Text(), "token", that.token, "board", that.board.String())
	case status.Side == that.automated:
		that.state = entity.StateAwaitingAutomated
		that.startRequestLocked()
	default:
		that.state = entity.StateAwaitingHuman
	}
}

func (that *SessionController) startRequestLocked() {
	if that.inFlight {
		return
	}

	that.token++
	token := that.token
	board := that.board
	side := that.automated

	ctx, cancel := context.WithCancel(that.baseCtx)
	that.cancelRequest = cancel
	that.inFlight = true
	that.stalled = false

	that.wg.Add(1)
	go func() {
		defer that.wg.Done()

		move, err := that.bot.MakeTurn(ctx, board, side)
		that.resolve(token, move, err)
	}()
}

func (that *SessionController) resolve(token uint64, move service.Move, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "resolve", "token", token)

	if token != that.token || that.state != entity.StateAwaitingAutomated {
		that.metrics.StaleReply()
		log.Info("stale bot reply dropped", "current_token", that.token)
		return
	}

	that.inFlight = false
	if that.cancelRequest != nil {
		that.cancelRequest()
		that.cancelRequest = nil
	}

	if err != nil {
		that.stallLocked(err)
		return
	}

	next, err := tictactoe.Apply(that.board, that.automated, move.Cell)
	if err != nil {
		that.stallLocked(fmt.Errorf("%w: %w", apperror.ErrInvalidSuggestion, err))
		return
	}

	origin := originSuggested
	if move.Fallback {
		origin = originFallback
	}

	that.board = next
	that.fallback = move.Fallback
	that.lastErr = move.Cause
	that.metrics.MoveAccepted(string(that.automated), origin)
	log.Debug("bot move applied", "cell", move.Cell, "origin", origin)

	that.advanceLocked()
	that.notifyLocked()
}

// stallLocked keeps the board and the turn as they are and records why.
func (that *SessionController) stallLocked(err error) {
	that.stalled = true
	that.lastErr = err
	that.logger.Warn("automated player unavailable", "token", that.token, "error", err)
	that.notifyLocked()
}

func (that *SessionController) statusTextLocked() string {
	text := tictactoe.Evaluate(that.board).Text()

	switch {
	case that.state == entity.StateAwaitingAutomated && that.stalled:
		return text + " (automated player unavailable: " + describe(that.lastErr) + ")"
	case that.state == entity.StateAwaitingAutomated && that.inFlight:
		return text + " (thinking)"
	default:
		return text
	}
}

func (that *SessionController) snapshotLocked() entity.Snapshot {
	snapshot := entity.Snapshot{
		SessionID:  that.sessionID,
		Token:      that.token,
		Board:      that.board,
		Status:     tictactoe.Evaluate(that.board),
		State:      that.state,
		StatusText: that.statusTextLocked(),
		InFlight:   that.inFlight,
		Stalled:    that.stalled,
		Fallback:   that.fallback,
		UpdatedAt:  that.updatedAt,
	}

	if that.lastErr != nil {
		snapshot.LastError = that.lastErr.Error()
	}

	return snapshot
}

func (that *SessionController) notifyLocked() {
	that.updatedAt = time.Now().UTC()
	snapshot := that.snapshotLocked()

	for _, observer := range that.observers {
		observer.OnSnapshot(snapshot)
	}
}

func resultLabel(status entity.GameStatus) string {
	if status.Kind == entity.StatusWon {
		return string(status.Side)
	}
	return "draw"
}

// describe names the failure class for the status line.
func describe(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case !apperror.IsRequestError(err):
		return err.Error()
	case errors.Is(err, apperror.ErrUnreachable):
		return "service unreachable"
	case errors.Is(err, apperror.ErrServiceError):
		return "service error"
	case errors.Is(err, apperror.ErrMalformedResponse):
		return "malformed response"
	default:
		return "invalid suggestion"
	}
}
