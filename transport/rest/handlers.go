package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

type sessionUseCase interface {
	Board() entity.Board
	Status() entity.GameStatus
	Snapshot() entity.Snapshot
	PlayHumanMove(cell int) error
	RetryAutomated() error
	ResetGame()
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type statusResponse struct {
	Status entity.GameStatus `json:"status"`
	Text   string            `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type gameHandler struct {
	logger  *slog.Logger
	session sessionUseCase
}

func newGameHandler(logger *slog.Logger, session sessionUseCase) *gameHandler {
	return &gameHandler{
		logger:  logger.With("component", "rest"),
		session: session,
	}
}

func (that *gameHandler) getGame(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.session.Snapshot())
}

func (that *gameHandler) getBoard(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.session.Board())
}

func (that *gameHandler) getStatus(w http.ResponseWriter, _ *http.Request) {
	snapshot := that.session.Snapshot()
	that.writeJSON(w, http.StatusOK, statusResponse{Status: snapshot.Status, Text: snapshot.StatusText})
}

func (that *gameHandler) playMove(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req moveRequest
	if err := decoder.Decode(&req); err != nil || req.Cell == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"cell": <0..8>}`})
		return
	}

	if err := that.session.PlayHumanMove(*req.Cell); err != nil {
		that.logger.Debug("move rejected", "cell", *req.Cell, "error", err)
		that.writeJSON(w, moveErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}

	that.writeJSON(w, http.StatusOK, that.session.Snapshot())
}

func (that *gameHandler) reset(w http.ResponseWriter, _ *http.Request) {
	that.session.ResetGame()
	that.writeJSON(w, http.StatusOK, that.session.Snapshot())
}

func (that *gameHandler) retry(w http.ResponseWriter, _ *http.Request) {
	if err := that.session.RetryAutomated(); err != nil {
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}

	that.writeJSON(w, http.StatusAccepted, that.session.Snapshot())
}

func (that *gameHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("could not write response", "error", err)
	}
}

func moveErrorStatus(err error) int {
	if !apperror.IsInvalidMove(err) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, apperror.ErrGameOver) || errors.Is(err, apperror.ErrNotYourTurn) {
		return http.StatusConflict
	}

	return http.StatusUnprocessableEntity
}
