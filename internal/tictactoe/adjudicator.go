package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

// Apply validates a move for turn and returns the resulting board.
// It never advances the turn; the caller owns turn order.
func Apply(board entity.Board, turn entity.Turn, cell int) (entity.Board, error) {
	if !turn.IsValid() {
		return board, fmt.Errorf("%w: unknown side %q", apperror.ErrNotYourTurn, turn)
	}

	if status := Evaluate(board); !status.IsInProgress() {
		return board, fmt.Errorf("%w: %s", apperror.ErrGameOver, status.Text())
	}

	if err := validateMove(board, cell); err != nil {
		return board, fmt.Errorf("invalid turn: %w", err)
	}

	return board.WithMove(cell, turn.Mark())
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, cell int) error {
	if cell < 0 || cell >= len(board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, cell)
	}

	if board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}
