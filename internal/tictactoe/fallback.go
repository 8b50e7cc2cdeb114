package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

var (
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrUnknownPolicy    = errors.New("unknown fallback policy")
)

// Policy picks a cell for side locally, without the suggestion service.
type Policy func(board entity.Board, side entity.Turn) (int, error)

const (
	PolicyNone       = "none"
	PolicyFirstEmpty = "first-empty"
	PolicyHeuristic  = "heuristic"
)

// preference order once no line needs finishing or blocking: centre, corners, edges.
var preferredCells = [entity.BoardSize]int{4, 0, 2, 6, 8, 1, 3, 5, 7}

// PolicyByName returns nil for PolicyNone.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case PolicyNone:
		return nil, nil
	case PolicyFirstEmpty:
		return FirstEmpty, nil
	case PolicyHeuristic, "":
		return Heuristic, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// FirstEmpty picks the lowest-index empty cell.
func FirstEmpty(board entity.Board, _ entity.Turn) (int, error) {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return -1, ErrNoAvailableMoves
	}

	return cells[0], nil
}

// Heuristic wins if it can, blocks the opponent's winning line otherwise,
// and falls back to centre, corners and edges. The result is deterministic.
func Heuristic(board entity.Board, side entity.Turn) (int, error) {
	if len(board.EmptyCells()) == 0 {
		return -1, ErrNoAvailableMoves
	}

	if cell, ok := completingCell(board, side.Mark()); ok {
		return cell, nil
	}

	if cell, ok := completingCell(board, side.Opponent().Mark()); ok {
		return cell, nil
	}

	for _, cell := range preferredCells {
		if board[cell] == entity.EmptyCell {
			return cell, nil
		}
	}

	return -1, ErrNoAvailableMoves
}

// completingCell finds the empty cell of a line where mark already holds the other two.
func completingCell(board entity.Board, mark entity.Cell) (int, bool) {
	for _, combo := range WinCombos {
		owned, empty := 0, -1
		for _, cell := range combo {
			switch board[cell] {
			case mark:
				owned++
			case entity.EmptyCell:
				empty = cell
			}
		}

		if owned == 2 && empty >= 0 {
			return empty, true
		}
	}

	return -1, false
}
