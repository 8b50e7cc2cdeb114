package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
)

type Cell string

const (
	EmptyCell Cell = ""
	MarkX     Cell = "X"
	MarkO     Cell = "O"
)

type Turn string

const (
	PlayerX Turn = "X"
	PlayerO Turn = "O"
)

const (
	BoardSize = 9
	sideSize  = 3
)

// Board is a row-major 3x3 grid, index = row*3 + col.
// It is an array, so every assignment is an independent copy.
type Board [BoardSize]Cell

func EmptyBoard() Board {
	return Board{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
}

// WithMove returns a copy of the board with mark placed at index.
func (that Board) WithMove(index int, mark Cell) (Board, error) {
	if index < 0 || index >= BoardSize {
		return that, fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, index)
	}

	if that[index] != EmptyCell {
		return that, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, index)
	}

	next := that
	next[index] = mark

	return next, nil
}

func (that Board) IsEmpty(index int) bool {
	return index >= 0 && index < BoardSize && that[index] == EmptyCell
}

func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func (that Board) Count(mark Cell) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

// String renders the board as three rows, "." for empty cells.
func (that Board) String() string {
	var sb strings.Builder
	for row := 0; row < sideSize; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < sideSize; col++ {
			cell := that[row*sideSize+col]
			if cell == EmptyCell {
				sb.WriteByte('.')
				continue
			}
			sb.WriteString(string(cell))
		}
	}

	return sb.String()
}

// PromptString renders the board as a flat list with null for empty cells, e.g. [null,X,O,...].
func (that Board) PromptString() string {
	parts := make([]string, 0, BoardSize)
	for _, cell := range that {
		if cell == EmptyCell {
			parts = append(parts, "null")
			continue
		}
		parts = append(parts, string(cell))
	}

	return "[" + strings.Join(parts, ",") + "]"
}

// CellIndex converts a (row, col) pair into a board index.
func CellIndex(row, col int) (int, error) {
	if row < 0 || row >= sideSize || col < 0 || col >= sideSize {
		return -1, fmt.Errorf("%w: row %d col %d", apperror.ErrOutOfRange, row, col)
	}

	return row*sideSize + col, nil
}

func (that Turn) Mark() Cell {
	return Cell(that)
}

func (that Turn) Opponent() Turn {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Turn) IsValid() bool {
	return that == PlayerX || that == PlayerO
}
