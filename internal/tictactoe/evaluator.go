package tictactoe

import "github.com/rocketscienceinc/tictactoe-llm/internal/entity"

// WinCombos lists the winning lines in evaluation order:
// rows top to bottom, columns left to right, then both diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate computes the status of a board. The first complete line decides the winner.
func Evaluate(board entity.Board) entity.GameStatus {
	if winner, ok := winningMark(board); ok {
		return entity.Won(entity.Turn(winner))
	}

	// the game will continue until all the squares are full
	if len(board.EmptyCells()) == 0 {
		return entity.Drawn()
	}

	return entity.InProgress(nextTurn(board))
}

func winningMark(board entity.Board) (entity.Cell, bool) {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a, true
		}
	}

	return entity.EmptyCell, false
}

// nextTurn relies on X always moving first.
func nextTurn(board entity.Board) entity.Turn {
	if board.Count(entity.MarkX) > board.Count(entity.MarkO) {
		return entity.PlayerO
	}
	return entity.PlayerX
}
