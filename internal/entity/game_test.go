package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyBoard(t *testing.T) {
	// Given: a new empty board
	board := EmptyBoard()

	// Then: it holds nine empty cells
	require.Len(t, board, BoardSize)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, board.EmptyCells())
	assert.Equal(t, 0, board.Count(MarkX))
	assert.Equal(t, 0, board.Count(MarkO))
}

func TestBoard_WithMove(t *testing.T) {
	t.Run("Places the mark and leaves the original untouched", func(t *testing.T) {
		// Given: an empty board
		board := EmptyBoard()

		// When: X is placed in the centre
		next, err := board.WithMove(4, MarkX)

		// Then: the new board has the mark, the old one does not
		require.NoError(t, err)
		assert.Equal(t, MarkX, next[4])
		assert.Equal(t, EmptyCell, board[4])
	})

	t.Run("Error on occupied cell", func(t *testing.T) {
		// Given: a board with X in cell 0
		board, err := EmptyBoard().WithMove(0, MarkX)
		require.NoError(t, err)

		// When: O tries to take the same cell
		next, err := board.WithMove(0, MarkO)

		// Then: ErrCellOccupied is returned and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, board, next)
		assert.Equal(t, MarkX, next[0])
	})

	t.Run("Error on index out of range", func(t *testing.T) {
		for _, index := range []int{-1, 9, 20} {
			// When: an index outside 0..8 is used
			_, err := EmptyBoard().WithMove(index, MarkX)

			// Then: ErrOutOfRange is returned
			assert.ErrorIs(t, err, apperror.ErrOutOfRange, "index %d", index)
		}
	})
}

func TestBoard_Rendering(t *testing.T) {
	// Given: a partially filled board
	board := Board{
		MarkX, EmptyCell, MarkO,
		EmptyCell, MarkX, EmptyCell,
		EmptyCell, EmptyCell, MarkO,
	}

	// Then: both renderings follow row-major order
	assert.Equal(t, "X.O\n.X.\n..O", board.String())
	assert.Equal(t, "[X,null,O,null,X,null,null,null,O]", board.PromptString())
}

func TestCellIndex(t *testing.T) {
	t.Run("Converts row and column to a row-major index", func(t *testing.T) {
		index, err := CellIndex(0, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, index)

		index, err = CellIndex(2, 1)
		require.NoError(t, err)
		assert.Equal(t, 7, index)
	})

	t.Run("Rejects coordinates outside the grid", func(t *testing.T) {
		for _, rc := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {5, 5}} {
			_, err := CellIndex(rc[0], rc[1])
			assert.ErrorIs(t, err, apperror.ErrOutOfRange, "row %d col %d", rc[0], rc[1])
		}
	})
}

func TestTurn(t *testing.T) {
	assert.Equal(t, PlayerO, PlayerX.Opponent())
	assert.Equal(t, PlayerX, PlayerO.Opponent())
	assert.Equal(t, MarkO, PlayerO.Mark())
	assert.True(t, PlayerX.IsValid())
	assert.False(t, Turn("Z").IsValid())
}

func TestGameStatus_Text(t *testing.T) {
	assert.Equal(t, "Next player: O", InProgress(PlayerO).Text())
	assert.Equal(t, "Winner: X", Won(PlayerX).Text())
	assert.Equal(t, "Draw", Drawn().Text())
	assert.True(t, Drawn().IsTerminal())
	assert.False(t, InProgress(PlayerX).IsTerminal())
}
