package apperror

import "errors"

// Move validation errors. A rejected move never changes the board.
var (
	ErrOutOfRange      = errors.New("cell index is out of range")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrGameOver        = errors.New("game is already finished")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrRequestInFlight = errors.New("suggestion request is already in flight")
)

// Suggestion service errors.
var (
	ErrUnreachable       = errors.New("suggestion service is unreachable")
	ErrServiceError      = errors.New("suggestion service returned an error status")
	ErrMalformedResponse = errors.New("malformed suggestion response")
	ErrInvalidSuggestion = errors.New("invalid suggestion")
)

// IsInvalidMove reports whether err is one of the local move validation errors.
func IsInvalidMove(err error) bool {
	return errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrGameOver) ||
		errors.Is(err, ErrNotYourTurn)
}

// IsRequestError reports whether err came from the suggestion service round trip.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnreachable) ||
		errors.Is(err, ErrServiceError) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrInvalidSuggestion)
}
