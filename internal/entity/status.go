package entity

import "time"

type StatusKind string

const (
	StatusInProgress StatusKind = "in_progress"
	StatusWon        StatusKind = "won"
	StatusDrawn      StatusKind = "drawn"
)

// GameStatus is derived from a board, never stored on its own.
// Side holds the next player for InProgress and the winner for Won.
type GameStatus struct {
	Kind StatusKind `json:"kind"`
	Side Turn       `json:"side,omitempty"`
}

func InProgress(next Turn) GameStatus { return GameStatus{Kind: StatusInProgress, Side: next} }
func Won(winner Turn) GameStatus      { return GameStatus{Kind: StatusWon, Side: winner} }
func Drawn() GameStatus               { return GameStatus{Kind: StatusDrawn} }

func (that GameStatus) IsInProgress() bool {
	return that.Kind == StatusInProgress
}

func (that GameStatus) IsTerminal() bool {
	return that.Kind == StatusWon || that.Kind == StatusDrawn
}

// Text is the human readable status line.
func (that GameStatus) Text() string {
	switch that.Kind {
	case StatusWon:
		return "Winner: " + string(that.Side)
	case StatusDrawn:
		return "Draw"
	default:
		return "Next player: " + string(that.Side)
	}
}

type SessionState string

const (
	StateAwaitingHuman     SessionState = "awaiting_human"
	StateAwaitingAutomated SessionState = "awaiting_automated"
	StateFinished          SessionState = "finished"
)

// Snapshot is a read-only view of a session, handed to observers and the UI boundary.
type Snapshot struct {
	SessionID  string       `json:"session_id"`
	Token      uint64       `json:"token"`
	Board      Board        `json:"board"`
	Status     GameStatus   `json:"status"`
	State      SessionState `json:"state"`
	StatusText string       `json:"status_text"`
	InFlight   bool         `json:"in_flight"`
	Stalled    bool         `json:"stalled"`
	LastError  string       `json:"last_error,omitempty"`
	Fallback   bool         `json:"fallback"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
