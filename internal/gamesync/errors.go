package gamesync

import (
	"errors"

	"github.com/jalvarol/checkers/internal/board"
	"github.com/jalvarol/checkers/internal/gameapi"
	"github.com/jalvarol/checkers/pkg/checkersdto"
)

var (
	ErrMalformedSnapshot = checkersdto.DomainError{Code: "malformed_snapshot", Message: "server sent a malformed game state"}
	ErrInvalidPosition   = checkersdto.DomainError{Code: "invalid_position", Message: "position outside the board"}
	ErrConnection        = checkersdto.DomainError{Code: "connection", Message: "game server unreachable", Retryable: true}
	ErrMoveRejected      = checkersdto.DomainError{Code: "move_rejected", Message: "move rejected by the server"}
	ErrRequestRejected   = checkersdto.DomainError{Code: "request_rejected", Message: "request rejected by the server"}

	ErrBusy          = checkersdto.DomainError{Code: "busy", Message: "a request is already in flight"}
	ErrNotReady      = checkersdto.DomainError{Code: "not_ready", Message: "client is not ready"}
	ErrNotDragging   = checkersdto.DomainError{Code: "not_dragging", Message: "no drag in progress"}
	ErrNotMovable    = checkersdto.DomainError{Code: "not_movable", Message: "square holds no piece of the side to move"}
	ErrStaleResponse = checkersdto.DomainError{Code: "stale_response", Message: "response arrived after the request was superseded"}
)

// classify maps transport and decoding failures onto the client's taxonomy.
// rejected is used for non-2xx answers.
func classify(err error, rejected checkersdto.DomainError) checkersdto.DomainError {
	var de checkersdto.DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, board.ErrMalformedSnapshot):
		return ErrMalformedSnapshot.Wrap(err)
	case errors.Is(err, board.ErrInvalidPosition):
		return ErrInvalidPosition.Wrap(err)
	}
	if _, ok := gameapi.StatusCode(err); ok {
		return rejected.Wrap(err)
	}
	// gameapi.ErrUnreachable, deadlines, cancellation: no response was seen.
	return ErrConnection.Wrap(err)
}
