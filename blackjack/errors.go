package blackjack

import "errors"

var (
	ErrRoundOver       = errors.New("round already over")
	ErrRoundInProgress = errors.New("round still in progress")
	ErrNoRound         = errors.New("no round dealt")
	ErrInvalidAction   = errors.New("invalid action")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
