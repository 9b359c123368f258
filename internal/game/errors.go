package game

import "errors"

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrNoPiece      = errors.New("no piece on square")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameOver     = errors.New("game is over")
	ErrUnknownRule  = errors.New("unknown rule")
	ErrHiddenPiece  = errors.New("piece is hidden")
	ErrInvalidSetup = errors.New("invalid setup")
)
