package game

import "errors"

var (
	ErrInsufficientQuestions = errors.New("question pool cannot fill every level")
	ErrGameNotActive         = errors.New("game is not active")
	ErrHintAlreadyUsed       = errors.New("hint already used")
	ErrNoSuchPosition        = errors.New("no question at that position")
	ErrUnknownHint           = errors.New("unknown hint type")
	ErrInvalidState          = errors.New("invalid game state")
)
