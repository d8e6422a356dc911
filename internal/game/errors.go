package game

import "errors"

var ErrWrongState = errors.New("action not valid in current state")
var ErrNotImposter = errors.New("killer role cannot kill")
var ErrNotAlive = errors.New("actor is not alive")
var ErrInvalidTarget = errors.New("target is not alive or unknown")
var ErrMeetingsExhausted = errors.New("no emergency meetings left")
var ErrInvalidSettings = errors.New("settings out of bounds")
