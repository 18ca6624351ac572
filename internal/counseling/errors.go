package counseling

import "errors"

var (
	// ErrUninitialized is returned when an operation runs before Init, Load,
	// or Resume has established a counseling history.
	ErrUninitialized = errors.New("counseling state not initialized")

	// ErrEmptyUtterance is returned when ProcessTurn receives blank input.
	ErrEmptyUtterance = errors.New("empty utterance")
)
