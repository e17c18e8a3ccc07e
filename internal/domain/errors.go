package domain

import "errors"

var (
	// ErrInvalidName is returned when a player name fails the allowed pattern.
	ErrInvalidName = errors.New("invalid player name")
	// ErrSessionNotFound is returned when a game session has not been started or has expired.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionAlreadyFinalized is returned when a terminal session receives another mutation.
	ErrSessionAlreadyFinalized = errors.New("game session already finalized")
	// ErrInvalidTransition is returned when an operation does not apply to the current phase.
	ErrInvalidTransition = errors.New("operation not allowed in current phase")
	// ErrPoolExhausted indicates fewer than three undrawn questions remain for a level.
	ErrPoolExhausted = errors.New("question pool exhausted")
	// ErrStoreUnavailable wraps leaderboard read/append failures.
	ErrStoreUnavailable = errors.New("leaderboard store unavailable")
	// ErrMalformedQuestionBank indicates the question bank is corrupt or too small to serve a game.
	ErrMalformedQuestionBank = errors.New("malformed question bank")
)
