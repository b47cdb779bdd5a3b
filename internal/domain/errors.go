package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz could not be resolved in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is unknown to the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when no live attempt exists for a
	// principal/quiz pair.
	ErrSessionNotFound = errors.New("attempt session not found")
	// ErrAttemptFinalized is returned to the loser of a concurrent submit race;
	// exactly one caller finalizes a session.
	ErrAttemptFinalized = errors.New("attempt already finalized")
	// ErrInvalidKey reports a cache contract violation (empty key).
	ErrInvalidKey = errors.New("invalid cache key")
	// ErrPersistence wraps failures to durably write a score record. The
	// in-memory session survives it so the client can resubmit.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnauthorized is surfaced when no authenticated principal accompanies
	// a request.
	ErrUnauthorized = errors.New("unauthorized")
)
