package srs

import "errors"

var (
	// ErrInvalidScore rejects scores outside 0-3 before anything is written.
	ErrInvalidScore = errors.New("score must be between 0 and 3")

	// ErrUnknownCard means the card id is not in the card index.
	ErrUnknownCard = errors.New("unknown card")

	// ErrLedgerCorrupt is raised when a card's event history is out of order
	// or carries duplicate timestamps. It is never repaired silently.
	ErrLedgerCorrupt = errors.New("review ledger corrupt: events out of order")

	// ErrNoEvents is returned when replaying an empty history.
	ErrNoEvents = errors.New("no review events to replay")
)
