package family

import "errors"

// Business-rule failures surfaced to callers. Handlers classify them with
// errors.Is to pick a status code; everything else is an internal error.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrNotInitialized    = errors.New("service not initialized")
	ErrRemoteUnreachable = errors.New("remote store unreachable")
)
