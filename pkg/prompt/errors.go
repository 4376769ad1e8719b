package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrDeclined is returned when the user rejects the final confirmation.
	ErrDeclined = errors.New("prompt: generation declined")
	// ErrInvalidRequest wraps answers that form a request the generator
	// would reject.
	ErrInvalidRequest = errors.New("prompt: invalid request")
)
