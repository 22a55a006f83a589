package domain

import "fmt"

// Error kinds surfaced by round lifecycle operations
const (
	KindInvalidState = "InvalidState" // operation against a round in the wrong phase
	KindStaleSignal  = "StaleSignal"  // clock/trigger event for a round no longer current
	KindRoundNotOpen = "RoundNotOpen" // bet admission against a non-open round or past the window
)

// Error is a round lifecycle error with a machine-readable kind
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors by kind, so wrapped errors compare against the
// sentinel values below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds a kinded error
func NewError(kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks
var (
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrStaleSignal  = &Error{Kind: KindStaleSignal}
	ErrRoundNotOpen = &Error{Kind: KindRoundNotOpen}
)
