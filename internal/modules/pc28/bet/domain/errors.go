package domain

import "fmt"

// Error kinds surfaced by the admission gate and settlement
const (
	KindInvalidStake   = "InvalidStake"   // stake outside configured bounds
	KindInvalidParam   = "InvalidParam"   // bad or misplaced bet parameter
	KindAlreadySettled = "AlreadySettled" // duplicate settlement trigger, absorbed
)

// Error is a bet error with a machine-readable kind
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors by kind
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
	ErrInvalidStake   = &Error{Kind: KindInvalidStake}
	ErrInvalidParam   = &Error{Kind: KindInvalidParam}
	ErrAlreadySettled = &Error{Kind: KindAlreadySettled}
)
