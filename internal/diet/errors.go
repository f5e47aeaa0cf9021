package diet

import (
	"errors"
	"fmt"
)

// Kind classifies domain failures. The HTTP layer maps kinds to status codes;
// this package never knows about HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidReference
	KindInvalidInput
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidReference:
		return "invalid reference"
	case KindInvalidInput:
		return "invalid input"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Sentinels for errors.Is. Stores return ErrNotFound (possibly wrapped) for
// missing rows.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidReference = &Error{Kind: KindInvalidReference, Message: "invalid reference"}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
)

// Error carries a Kind and a short message safe to show to a user. Err is the
// underlying cause, if any, and is never shown.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func notFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func invalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Message: msg} }

func invalidReference(msg string) error { return &Error{Kind: KindInvalidReference, Message: msg} }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message of err, or fallback for errors
// that are not classified.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return fallback
}
