package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindInvalidInput    ErrorKind = "INVALID_INPUT"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindUpstreamFailure ErrorKind = "UPSTREAM_FAILURE"
	KindInternal        ErrorKind = "INTERNAL"
)

// Error is a classified failure. Handlers pick the HTTP status from Kind.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches cause to a sentinel while keeping errors.Is(err, sentinel) true.
func Wrap(sentinel *Error, cause error) error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrUnauthorized       = NewError(KindUnauthorized, "unauthorized")
	ErrInvalidCredentials = NewError(KindUnauthorized, "invalid credentials")
	ErrForbidden          = NewError(KindForbidden, "forbidden")

	ErrInvalidInput = NewError(KindInvalidInput, "invalid input")
	ErrInvalidCard  = NewError(KindInvalidInput, "invalid credit card")
	ErrEmptyCart    = NewError(KindInvalidInput, "no items to checkout")
	ErrInvalidDates = NewError(KindInvalidInput, "check-in must not be after check-out")

	ErrNotFound          = NewError(KindNotFound, "not found")
	ErrBookingNotFound   = NewError(KindNotFound, "booking not found")
	ErrItineraryNotFound = NewError(KindNotFound, "itinerary not found")
	ErrHotelNotFound     = NewError(KindNotFound, "hotel not found")
	ErrRoomNotFound      = NewError(KindNotFound, "room not found")
	ErrFlightNotFound    = NewError(KindNotFound, "flight not found")

	ErrNoCapacity         = NewError(KindConflict, "no rooms available for the requested dates")
	ErrRoomUnavailable    = NewError(KindConflict, "room is not available")
	ErrEmailTaken         = NewError(KindConflict, "email already registered")
	ErrCheckoutInProgress = NewError(KindConflict, "checkout already in progress")
	ErrBookingCancelled   = NewError(KindConflict, "booking is cancelled")

	ErrUpstream = NewError(KindUpstreamFailure, "flight provider unavailable")
)
