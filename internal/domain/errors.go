package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock indicates a requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyCart indicates checkout was attempted with an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrEmptyItemList indicates checkout was attempted without items.
	ErrEmptyItemList = errors.New("no items")
	// ErrInvalidState indicates a disallowed order status transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

var kinds = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrInsufficientStock,
	ErrEmptyCart,
	ErrEmptyItemList,
	ErrInvalidState,
	ErrValidation,
}

// Error pairs an error kind with a message meant for display.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the sentinel kind carried by err, or nil for unclassified errors.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns the public name of an error kind.
func KindName(kind error) string {
	switch kind {
	case ErrNotFound:
		return "NotFound"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrInsufficientStock:
		return "InsufficientStock"
	case ErrEmptyCart:
		return "EmptyCart"
	case ErrEmptyItemList:
		return "EmptyItemList"
	case ErrInvalidState:
		return "InvalidState"
	case ErrValidation:
		return "ValidationFailed"
	default:
		return "Internal"
	}
}
