package actions

import (
	"errors"
	"fmt"
)

// InvalidInputError reports that the raw arguments of an action call failed
// structural validation. When this error is returned the handler was never
// invoked, so the call had no side effects.
type InvalidInputError struct {
	ActionName string
	Reason     string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for action %q: %s", e.ActionName, e.Reason)
}

// NewInvalidInputError builds a validation error with a formatted diagnostic.
func NewInvalidInputError(action, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{ActionName: action, Reason: fmt.Sprintf(format, args...)}
}

// AsInvalidInput unwraps err into an InvalidInputError if it is one.
func AsInvalidInput(err error) (*InvalidInputError, bool) {
	var iie *InvalidInputError
	if errors.As(err, &iie) {
		return iie, true
	}
	return nil, false
}

// ErrUnknownAction is returned by the dispatch layer when the requested action
// name is not registered.
var ErrUnknownAction = errors.New("unknown action")
