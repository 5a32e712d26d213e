package chain

import (
	"errors"
	"fmt"
)

// ErrGetMethodNotFound is returned when the contract is not deployed or does
// not expose the requested get-method.
var ErrGetMethodNotFound = errors.New("get method not found")

// ResultValidationError reports a get-method stack of unexpected shape.
type ResultValidationError struct {
	Method string
	Reason string
}

func (e *ResultValidationError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("invalid get method result: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s result: %s", e.Method, e.Reason)
}
