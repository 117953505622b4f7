package live

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by send operations invoked outside the Active
// state. The session itself is untouched.
var ErrNotConnected = errors.New("session not connected")

// ConnectionError wraps a transport failure that terminates the session.
// A fresh Connect is required afterwards; nothing is retried automatically.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
