package link

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates an awaited call did not reply within its deadline.
	ErrTimeout = errors.New("remote call timed out")

	// ErrClosed indicates the client connection closed while a call was pending.
	ErrClosed = errors.New("client connection closed")

	// ErrTargetMissing indicates the call addressed an object the client
	// could not resolve, e.g. a row node with no matching identifier.
	ErrTargetMissing = errors.New("call target not found on client")
)

// RemoteError carries an exception reported by the client while executing
// a requested method or script.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote execution failed: %s", e.Message)
}
