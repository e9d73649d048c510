package utils

import (
	"errors"
	"fmt"
)

// GenericRemoteMessage is what users see for any failed outbound call.
const GenericRemoteMessage = "An error occurred. Please try again later."

// RemoteCallError wraps a failure from the credential store, an inference
// endpoint or the generative endpoint. It is never retried.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteCallError for op. A nil err stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteCallError{Op: op, Err: err}
}

// IsRemote reports whether err is, or wraps, a RemoteCallError.
func IsRemote(err error) bool {
	var rc *RemoteCallError
	return errors.As(err, &rc)
}
