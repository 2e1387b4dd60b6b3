package tree

import "errors"

// Sentinel errors forming the tree's failure taxonomy. All are recovered at
// the point of occurrence and surfaced to the interactive layer; none should
// terminate the session.
var (
	// ErrNotFound reports that a requested child name does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrPasswordRequired reports that a container cannot be opened without
	// a password.
	ErrPasswordRequired = errors.New("password required")

	// ErrIncorrectPassword reports that a supplied container password was
	// wrong.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrResolutionFailed reports that a container handle could not be
	// resolved, e.g. after exhausting password attempts.
	ErrResolutionFailed = errors.New("container resolution failed")

	// ErrFormat reports that the underlying container cannot be parsed.
	ErrFormat = errors.New("decompression error")

	// ErrUnsupported reports an action invoked on a backend/type combination
	// that does not support it. The operation is a no-op.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrInternal reports a state assumed impossible by design. It indicates
	// a core invariant was broken but must still not crash the session.
	ErrInternal = errors.New("internal consistency violation")
)
