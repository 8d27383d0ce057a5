package linereader

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestPending is returned by ReadLine when another ReadLine call
	// has not resolved yet. Only one outstanding request is allowed.
	ErrRequestPending = errors.New("linereader: another request is already waiting for the next line")

	// ErrUnknownEncoding is returned by New when Config.Encoding names no known scheme.
	ErrUnknownEncoding = errors.New("linereader: unknown encoding")

	// ErrNotAttached is returned by Pipe writes made before the pipe was
	// handed to New.
	ErrNotAttached = errors.New("linereader: pipe not attached to a reader")

	// ErrClosedPipe is returned by Pipe writes after Close or CloseWithError.
	ErrClosedPipe = errors.New("linereader: write on closed pipe")
)

// DecodingError reports a chunk that could not be turned into text under
// the configured encoding. It is delivered through the same channel as
// errors reported by the Source.
type DecodingError struct {
	Encoding string
	// Offset is the number of raw bytes received before the failing chunk.
	Offset int64
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("linereader: decode %s at byte %d: %v", e.Encoding, e.Offset, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
