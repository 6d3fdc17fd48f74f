// Package scanerr defines the error taxonomy a scan can surface to its
// caller. Errors recoverable within a single file — a truncated log
// fragment, an unrecognized fragment type — never reach here; they're
// handled inside the log reader and never leave internal/leveldbfmt.
package scanerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotADirectory is returned by Scan when the given path does not
	// exist or is not a directory.
	ErrNotADirectory = errors.New("scanerr: not a directory")

	// ErrBadMagic is returned when a table file's footer magic does not
	// match the expected LevelDB constant.
	ErrBadMagic = errors.New("scanerr: bad table footer magic")

	// ErrMalformedSnappy is returned when a Snappy-compressed block fails to
	// decode: a truncated length prefix, literal or copy header, a
	// zero-offset copy, or a copy whose offset reaches before the start of
	// the output. Output that would run past the declared length is
	// reported as ErrLengthMismatch instead.
	ErrMalformedSnappy = errors.New("scanerr: malformed snappy block")

	// ErrLengthMismatch is returned when a decompressed block's length
	// doesn't match the length recorded in its Snappy frame header.
	ErrLengthMismatch = errors.New("scanerr: decompressed length mismatch")
)

// ScanError wraps an error with the file that produced it. Callers that want
// to distinguish error kinds should use errors.Is against the sentinels
// above, not compare ScanError values directly.
type ScanError struct {
	File string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanerr: %s: %v", e.File, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
