package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the upload pipeline.
// They are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when a required setting is missing or malformed.
	ErrInvalidConfig = errors.New("flashship: invalid configuration")

	// ErrConverterLaunch is returned when the converter binary cannot be started.
	ErrConverterLaunch = errors.New("flashship: converter could not be started")

	// ErrConverterOutput is returned when the converter did not produce the
	// expected output file within the grace delay.
	ErrConverterOutput = errors.New("flashship: x3g file not found")

	// ErrTransport is returned when an HTTP request to the card fails before a
	// response is received.
	ErrTransport = errors.New("flashship: transport failure")

	// ErrUnexpectedStatus is returned when the card answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("flashship: unexpected http status")

	// ErrChecksumMismatch marks a completed upload whose remote digest differs
	// from the local one. The pipeline itself reports a mismatch through
	// Result; the command layer uses this error to choose the exit code.
	ErrChecksumMismatch = errors.New("flashship: checksum mismatch")
)

// StatusError describes a non-2xx response from the card.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: server returned %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Unwrap lets errors.Is(err, ErrUnexpectedStatus) match.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
