// Package domain contains the core values and errors shared by flashship.
//
// It has no dependencies on infrastructure concerns (HTTP, file system,
// logging, speech) so every layer can import it.
//
// # Errors
//
// Callers classify failures with errors.Is against the sentinels in
// errors.go. HTTP status failures are reported as [*StatusError], which
// unwraps to [ErrUnexpectedStatus].
package domain
