// Package ports defines the interfaces (ports) that connect the pipeline in
// internal/app to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Converter]: Turns a G-code file into an X3G file
//   - [Uploader]: Primes, uploads and fetches files on the card
//   - [Notifier]: Announces progress, e.g. through text-to-speech
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer depends only on these interfaces. Adapters in
// internal/adapters implement them with gpx, net/http, say and zerolog.
package ports
