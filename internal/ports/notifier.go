package ports

import "context"

// Notifier announces milestone messages to the user.
// Failures are never fatal to the pipeline.
type Notifier interface {
	Announce(ctx context.Context, text string) error
}
