// Package speech implements ports.Notifier with the platform's
// text-to-speech command.
package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/bft-labs/flashship/internal/ports"
)

// Noop discards announcements.
type Noop struct{}

func (Noop) Announce(context.Context, string) error { return nil }

// Say speaks announcements through macOS say(1).
type Say struct {
	// Command defaults to "say".
	Command string
}

// Announce blocks until the phrase has been spoken.
func (s Say) Announce(ctx context.Context, text string) error {
	name := s.Command
	if name == "" {
		name = "say"
	}
	if err := exec.CommandContext(ctx, name, text).Run(); err != nil {
		return fmt.Errorf("speak %q: %w", text, err)
	}
	return nil
}

// ForPlatform returns the notifier for goos: Say on darwin, Noop elsewhere.
func ForPlatform(goos string) ports.Notifier {
	if goos == "darwin" {
		return Say{}
	}
	return Noop{}
}
