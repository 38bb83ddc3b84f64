// Package gpx runs the GPX converter to turn G-code into X3G.
package gpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/flashship/internal/domain"
	"github.com/bft-labs/flashship/internal/ports"
)

const (
	// DefaultMachine is the gpx machine type for a Replicator 1 Dual.
	DefaultMachine = "r1d"
	// DefaultWait is the single grace period granted to the converter output.
	DefaultWait = 10 * time.Second
	// DefaultSettle is how long the output must go without writes before a
	// watch event ends the grace period early.
	DefaultSettle = 500 * time.Millisecond
	// OutputExt is the extension of converted files.
	OutputExt = ".x3g"
)

// Config configures a Converter.
type Config struct {
	// Dir is the directory holding the gpx binary.
	Dir string
	// Machine is passed to gpx -m.
	Machine string
	// Wait is how long to wait for a late output file before giving up.
	Wait time.Duration
	// GOOS selects the binary name; empty means the running platform.
	GOOS string
}

// Converter implements ports.Converter by executing gpx.
type Converter struct {
	binary  string
	machine string
	wait    time.Duration
	settle  time.Duration
	logger  ports.Logger
	stdout  io.Writer
	stderr  io.Writer

	// after is swapped in tests to observe and shorten the grace delay.
	after func(time.Duration) <-chan time.Time
}

// New returns a converter. Existence of the binary is not checked here; a
// missing binary surfaces from Convert as domain.ErrConverterLaunch.
func New(cfg Config, logger ports.Logger, stdout, stderr io.Writer) (*Converter, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: converter dir is required", domain.ErrInvalidConfig)
	}
	if cfg.Machine == "" {
		cfg.Machine = DefaultMachine
	}
	if cfg.Wait < 0 {
		return nil, fmt.Errorf("%w: wait must not be negative", domain.ErrInvalidConfig)
	}
	return &Converter{
		binary:  filepath.Join(cfg.Dir, BinaryName(cfg.GOOS)),
		machine: cfg.Machine,
		wait:    cfg.Wait,
		settle:  DefaultSettle,
		logger:  logger,
		stdout:  stdout,
		stderr:  stderr,
		after:   time.After,
	}, nil
}

// BinaryName returns the gpx executable name for goos.
func BinaryName(goos string) string {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return "gpx.exe"
	}
	return "gpx"
}

// OutputPath returns the X3G path gpx writes for source.
func OutputPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), stem+OutputExt)
}

// Args returns the gpx arguments used to convert source into output.
func (c *Converter) Args(source, output string) []string {
	return []string{"-p", "-m", c.machine, source, output}
}

// Convert runs gpx on source and returns the produced X3G path.
func (c *Converter) Convert(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: source file is required", domain.ErrInvalidConfig)
	}
	output := OutputPath(source)

	cmd := exec.CommandContext(ctx, c.binary, c.Args(source, output)...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	c.logger.Info("executing converter", ports.String("cmd", strings.Join(cmd.Args, " ")))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrConverterLaunch, c.binary, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// gpx may exit non-zero on warnings; the output check decides.
		c.logger.Warn("converter exited with error", ports.Int("code", exitErr.ExitCode()))
	}

	if err := c.awaitOutput(ctx, output); err != nil {
		return "", err
	}
	return output, nil
}

// awaitOutput checks for path, and if it is missing waits once for the grace
// delay before checking a final time. The wait ends early once the file has
// content and no write has been seen for the settle period.
func (c *Converter) awaitOutput(ctx context.Context, path string) error {
	if exists(path) {
		return nil
	}

	c.logger.Info("waiting for converter output", ports.String("path", path), ports.Duration("wait", c.wait))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("file watch unavailable", ports.Err(err))
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			c.logger.Debug("file watch unavailable", ports.Err(err))
		}
	}

	if err := c.waitFor(ctx, watcher, path); err != nil {
		return err
	}

	if !exists(path) {
		return fmt.Errorf("%w: %s", domain.ErrConverterOutput, path)
	}
	return nil
}

func (c *Converter) waitFor(ctx context.Context, watcher *fsnotify.Watcher, path string) error {
	timeout := c.after(c.wait)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events, errs = watcher.Events, watcher.Errors
	}

	// quiet fires settle after the most recent write to path.
	var quiet <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return nil
		case <-quiet:
			quiet = nil
			if size(path) > 0 {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(c.settle)
			quiet = timer.C
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Debug("file watch error", ports.Err(err))
		}
	}
}

func size(p string) int64 {
	fi, err := os.Stat(p)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
