package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	httpAdapter "github.com/bft-labs/flashship/internal/adapters/http"
	"github.com/bft-labs/flashship/internal/adapters/gpx"
	logAdapter "github.com/bft-labs/flashship/internal/adapters/log"
	"github.com/bft-labs/flashship/internal/adapters/speech"
	"github.com/bft-labs/flashship/internal/app"
	"github.com/bft-labs/flashship/internal/cliconfig"
	"github.com/bft-labs/flashship/internal/domain"
	"github.com/bft-labs/flashship/internal/ports"
)

const longHelp = `Convert a G-code file to X3G with gpx and upload it to a FlashAir card.

Steps:
  - Runs <dir>/gpx on the source file and waits for the .x3g output.
  - Sets the card's upload timestamp, then posts the file to upload.cgi.
  - Downloads the file back and compares MD5 checksums.
  - Optionally deletes the source (and the .x3g) after a verified upload.

On macOS progress is spoken with say(1) unless --quiet is given.`

var exampleUsage = strings.TrimSpace(`
  flashship -d /opt/gpx -f ~/prints/benchy.gcode
  flashship -d /opt/gpx -f benchy.gcode -i 192.168.1.40 --delete -x
`)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitMismatch = 2
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func userAgent() string { return "flashship/" + getVersion() }

// runFunc executes one pipeline run for a validated configuration.
type runFunc func(ctx context.Context, cfg cliconfig.Config, notifier ports.Notifier) (domain.Result, error)

// command bundles what the root command needs so tests can replace the run
// step and the notifier factory.
type command struct {
	stdout   io.Writer
	stderr   io.Writer
	log      zerolog.Logger
	run      runFunc
	notifier func(quiet bool) ports.Notifier
}

func newCommand(stdout, stderr io.Writer) *command {
	c := &command{
		stdout: stdout,
		stderr: stderr,
		log:    cliconfig.NewLogger(stderr),
	}
	c.run = c.runPipeline
	c.notifier = func(quiet bool) ports.Notifier {
		if quiet {
			return speech.Noop{}
		}
		return speech.ForPlatform(runtime.GOOS)
	}
	return c
}

func (c *command) root() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "flashship",
		Short:         "Convert G-code to X3G and upload it to a FlashAir card",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.flashship/config.toml), then apply flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			c.log = cliconfig.WithLevel(c.log, cfg.LogLevel)
			notifier := c.notifier(cfg.Quiet)

			if err := cfg.Validate(); err != nil {
				if missing := cfg.MissingArgs(); len(missing) > 0 {
					msg := fmt.Sprintf("ERROR: %s must be specified", missing[0])
					fmt.Fprintln(c.stdout, msg)
					_ = notifier.Announce(cmd.Context(), msg)
					_ = cmd.Usage()
				}
				return err
			}

			c.log.Info().Interface("config", cfg).Msg("configuration")

			res, err := c.run(cmd.Context(), cfg, notifier)
			if err != nil {
				return err
			}
			if !res.Match {
				return fmt.Errorf("%w: local %s, remote %s", domain.ErrChecksumMismatch, res.LocalDigest, res.RemoteDigest)
			}
			return nil
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.flashship/config.toml)")
	root.Flags().StringVarP(&cfg.Dir, "dir", "d", cfg.Dir, "directory containing the gpx binary")
	root.Flags().StringVarP(&cfg.File, "file", "f", cfg.File, "G-code file to convert and upload")
	root.Flags().StringVarP(&cfg.IP, "ip", "i", cfg.IP, "FlashAir card address")
	root.Flags().BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "do not speak status messages")
	root.Flags().BoolVar(&cfg.Delete, "delete", cfg.Delete, "remove the G-code file after a verified upload")
	root.Flags().BoolVarP(&cfg.DeleteX3G, "x3g", "x", cfg.DeleteX3G, "with --delete, also remove the .x3g file")

	root.Flags().StringVarP(&cfg.Machine, "machine", "m", cfg.Machine, "gpx machine type")
	root.Flags().DurationVar(&cfg.Wait, "wait", cfg.Wait, "how long to wait once for late converter output")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout (0 for none)")
	root.Flags().Int64Var(&cfg.MaxVerifyBytes, "max-verify-bytes", cfg.MaxVerifyBytes, "maximum bytes downloaded for verification")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return root
}

func (c *command) runPipeline(ctx context.Context, cfg cliconfig.Config, notifier ports.Notifier) (domain.Result, error) {
	logger := logAdapter.NewZerologAdapterWithLogger(c.log)

	converter, err := gpx.New(gpx.Config{
		Dir:     cfg.Dir,
		Machine: cfg.Machine,
		Wait:    cfg.Wait,
	}, logger, c.stdout, c.stderr)
	if err != nil {
		return domain.Result{}, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	uploader := httpAdapter.NewUploader(httpClient, logger, cfg.IP, userAgent())

	p := app.New(app.Config{
		Source:         cfg.File,
		MaxVerifyBytes: cfg.MaxVerifyBytes,
		Delete:         cfg.Delete,
		DeleteX3G:      cfg.DeleteX3G,
	}, converter, uploader,
		app.WithLogger(logger),
		app.WithNotifier(notifier),
		app.WithOutput(c.stdout),
	)
	return p.Run(ctx)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrChecksumMismatch):
		return exitMismatch
	default:
		return exitError
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	c := newCommand(os.Stdout, os.Stderr)
	err := c.root().ExecuteContext(ctx)
	stop()
	if err != nil && !errors.Is(err, domain.ErrChecksumMismatch) {
		c.log.Error().Err(err).Msg("flashship")
	}
	os.Exit(exitCode(err))
}
