// Package app wires the convert, upload and verify steps into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/flashship/internal/domain"
	"github.com/bft-labs/flashship/internal/ports"
	"github.com/bft-labs/flashship/pkg/digest"
	"github.com/bft-labs/flashship/pkg/dostime"
	"github.com/bft-labs/flashship/pkg/form"
)

// Status lines printed and announced by the pipeline.
const (
	MsgGenerating     = "generating x3g file"
	MsgVerifying      = "verifying upload"
	MsgSuccess        = "Upload successful!"
	MsgFailure        = "Upload failed!"
	MsgOutputMissing  = "ERROR: x3g file not found"
	SayOutputMissing  = "ERROR, x3g file not found"
	SayTransferFailed = "ERROR, upload failed"
	SayConvertFailed  = "ERROR, x3g conversion failed"
	SayVerifyFailed   = "ERROR, verification failed"
)

// uploadField is the form field name upload.cgi reads the file from.
const uploadField = "file"

// Config contains the per-run settings of the pipeline.
type Config struct {
	// Source is the G-code file to convert and upload.
	Source string
	// MaxVerifyBytes bounds the remote digest.
	MaxVerifyBytes int64
	// Delete removes Source after a verified upload.
	Delete bool
	// DeleteX3G also removes the converted file; only honored with Delete.
	DeleteX3G bool
}

// Pipeline converts, uploads and verifies a single file.
type Pipeline struct {
	config    Config
	converter ports.Converter
	uploader  ports.Uploader
	opts      options
}

// New creates a pipeline with the given dependencies.
func New(config Config, converter ports.Converter, uploader ports.Uploader, opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if config.MaxVerifyBytes <= 0 {
		config.MaxVerifyBytes = digest.DefaultMaxBytes
	}
	return &Pipeline{
		config:    config,
		converter: converter,
		uploader:  uploader,
		opts:      o,
	}
}

// Run executes the pipeline once. A checksum mismatch is reported through
// Result.Match with a nil error; errors are returned for failed steps.
func (p *Pipeline) Run(ctx context.Context) (domain.Result, error) {
	res := domain.Result{SourcePath: p.config.Source}
	if p.config.Source == "" {
		return res, fmt.Errorf("%w: file must be specified", domain.ErrInvalidConfig)
	}
	log := p.opts.logger

	p.announce(ctx, MsgGenerating)
	out, err := p.converter.Convert(ctx, p.config.Source)
	if err != nil {
		err = fmt.Errorf("convert: %w", err)
		if errors.Is(err, domain.ErrConverterOutput) {
			p.report(ctx, MsgOutputMissing, SayOutputMissing)
		} else {
			p.fail(ctx, err, SayConvertFailed)
		}
		return res, err
	}
	res.OutputPath = out
	name := filepath.Base(out)

	p.announce(ctx, "uploading "+stem(p.config.Source))
	if err := p.transfer(ctx, out, name); err != nil {
		p.fail(ctx, err, SayTransferFailed)
		return res, err
	}

	p.announce(ctx, MsgVerifying)
	remote, err := p.uploader.RemoteDigest(ctx, name, p.config.MaxVerifyBytes)
	if err != nil {
		err = fmt.Errorf("verify: %w", err)
		p.fail(ctx, err, SayTransferFailed)
		return res, err
	}
	local, err := digest.File(out)
	if err != nil {
		err = fmt.Errorf("verify: %w", err)
		p.fail(ctx, err, SayVerifyFailed)
		return res, err
	}
	res.LocalDigest, res.RemoteDigest = local, remote
	res.Match = local == remote

	log.Info("verified upload",
		ports.String("file", name),
		ports.String("local_md5", local),
		ports.String("remote_md5", remote),
		ports.Bool("match", res.Match),
	)

	if !res.Match {
		p.report(ctx, MsgFailure, MsgFailure)
		return res, nil
	}
	p.report(ctx, MsgSuccess, MsgSuccess)

	removed, err := cleanup(p.config, out)
	res.Removed = removed
	for _, r := range removed {
		log.Info("removed file", ports.String("path", r))
	}
	if err != nil {
		return res, fmt.Errorf("cleanup: %w", err)
	}
	return res, nil
}

// transfer primes the card with the current time and posts the file.
func (p *Pipeline) transfer(ctx context.Context, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	f := form.New()
	if err := f.ReadFile(uploadField, name, src, ""); err != nil {
		return err
	}

	stamp, err := dostime.Pack(p.opts.now())
	if err != nil {
		return fmt.Errorf("upload time: %w", err)
	}
	if err := p.uploader.Prime(ctx, stamp); err != nil {
		return fmt.Errorf("prime: %w", err)
	}
	if err := p.uploader.Upload(ctx, f); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	p.opts.logger.Info("uploaded file",
		ports.String("file", name),
		ports.Int64("body_bytes", f.Len()),
		ports.String("ftime", dostime.Hex(stamp)),
	)
	return nil
}

// fail reports err unless the run was canceled.
func (p *Pipeline) fail(ctx context.Context, err error, phrase string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	p.report(ctx, "ERROR: "+err.Error(), phrase)
}

// report prints line and announces phrase.
func (p *Pipeline) report(ctx context.Context, line, phrase string) {
	fmt.Fprintln(p.opts.out, line)
	p.announce(ctx, phrase)
}

func (p *Pipeline) announce(ctx context.Context, text string) {
	if err := p.opts.notifier.Announce(ctx, text); err != nil {
		p.opts.logger.Debug("announcement failed", ports.String("text", text), ports.Err(err))
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
