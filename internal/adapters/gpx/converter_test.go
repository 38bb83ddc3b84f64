package gpx

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	logAdapter "github.com/bft-labs/flashship/internal/adapters/log"
	"github.com/bft-labs/flashship/internal/domain"
)

// fakeGPX writes an executable gpx script into a new directory.
func fakeGPX(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script converter")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gpx"), []byte(script), 0o755))
	return dir
}

func writeSource(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "benchy.gcode")
	require.NoError(t, os.WriteFile(p, []byte("G28\nG1 X10\n"), 0o644))
	return p
}

func newConverter(t *testing.T, dir string, wait time.Duration) *Converter {
	t.Helper()
	c, err := New(Config{Dir: dir, Wait: wait}, logAdapter.NewNoopLogger(), io.Discard, io.Discard)
	require.NoError(t, err)
	return c
}

func TestBinaryName(t *testing.T) {
	assert.Equal(t, "gpx.exe", BinaryName("windows"))
	assert.Equal(t, "gpx", BinaryName("darwin"))
	assert.Equal(t, "gpx", BinaryName("linux"))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("prints", "benchy.x3g"), OutputPath(filepath.Join("prints", "benchy.gcode")))
	assert.Equal(t, "part.v2.x3g", OutputPath("part.v2.gcode"))
	assert.Equal(t, "noext.x3g", OutputPath("noext"))
}

func TestConverter_Args(t *testing.T) {
	c, err := New(Config{Dir: "/opt/gpx", Machine: "r2x"}, logAdapter.NewNoopLogger(), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"-p", "-m", "r2x", "in.gcode", "in.x3g"}, c.Args("in.gcode", "in.x3g"))
	assert.Equal(t, filepath.Join("/opt/gpx", BinaryName("")), c.binary)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, logAdapter.NewNoopLogger(), io.Discard, io.Discard)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))

	_, err = New(Config{Dir: "/x", Wait: -time.Second}, logAdapter.NewNoopLogger(), io.Discard, io.Discard)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestConvert_ProducesOutput(t *testing.T) {
	dir := fakeGPX(t, `printf 'X3G' > "$5"; echo "$@" > "$(dirname "$0")/args"`)
	src := writeSource(t)
	c := newConverter(t, dir, DefaultWait)
	c.after = func(time.Duration) <-chan time.Time {
		t.Fatal("grace delay should not be used when output is present")
		return nil
	}

	out, err := c.Convert(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, OutputPath(src), out)

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Equal(t, "-p -m r1d "+src+" "+out, strings.TrimSpace(string(args)))
}

func TestConvert_NeverProducesOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := fakeGPX(t, "exit 0")
	src := writeSource(t)
	c := newConverter(t, dir, 10*time.Second)

	var waits []time.Duration
	c.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	_, err := c.Convert(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConverterOutput))
	assert.Equal(t, []time.Duration{10 * time.Second}, waits)
}

func TestConvert_WatchEndsWaitEarly(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := fakeGPX(t, "exit 0")
	src := writeSource(t)
	c := newConverter(t, dir, time.Hour)
	c.settle = 20 * time.Millisecond

	done := make(chan struct{})
	c.after = func(time.Duration) <-chan time.Time {
		go func() {
			defer close(done)
			time.Sleep(20 * time.Millisecond)
			_ = os.WriteFile(OutputPath(src), []byte("X3G"), 0o644)
		}()
		return nil // the delay never elapses on its own
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Convert(ctx, src)
	<-done
	require.NoError(t, err)
	assert.Equal(t, OutputPath(src), out)
}

func TestConvert_WaitsForSlowWriter(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := fakeGPX(t, "exit 0")
	src := writeSource(t)
	c := newConverter(t, dir, time.Hour)
	c.settle = 100 * time.Millisecond

	content := []byte("X3G payload")
	done := make(chan struct{})
	c.after = func(time.Duration) <-chan time.Time {
		go func() {
			defer close(done)
			f, err := os.Create(OutputPath(src))
			if err != nil {
				return
			}
			defer f.Close()
			time.Sleep(300 * time.Millisecond)
			_, _ = f.Write(content)
		}()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Convert(ctx, src)
	require.NoError(t, err)

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), fi.Size(), "returned before the writer finished")
	<-done
}

func TestConvert_LateOutputAfterDelay(t *testing.T) {
	dir := fakeGPX(t, "exit 0")
	src := writeSource(t)
	c := newConverter(t, dir, time.Second)

	c.after = func(time.Duration) <-chan time.Time {
		// Simulate a file that appears without a watch event being seen.
		require.NoError(t, os.WriteFile(OutputPath(src), []byte("X3G"), 0o644))
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	out, err := c.Convert(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, OutputPath(src), out)
}

func TestConvert_NonZeroExitStillChecksOutput(t *testing.T) {
	dir := fakeGPX(t, `printf 'X3G' > "$5"; exit 3`)
	src := writeSource(t)
	c := newConverter(t, dir, time.Second)

	out, err := c.Convert(context.Background(), src)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestConvert_LaunchFailure(t *testing.T) {
	c := newConverter(t, t.TempDir(), time.Second)
	_, err := c.Convert(context.Background(), writeSource(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConverterLaunch))
}

func TestConvert_EmptySource(t *testing.T) {
	c := newConverter(t, t.TempDir(), time.Second)
	_, err := c.Convert(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestConvert_CanceledDuringWait(t *testing.T) {
	dir := fakeGPX(t, "exit 0")
	src := writeSource(t)
	c := newConverter(t, dir, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	c.after = func(time.Duration) <-chan time.Time {
		cancel()
		return nil
	}

	_, err := c.Convert(ctx, src)
	assert.True(t, errors.Is(err, context.Canceled))
}
