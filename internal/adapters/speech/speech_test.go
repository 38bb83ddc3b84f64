package speech

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestForPlatform(t *testing.T) {
	if _, ok := ForPlatform("darwin").(Say); !ok {
		t.Errorf("ForPlatform(darwin) is not Say")
	}
	for _, goos := range []string{"linux", "windows", "freebsd"} {
		if _, ok := ForPlatform(goos).(Noop); !ok {
			t.Errorf("ForPlatform(%s) is not Noop", goos)
		}
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Announce(context.Background(), "anything"); err != nil {
		t.Fatalf("Noop.Announce() error = %v", err)
	}
}

func TestSay_RunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script helper")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "spoken")
	script := filepath.Join(dir, "fake-say")
	body := "#!/bin/sh\nprintf '%s' \"$1\" > " + out + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := (Say{Command: script}).Announce(context.Background(), "uploading part"); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "uploading part" {
		t.Errorf("spoken = %q, want %q", got, "uploading part")
	}
}

func TestSay_MissingCommand(t *testing.T) {
	s := Say{Command: filepath.Join(t.TempDir(), "no-such-say")}
	if err := s.Announce(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing command")
	}
}
