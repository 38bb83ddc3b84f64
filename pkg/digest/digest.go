package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const (
	// FileBlockSize is the read size used for local files.
	FileBlockSize = 1 << 20
	// StreamBlockSize is the read size used for remote bodies.
	StreamBlockSize = 4 << 10
	// DefaultMaxBytes bounds how much of a remote body is hashed.
	DefaultMaxBytes int64 = 100 << 20
)

// File returns the hex MD5 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, FileBlockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reader returns the hex MD5 of at most maxBytes bytes read from r.
// The cutoff is exact: bytes past the budget are never read or hashed.
// A non-positive maxBytes selects DefaultMaxBytes.
func Reader(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	lr := io.LimitReader(r, maxBytes)

	h := md5.New()
	buf := make([]byte, StreamBlockSize)
	for {
		n, err := lr.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read stream: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
