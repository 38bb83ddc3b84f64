package app

import (
	"errors"
	"io/fs"
	"os"
)

// cleanup removes the source file, and the converted file when requested,
// after a verified upload. It returns the paths actually removed.
func cleanup(cfg Config, output string) ([]string, error) {
	if !cfg.Delete {
		return nil, nil
	}
	targets := []string{cfg.Source}
	if cfg.DeleteX3G {
		targets = append(targets, output)
	}

	var removed []string
	for _, p := range targets {
		if err := os.Remove(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}
