package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// mtimeSlack tolerates file systems that round modification times.
const mtimeSlack = 2 * time.Second

const pollInterval = 500 * time.Millisecond

// FindLatest returns the most recently modified file in dir matching pattern
// whose modification time is not older than since (minus a small slack).
// A zero since accepts any file.
func FindLatest(dir, pattern string, since time.Time) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = m, info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrNoCandidate, pattern, dir)
	}
	if !since.IsZero() && bestTime.Before(since.Add(-mtimeSlack)) {
		return "", fmt.Errorf("%w: newest %s is older than %s", ErrNoCandidate, filepath.Base(best), since.Format(time.RFC3339))
	}

	abs, err := filepath.Abs(best)
	if err != nil {
		return best, nil
	}
	return abs, nil
}

// WaitForLatest polls FindLatest until a file qualifies, the timeout elapses
// or ctx is done.
func WaitForLatest(ctx context.Context, dir, pattern string, since time.Time, timeout time.Duration) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("download dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		path, err := FindLatest(dir, pattern, since)
		if err == nil {
			log.WithField("path", path).Debug("Found downloaded file")
			return path, nil
		}
		select {
		case <-ctx.Done():
			return "", err
		case <-ticker.C:
		}
	}
}
