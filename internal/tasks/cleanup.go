package tasks

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultCleanupGrace is how long a served staging file lives before the
// cleaner removes it. Long enough for the response copy to finish.
const DefaultCleanupGrace = 2 * time.Second

// Cleaner deletes staging assets a grace interval after they have been
// served. Deletion failures are logged, never escalated; a file already gone
// is success.
type Cleaner struct {
	grace  time.Duration
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewCleaner creates a cleaner. Non-positive grace falls back to the default.
func NewCleaner(grace time.Duration, logger *log.Logger) *Cleaner {
	if grace <= 0 {
		grace = DefaultCleanupGrace
	}
	return &Cleaner{
		grace:   grace,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// Schedule arranges for the path to be deleted after the grace interval.
// Scheduling an already-pending path is a no-op, so repeated retrievals of
// the same file do not stack deletions.
func (c *Cleaner) Schedule(path string) {
	if path == "" {
		return
	}

	c.mu.Lock()
	if _, ok := c.pending[path]; ok {
		c.mu.Unlock()
		return
	}
	c.pending[path] = struct{}{}
	c.mu.Unlock()

	time.AfterFunc(c.grace, func() {
		c.remove(path)

		c.mu.Lock()
		delete(c.pending, path)
		c.mu.Unlock()
	})
}

func (c *Cleaner) remove(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		if c.logger != nil {
			c.logger.Debug("cleaned up staging file", "path", path)
		}
	case os.IsNotExist(err):
		// Already gone.
	default:
		if c.logger != nil {
			c.logger.Warn("failed to clean up staging file", "path", path, "error", err)
		}
	}
}
