// Package strip wipes embedded tags, optionally keeping artist and title.
package strip

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"metafetch/internal/logger"
	"metafetch/internal/retry"
	"metafetch/internal/tagstore"
)

// Mode selects how much survives a strip.
type Mode int

const (
	// KeepBasics rewrites only artist and title.
	KeepBasics Mode = iota
	// All removes every tag and picture.
	All
)

func (m Mode) String() string {
	if m == All {
		return "all"
	}
	return "keep-basics"
}

// DefaultPolicy gives every file two attempts.
var DefaultPolicy = retry.Policy{Attempts: 2, Delay: 500 * time.Millisecond}

// Stats summarises a strip run.
type Stats struct {
	Total   int
	Success int
	Failed  int
}

// Stripper removes metadata in place. Caches and the ledger are never
// touched.
type Stripper struct {
	policy retry.Policy
	dryRun bool
	logger *logger.Logger

	// OnFile is called after every file with its error, if any.
	OnFile func(path string, err error)
}

func New(policy retry.Policy, dryRun bool, log *logger.Logger) *Stripper {
	return &Stripper{policy: policy, dryRun: dryRun, logger: log}
}

// Run strips files in order, checking for cancellation between files.
func (s *Stripper) Run(ctx context.Context, files []string, mode Mode) (Stats, error) {
	stats := Stats{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := retry.Run(context.WithoutCancel(ctx), s.policy, func(context.Context) error {
			return s.stripFile(path, mode)
		})
		if err != nil {
			stats.Failed++
			s.logger.Error("Failed to strip %q: %v", filepath.Base(path), err)
		} else {
			stats.Success++
			s.logger.Debug("Stripped (%s): %s", mode, filepath.Base(path))
		}
		if s.OnFile != nil {
			s.OnFile(path, err)
		}
	}
	return stats, nil
}

func (s *Stripper) stripFile(path string, mode Mode) error {
	c, err := tagstore.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Empty() {
		return nil
	}

	artist, title := c.Get(tagstore.Artist), c.Get(tagstore.Title)
	c.Clear()
	if mode == KeepBasics {
		c.Set(tagstore.Artist, artist)
		c.Set(tagstore.Title, title)
	}

	if s.dryRun {
		s.logger.Info("[dry-run] would strip %s", filepath.Base(path))
		return nil
	}
	if err := c.Save(); err != nil {
		return fmt.Errorf("saving stripped tags: %w", err)
	}
	return nil
}
