// Package jobs runs periodic background work for long-lived commands.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/cardflow/pkg/adapters/file"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/exchange"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/robfig/cron/v3"
)

// Backup copies the stored flow into timestamped JSON files.
type Backup struct {
	slots  ports.SlotStore
	dir    string
	masker *middleware.Masker
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Backup.
type Option func(*Backup)

// WithMasker masks sensitive values before they are written.
func WithMasker(m *middleware.Masker) Option {
	return func(b *Backup) {
		b.masker = m
	}
}

// NewBackup creates a backup job writing into dir.
func NewBackup(slots ports.SlotStore, dir string, logger *slog.Logger, opts ...Option) *Backup {
	b := &Backup{slots: slots, dir: dir, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunOnce writes one backup and returns its path. An empty flow slot is skipped and
// returns an empty path.
func (b *Backup) RunOnce(ctx context.Context) (string, error) {
	data, err := b.slots.Get(ctx, ports.SlotFlow)
	if errors.Is(err, domain.ErrSlotNotFound) {
		b.logger.Debug("nothing to back up")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flow: %w", err)
	}
	if b.masker != nil {
		if data, err = b.masker.MaskJSON(data); err != nil {
			return "", fmt.Errorf("failed to mask flow: %w", err)
		}
	}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	path := filepath.Join(b.dir, exchange.FileName("flow", "json", b.now()))
	if err := file.WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	b.logger.Info("flow backed up", "path", path)
	return path, nil
}

// Schedule runs the backup on the given cron spec until ctx is done.
func Schedule(ctx context.Context, spec string, b *Backup) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := c.AddFunc(spec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := b.RunOnce(jobCtx); err != nil {
			b.logger.Error("backup failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
