package worker

//go:generate mockgen -source=retention.go -destination=retention_mock.go -package=worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Deleter drops stored samples older than a unix second.
type Deleter interface {
	// DeleteBefore removes samples recorded before the given second.
	DeleteBefore(ctx context.Context, recorded uint64) error
}

// RetentionWorker periodically deletes samples older than the retention window.
type RetentionWorker struct {
	deleter   Deleter
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRetentionWorker creates a RetentionWorker that keeps retention worth of
// samples and checks every interval.
func NewRetentionWorker(
	deleter Deleter,
	retention time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) *RetentionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionWorker{
		deleter:   deleter,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the worker until ctx is done. A non-positive retention
// disables deletion and Start only waits for ctx.
func (w *RetentionWorker) Start(ctx context.Context) error {
	if w.retention <= 0 || w.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	return w.run(ctx, ticker.C)
}

func (w *RetentionWorker) run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			w.purge(ctx)
		}
	}
}

// purge deletes everything older than the window. Failures are logged
// and retried on the next tick.
func (w *RetentionWorker) purge(ctx context.Context) {
	cutoff := w.now().Add(-w.retention).Unix()
	if cutoff <= 0 {
		return
	}

	if err := w.deleter.DeleteBefore(ctx, uint64(cutoff)); err != nil {
		w.logger.Error("retention purge failed",
			zap.Int64("cutoff", cutoff),
			zap.Error(err),
		)
		return
	}

	w.logger.Debug("retention purge", zap.Int64("cutoff", cutoff))
}
