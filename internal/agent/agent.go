package agent

//go:generate mockgen -source=agent.go -destination=agent_mock.go -package=agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sbilibin2017/gophrt/internal/models"
)

const (
	defaultPollInterval   = time.Second
	defaultReportInterval = 10 * time.Second
	shutdownFlushTimeout  = 5 * time.Second
	maxPendingSamples     = 100_000
)

// ErrNoSources is returned by Start when the agent has nothing to poll.
var ErrNoSources = errors.New("agent: no sources configured")

// Result is the outcome of one consecutive poll of a source.
type Result struct {
	Kind           string
	Timestamp      uint64 // Cursor after the poll
	AggregateDelay uint64
	Samples        []*models.Sample
}

// Source polls one resource kind of the real-time API.
type Source interface {
	// Kind returns the resource kind, used for logs and metrics.
	Kind() string
	// Poll fetches everything new since the previous poll.
	Poll(ctx context.Context) (*Result, error)
}

// Saver persists batches of samples.
type Saver interface {
	// Save stores the batch. Returns an error if nothing could be stored.
	Save(ctx context.Context, samples []*models.Sample) error
}

// Recorder receives polling telemetry.
type Recorder interface {
	ObservePoll(kind string, took time.Duration, err error)
	ObserveResponse(kind string, timestamp, aggregateDelay uint64, samples int)
}

// Agent polls every source on its own ticker and flushes the collected
// samples to the saver on the report ticker.
type Agent struct {
	saver          Saver
	sources        []Source
	logger         *zap.Logger
	recorder       Recorder
	pollInterval   time.Duration
	reportInterval time.Duration
}

// Opt configures an Agent.
type Opt func(*Agent)

// New creates an Agent for sources writing to saver.
func New(saver Saver, sources []Source, opts ...Opt) *Agent {
	a := &Agent{
		saver:          saver,
		sources:        sources,
		logger:         zap.NewNop(),
		recorder:       nopRecorder{},
		pollInterval:   defaultPollInterval,
		reportInterval: defaultReportInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithLogger sets the logger of the agent.
func WithLogger(logger *zap.Logger) Opt {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the telemetry recorder of the agent.
func WithRecorder(recorder Recorder) Opt {
	return func(a *Agent) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

// WithPollInterval sets the poll interval to the first positive value in intervals.
func WithPollInterval(intervals ...time.Duration) Opt {
	return func(a *Agent) {
		for _, interval := range intervals {
			if interval > 0 {
				a.pollInterval = interval
				break
			}
		}
	}
}

// WithReportInterval sets the report interval to the first positive value in intervals.
func WithReportInterval(intervals ...time.Duration) Opt {
	return func(a *Agent) {
		for _, interval := range intervals {
			if interval > 0 {
				a.reportInterval = interval
				break
			}
		}
	}
}

// Start runs the agent until ctx is done. Pending samples are flushed
// once more before it returns.
func (a *Agent) Start(ctx context.Context) error {
	if len(a.sources) == 0 {
		return ErrNoSources
	}

	ticks := make([]<-chan time.Time, 0, len(a.sources))
	for range a.sources {
		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()
		ticks = append(ticks, ticker.C)
	}

	reportTicker := time.NewTicker(a.reportInterval)
	defer reportTicker.Stop()

	return a.run(ctx, ticks, reportTicker.C)
}

func (a *Agent) run(ctx context.Context, ticks []<-chan time.Time, report <-chan time.Time) error {
	samplesCh := a.generator(ctx, ticks)
	return a.sender(ctx, report, samplesCh)
}

// generator polls each source on its own tick channel. Every source is
// driven by exactly one goroutine, so its cursor has a single writer.
// The returned channel is closed once every poller has stopped.
func (a *Agent) generator(ctx context.Context, ticks []<-chan time.Time) <-chan []*models.Sample {
	out := make(chan []*models.Sample, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(src Source, tick <-chan time.Time) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick:
					samples := a.poll(ctx, src)
					if len(samples) == 0 {
						continue
					}
					select {
					case out <- samples:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src, ticks[i])
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (a *Agent) poll(ctx context.Context, src Source) []*models.Sample {
	start := time.Now()
	res, err := src.Poll(ctx)
	a.recorder.ObservePoll(src.Kind(), time.Since(start), err)

	if err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("poll failed",
				zap.String("kind", src.Kind()),
				zap.Error(err),
			)
		}
		return nil
	}

	a.recorder.ObserveResponse(res.Kind, res.Timestamp, res.AggregateDelay, len(res.Samples))
	a.logger.Debug("poll",
		zap.String("kind", res.Kind),
		zap.Uint64("timestamp", res.Timestamp),
		zap.Uint64("aggregate_delay", res.AggregateDelay),
		zap.Int("samples", len(res.Samples)),
	)
	return res.Samples
}

// sender batches incoming samples and saves them on every report tick.
// On shutdown it drains the pollers and flushes the rest with a fresh deadline.
func (a *Agent) sender(ctx context.Context, report <-chan time.Time, in <-chan []*models.Sample) error {
	var batch []*models.Sample

	for {
		select {
		case <-ctx.Done():
			for samples := range in {
				batch = append(batch, samples...)
			}
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			defer cancel()
			a.flush(flushCtx, batch)
			return nil

		case samples, ok := <-in:
			if !ok {
				a.flush(ctx, batch)
				return nil
			}
			batch = append(batch, samples...)

		case <-report:
			batch = a.flush(ctx, batch)
		}
	}
}

// flush saves batch and returns what is still pending. A failed batch is
// kept for the next tick, bounded by maxPendingSamples.
func (a *Agent) flush(ctx context.Context, batch []*models.Sample) []*models.Sample {
	if len(batch) == 0 {
		return batch
	}

	if err := a.saver.Save(ctx, batch); err != nil {
		a.logger.Error("save samples",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		if len(batch) > maxPendingSamples {
			batch = batch[len(batch)-maxPendingSamples:]
		}
		return batch
	}

	a.logger.Debug("saved samples", zap.Int("count", len(batch)))
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObservePoll(string, time.Duration, error)     {}
func (nopRecorder) ObserveResponse(string, uint64, uint64, int) {}
