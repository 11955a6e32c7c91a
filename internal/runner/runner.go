package runner

//go:generate mockgen -source=runner.go -destination=runner_mock.go -package=runner

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

// Worker defines something that runs until its context is done.
type Worker interface {
	Start(ctx context.Context) error
}

// HTTPServer defines HTTP server interface.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type namedWorker struct {
	name   string
	worker Worker
}

type namedServer struct {
	name   string
	server HTTPServer
}

// Runner runs workers and HTTP servers together. The first failure stops
// everything else; Run returns once all of them have finished.
type Runner struct {
	mu              sync.Mutex
	workers         []namedWorker
	servers         []namedServer
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// Opt configures a Runner.
type Opt func(*Runner)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *zap.Logger) Opt {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithShutdownTimeout bounds graceful server shutdown.
func WithShutdownTimeout(timeout time.Duration) Opt {
	return func(r *Runner) {
		if timeout > 0 {
			r.shutdownTimeout = timeout
		}
	}
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Opt) *Runner {
	r := &Runner{
		logger:          zap.NewNop(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddWorker adds a Worker to be run later.
func (r *Runner) AddWorker(name string, worker Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.workers, namedWorker{name: name, worker: worker})
}

// AddHTTPServer adds an HTTPServer to be run later.
func (r *Runner) AddHTTPServer(name string, srv HTTPServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = append(r.servers, namedServer{name: name, server: srv})
}

// Run starts everything and blocks until ctx is done or a component fails,
// then waits for the rest to stop. It returns the first failure, if any.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	workers := append([]namedWorker(nil), r.workers...)
	servers := append([]namedServer(nil), r.servers...)
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(name string, err error) {
		r.logger.Error("component failed", zap.String("component", name), zap.Error(err))
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, w := range workers {
		wg.Add(1)
		go func(w namedWorker) {
			defer wg.Done()
			r.logger.Info("worker started", zap.String("component", w.name))
			if err := w.worker.Start(ctx); err != nil {
				fail(w.name, err)
				return
			}
			r.logger.Info("worker stopped", zap.String("component", w.name))
		}(w)
	}

	for _, s := range servers {
		wg.Add(1)
		go func(s namedServer) {
			defer wg.Done()
			if err := r.serve(ctx, s); err != nil {
				fail(s.name, err)
			}
		}(s)
	}

	wg.Wait()
	return firstErr
}

// serve runs one server until it fails or ctx is done, then shuts it down gracefully.
func (r *Runner) serve(ctx context.Context, s namedServer) error {
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- s.server.ListenAndServe()
	}()
	r.logger.Info("server started", zap.String("component", s.name))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		r.logger.Info("server stopped", zap.String("component", s.name))
		return nil
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
