package runner

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunner_RunWorkerSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWorker := NewMockWorker(ctrl)
	mockWorker.EXPECT().Start(gomock.Any()).Return(nil).Times(1)

	r := NewRunner(WithLogger(zap.NewNop()))
	r.AddWorker("agent", mockWorker)

	require.NoError(t, r.Run(context.Background()))
}

func TestRunner_FirstErrorStopsOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failing := NewMockWorker(ctrl)
	blocking := NewMockWorker(ctrl)
	expectedErr := errors.New("worker failed")

	failing.EXPECT().Start(gomock.Any()).Return(expectedErr)

	stopped := make(chan struct{})
	blocking.EXPECT().Start(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	})

	r := NewRunner()
	r.AddWorker("failing", failing)
	r.AddWorker("blocking", blocking)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, expectedErr)

	select {
	case <-stopped:
	default:
		t.Fatal("Run returned before the blocking worker stopped")
	}
}

func TestRunner_WaitsForWorkersOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWorker := NewMockWorker(ctrl)

	flushed := false
	mockWorker.EXPECT().Start(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		flushed = true
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r := NewRunner()
	r.AddWorker("agent", mockWorker)

	require.NoError(t, r.Run(ctx))
	assert.True(t, flushed)
}

func TestRunner_RunHTTPServerGracefulShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockServer := NewMockHTTPServer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := make(chan struct{})
	mockServer.EXPECT().ListenAndServe().DoAndReturn(func() error {
		cancel()
		<-closed
		return http.ErrServerClosed
	})
	mockServer.EXPECT().Shutdown(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		assert.NoError(t, ctx.Err())
		close(closed)
		return nil
	})

	r := NewRunner(WithShutdownTimeout(time.Second))
	r.AddHTTPServer("api", mockServer)

	require.NoError(t, r.Run(ctx))
}

func TestRunner_RunHTTPServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockServer := NewMockHTTPServer(ctrl)
	expectedErr := errors.New("address in use")

	mockServer.EXPECT().ListenAndServe().Return(expectedErr)

	r := NewRunner()
	r.AddHTTPServer("api", mockServer)

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, expectedErr)
}

func TestRunner_ShutdownError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockServer := NewMockHTTPServer(ctrl)
	expectedErr := errors.New("shutdown failed")

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	mockServer.EXPECT().ListenAndServe().DoAndReturn(func() error {
		cancel()
		<-release
		return http.ErrServerClosed
	})
	mockServer.EXPECT().Shutdown(gomock.Any()).Return(expectedErr)

	r := NewRunner()
	r.AddHTTPServer("api", mockServer)

	err := r.Run(ctx)
	assert.ErrorIs(t, err, expectedErr)
}
