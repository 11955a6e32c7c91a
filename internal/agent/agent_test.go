package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sbilibin2017/gophrt/internal/models"
)

func testSamples(recorded uint64, pops ...string) []*models.Sample {
	samples := make([]*models.Sample, 0, len(pops))
	for _, pop := range pops {
		samples = append(samples, &models.Sample{
			Kind:      models.KindService,
			ServiceID: "svc",
			Recorded:  recorded,
			POP:       pop,
		})
	}
	return samples
}

// runAgent starts a.run in the background with manual tick channels.
func runAgent(ctx context.Context, a *Agent, ticks []<-chan time.Time, report <-chan time.Time) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- a.run(ctx, ticks, report)
	}()
	return done
}

// reportUntil keeps ticking report until closed is closed.
func reportUntil(t *testing.T, report chan<- time.Time, closed <-chan struct{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case report <- time.Now():
		default:
		}
		select {
		case <-closed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAgent_PollAndReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockSource(ctrl)
	saver := NewMockSaver(ctrl)
	rec := NewMockRecorder(ctrl)

	samples := testSamples(10, "", "AMS")

	src.EXPECT().Kind().Return(models.KindService).AnyTimes()
	src.EXPECT().Poll(gomock.Any()).Return(&Result{
		Kind:           models.KindService,
		Timestamp:      11,
		AggregateDelay: 3,
		Samples:        samples,
	}, nil)
	rec.EXPECT().ObservePoll(models.KindService, gomock.Any(), nil)
	rec.EXPECT().ObserveResponse(models.KindService, uint64(11), uint64(3), 2)

	saved := make(chan struct{})
	saver.EXPECT().Save(gomock.Any(), samples).DoAndReturn(
		func(context.Context, []*models.Sample) error {
			close(saved)
			return nil
		})

	a := New(saver, []Source{src}, WithRecorder(rec), WithLogger(zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	report := make(chan time.Time)
	done := runAgent(ctx, a, []<-chan time.Time{tick}, report)

	tick <- time.Now()
	reportUntil(t, report, saved)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestAgent_SaveFailureKeepsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockSource(ctrl)
	saver := NewMockSaver(ctrl)

	samples := testSamples(20, "")

	src.EXPECT().Kind().Return(models.KindService).AnyTimes()
	src.EXPECT().Poll(gomock.Any()).Return(&Result{Kind: models.KindService, Timestamp: 21, Samples: samples}, nil)

	saved := make(chan struct{})
	gomock.InOrder(
		saver.EXPECT().Save(gomock.Any(), samples).Return(errors.New("storage down")),
		saver.EXPECT().Save(gomock.Any(), samples).DoAndReturn(
			func(context.Context, []*models.Sample) error {
				close(saved)
				return nil
			}),
	)

	a := New(saver, []Source{src})

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	report := make(chan time.Time)
	done := runAgent(ctx, a, []<-chan time.Time{tick}, report)

	tick <- time.Now()
	reportUntil(t, report, saved)

	cancel()
	assert.NoError(t, <-done)
}

func TestAgent_PollErrorIsRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockSource(ctrl)
	saver := NewMockSaver(ctrl)
	rec := NewMockRecorder(ctrl)

	pollErr := errors.New("503")
	observed := make(chan struct{})

	src.EXPECT().Kind().Return(models.KindOrigin).AnyTimes()
	src.EXPECT().Poll(gomock.Any()).Return(nil, pollErr)
	rec.EXPECT().ObservePoll(models.KindOrigin, gomock.Any(), pollErr).Do(
		func(string, time.Duration, error) {
			close(observed)
		})

	a := New(saver, []Source{src}, WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := runAgent(ctx, a, []<-chan time.Time{tick}, make(chan time.Time))

	tick <- time.Now()
	<-observed

	cancel()
	assert.NoError(t, <-done)
}

func TestAgent_SenderFlushesOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	saver := NewMockSaver(ctrl)

	first := testSamples(30, "")
	second := testSamples(31, "AMS", "NRT")
	all := append(append([]*models.Sample{}, first...), second...)

	saver.EXPECT().Save(gomock.Any(), all).Return(nil)

	a := New(saver, nil)

	in := make(chan []*models.Sample, 2)
	in <- first
	in <- second
	close(in)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.sender(ctx, make(chan time.Time), in)
	assert.NoError(t, err)
}

func TestAgent_SenderNothingToFlush(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	saver := NewMockSaver(ctrl)
	a := New(saver, nil)

	in := make(chan []*models.Sample)
	close(in)

	err := a.sender(context.Background(), make(chan time.Time), in)
	assert.NoError(t, err)
}

func TestAgent_FlushCapsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	saver := NewMockSaver(ctrl)
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("down"))

	a := New(saver, nil)

	batch := make([]*models.Sample, maxPendingSamples+10)
	for i := range batch {
		batch[i] = &models.Sample{Recorded: uint64(i)}
	}

	pending := a.flush(context.Background(), batch)
	require.Len(t, pending, maxPendingSamples)
	assert.Equal(t, uint64(10), pending[0].Recorded)
}

func TestAgent_StartWithoutSources(t *testing.T) {
	a := New(nil, nil)
	err := a.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestAgent_StartStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockSource(ctrl)
	src.EXPECT().Kind().Return(models.KindService).AnyTimes()
	src.EXPECT().Poll(gomock.Any()).Return(&Result{Kind: models.KindService}, nil).AnyTimes()

	a := New(NewMockSaver(ctrl), []Source{src},
		WithPollInterval(time.Millisecond),
		WithReportInterval(time.Hour),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.Start(ctx))
}

func TestOptions(t *testing.T) {
	logger := zap.NewExample()

	a := New(nil, nil,
		WithLogger(logger),
		WithLogger(nil),
		WithRecorder(nil),
		WithPollInterval(0, -time.Second, 2*time.Second),
		WithReportInterval(),
	)

	assert.Same(t, logger, a.logger)
	assert.Equal(t, nopRecorder{}, a.recorder)
	assert.Equal(t, 2*time.Second, a.pollInterval)
	assert.Equal(t, defaultReportInterval, a.reportInterval)
}
