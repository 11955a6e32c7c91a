package services

//go:generate mockgen -source=sample.go -destination=sample_mock.go -package=services

import (
	"context"

	"github.com/sbilibin2017/gophrt/internal/models"
)

// Writer defines the interface for saving samples.
type Writer interface {
	// Save persists the given samples, replacing ones with the same identity.
	Save(ctx context.Context, samples []*models.Sample) error
}

// Reader defines the interface for retrieving samples.
type Reader interface {
	// List returns samples matching the filter, newest first.
	List(ctx context.Context, filter models.SampleFilter) ([]*models.Sample, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SampleService provides methods to manage samples.
type SampleService struct {
	writer Writer
	reader Reader
	pinger Pinger
}

// NewSampleService creates a new SampleService. pinger may be nil for
// storages without a connection to check.
func NewSampleService(
	writer Writer,
	reader Reader,
	pinger Pinger,
) *SampleService {
	return &SampleService{
		writer: writer,
		reader: reader,
		pinger: pinger,
	}
}

// Save stores samples. An empty batch is a no-op.
func (svc *SampleService) Save(
	ctx context.Context,
	samples []*models.Sample,
) error {
	if len(samples) == 0 {
		return nil
	}
	return svc.writer.Save(ctx, samples)
}

// List returns samples matching filter.
func (svc *SampleService) List(
	ctx context.Context,
	filter models.SampleFilter,
) ([]*models.Sample, error) {
	return svc.reader.List(ctx, filter)
}

// Latest returns the newest all-POP sample of a kind for a service,
// or nil when there is none.
func (svc *SampleService) Latest(
	ctx context.Context,
	kind string,
	serviceID string,
) (*models.Sample, error) {
	samples, err := svc.reader.List(ctx, models.SampleFilter{
		Kind:          kind,
		ServiceID:     serviceID,
		AggregateOnly: true,
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return samples[0], nil
}

// Ping checks the storage.
func (svc *SampleService) Ping(ctx context.Context) error {
	if svc.pinger == nil {
		return nil
	}
	return svc.pinger.Ping(ctx)
}
