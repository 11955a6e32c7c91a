package memory

import (
	"context"
	"sync"

	"github.com/sbilibin2017/gophrt/internal/models"
)

// SampleRepository keeps samples in memory keyed by their identity.
type SampleRepository struct {
	mu   sync.RWMutex
	data map[models.SampleID]models.Sample
}

// NewSampleRepository creates a new SampleRepository.
func NewSampleRepository() *SampleRepository {
	return &SampleRepository{data: make(map[models.SampleID]models.Sample)}
}

// Save adds or replaces samples.
func (r *SampleRepository) Save(
	ctx context.Context,
	samples []*models.Sample,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.data[s.ID()] = *s
	}
	return nil
}

// List returns samples matching filter, newest first.
func (r *SampleRepository) List(
	ctx context.Context,
	filter models.SampleFilter,
) ([]*models.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples := make([]*models.Sample, 0)
	for _, s := range r.data {
		sample := s // copy value to avoid pointer aliasing
		if filter.Match(&sample) {
			samples = append(samples, &sample)
		}
	}

	models.SortSamples(samples)
	if filter.Limit > 0 && len(samples) > filter.Limit {
		samples = samples[:filter.Limit]
	}
	return samples, nil
}

// DeleteBefore drops samples recorded before the given second.
func (r *SampleRepository) DeleteBefore(
	ctx context.Context,
	recorded uint64,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.data {
		if id.Recorded < recorded {
			delete(r.data, id)
		}
	}
	return nil
}
