package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/sbilibin2017/gophrt/internal/models"
)

// SampleRepository stores samples as JSON lines appended to a file.
// The last line written for a sample identity wins.
type SampleRepository struct {
	path string
	mu   sync.RWMutex
}

// NewSampleRepository creates a repository backed by the file at path.
func NewSampleRepository(path string) *SampleRepository {
	return &SampleRepository{path: path}
}

// Save appends samples to the file.
func (r *SampleRepository) Save(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := writeSamples(file, samples); err != nil {
		return err
	}

	return file.Sync()
}

// List returns samples matching filter, newest first.
func (r *SampleRepository) List(ctx context.Context, filter models.SampleFilter) ([]*models.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}

	samples := make([]*models.Sample, 0)
	for _, s := range all {
		if filter.Match(s) {
			samples = append(samples, s)
		}
	}

	models.SortSamples(samples)
	if filter.Limit > 0 && len(samples) > filter.Limit {
		samples = samples[:filter.Limit]
	}
	return samples, nil
}

// DeleteBefore rewrites the file without samples recorded before the given second.
func (r *SampleRepository) DeleteBefore(ctx context.Context, recorded uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return err
	}

	kept := make([]*models.Sample, 0, len(all))
	for _, s := range all {
		if s.Recorded >= recorded {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(all) {
		return nil
	}
	models.SortSamples(kept)

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeSamples(tmp, kept); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), r.path)
}

// load reads every unique sample of the file.
func (r *SampleRepository) load() (map[models.SampleID]*models.Sample, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // nothing saved yet
		}
		return nil, err
	}
	defer file.Close()

	samples := make(map[models.SampleID]*models.Sample)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		var s models.Sample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, err
		}
		sCopy := s
		samples[s.ID()] = &sCopy
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

func writeSamples(file *os.File, samples []*models.Sample) error {
	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, s := range samples {
		if err := encoder.Encode(s); err != nil {
			return err
		}
	}
	return writer.Flush()
}
