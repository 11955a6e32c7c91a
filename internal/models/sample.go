package models

import (
	"encoding/json"
	"sort"
)

// Resource kinds served by the real-time API.
const (
	KindService = "service" // Per-service aggregate metrics
	KindOrigin  = "origin"  // Per-origin metrics
)

// SampleID identifies one stored sample.
type SampleID struct {
	Kind      string `json:"kind"`       // "service" or "origin"
	ServiceID string `json:"service_id"` // Service the sample belongs to
	Recorded  uint64 `json:"recorded"`   // Unix second of the entry
	POP       string `json:"pop"`        // POP name, empty for the all-POP aggregate
	Origin    string `json:"origin"`     // Origin name, empty for service samples
}

// Sample is one second of measurements for one scope, flattened for storage.
type Sample struct {
	Kind          string `json:"kind" db:"kind"`
	ServiceID     string `json:"service_id" db:"service_id"`
	Recorded      uint64 `json:"recorded" db:"recorded"`
	POP           string `json:"pop" db:"pop"`
	Origin        string `json:"origin" db:"origin"`
	Requests      uint64 `json:"requests" db:"requests"`               // Requests (service) or responses (origin)
	RespBodyBytes uint64 `json:"resp_body_bytes" db:"resp_body_bytes"` // Response body bytes delivered
	Status2xx     uint64 `json:"status_2xx" db:"status_2xx"`
	Status3xx     uint64 `json:"status_3xx" db:"status_3xx"`
	Status4xx     uint64 `json:"status_4xx" db:"status_4xx"`
	Status5xx     uint64 `json:"status_5xx" db:"status_5xx"`
	Payload       string `json:"payload" db:"payload"` // Full stats record as JSON
}

// ID returns the identity of the sample.
func (s *Sample) ID() SampleID {
	return SampleID{
		Kind:      s.Kind,
		ServiceID: s.ServiceID,
		Recorded:  s.Recorded,
		POP:       s.POP,
		Origin:    s.Origin,
	}
}

// SampleFilter narrows a sample listing. Zero fields match everything.
type SampleFilter struct {
	Kind          string
	ServiceID     string
	POP           string
	Origin        string
	AggregateOnly bool   // Only samples covering all POPs
	Since         uint64 // Inclusive lower bound on Recorded
	Limit         int    // 0 means no limit
}

// Match reports whether s passes the filter, ignoring Limit.
func (f SampleFilter) Match(s *Sample) bool {
	if f.Kind != "" && s.Kind != f.Kind {
		return false
	}
	if f.ServiceID != "" && s.ServiceID != f.ServiceID {
		return false
	}
	if f.POP != "" && s.POP != f.POP {
		return false
	}
	if f.AggregateOnly && s.POP != "" {
		return false
	}
	if f.Origin != "" && s.Origin != f.Origin {
		return false
	}
	return s.Recorded >= f.Since
}

// SortSamples orders samples newest first, then by POP and origin.
func SortSamples(samples []*Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Recorded != b.Recorded {
			return a.Recorded > b.Recorded
		}
		if a.POP != b.POP {
			return a.POP < b.POP
		}
		return a.Origin < b.Origin
	})
}

// FlattenService turns a service response into one sample for the aggregate
// and one per POP of every entry.
func FlattenService(serviceID string, resp *ServiceResponse) ([]*Sample, error) {
	if resp == nil {
		return nil, nil
	}
	var out []*Sample
	for _, entry := range resp.Data {
		s, err := newServiceSample(serviceID, entry.Recorded, "", entry.Aggregated)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		for _, pop := range sortedKeys(entry.Datacenter) {
			s, err := newServiceSample(serviceID, entry.Recorded, pop, entry.Datacenter[pop])
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// FlattenOrigin turns an origin response into one sample per origin for the
// aggregate and per POP of every entry.
func FlattenOrigin(serviceID string, resp *OriginResponse) ([]*Sample, error) {
	if resp == nil {
		return nil, nil
	}
	var out []*Sample
	for _, entry := range resp.Data {
		for _, origin := range sortedKeys(entry.Aggregated) {
			s, err := newOriginSample(serviceID, entry.Recorded, "", origin, entry.Aggregated[origin])
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		for _, pop := range sortedKeys(entry.Datacenter) {
			origins := entry.Datacenter[pop]
			for _, origin := range sortedKeys(origins) {
				s, err := newOriginSample(serviceID, entry.Recorded, pop, origin, origins[origin])
				if err != nil {
					return nil, err
				}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func newServiceSample(serviceID string, recorded uint64, pop string, stats ServiceStats) (*Sample, error) {
	payload, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return &Sample{
		Kind:          KindService,
		ServiceID:     serviceID,
		Recorded:      recorded,
		POP:           pop,
		Requests:      stats.Requests,
		RespBodyBytes: stats.RespBodyBytes,
		Status2xx:     stats.Status2xx,
		Status3xx:     stats.Status3xx,
		Status4xx:     stats.Status4xx,
		Status5xx:     stats.Status5xx,
		Payload:       string(payload),
	}, nil
}

func newOriginSample(serviceID string, recorded uint64, pop, origin string, stats OriginStats) (*Sample, error) {
	payload, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return &Sample{
		Kind:          KindOrigin,
		ServiceID:     serviceID,
		Recorded:      recorded,
		POP:           pop,
		Origin:        origin,
		Requests:      stats.Responses,
		RespBodyBytes: stats.RespBodyBytes,
		Status2xx:     stats.Status2xx,
		Status3xx:     stats.Status3xx,
		Status4xx:     stats.Status4xx,
		Status5xx:     stats.Status5xx,
		Payload:       string(payload),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
