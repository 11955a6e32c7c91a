package models

import "encoding/json"

// OriginResponse is the real-time origin metrics payload of a single service.
type OriginResponse struct {
	AggregateDelay uint64               `json:"aggregate_delay"` // Lag of entry timestamps behind wall clock, in seconds
	Data           []OriginDataInSecond `json:"data"`            // One entry per second of traffic
	Timestamp      uint64               `json:"timestamp"`       // Value to use as the start of the next request
}

// GetTimestamp returns the timestamp the next consecutive request should start from.
func (r OriginResponse) GetTimestamp() uint64 {
	return r.Timestamp
}

// UnmarshalJSON accepts both the snake_case and the PascalCase envelope keys.
func (r *OriginResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		envelope
		Data []OriginDataInSecond `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = OriginResponse{
		AggregateDelay: aux.aggregateDelay(),
		Data:           aux.Data,
		Timestamp:      aux.Timestamp,
	}
	return nil
}

// OriginDataInSecond holds the measurements of every origin of a service for one second.
type OriginDataInSecond struct {
	Recorded   uint64                            `json:"recorded"`             // Unix time the entry was generated at
	Aggregated map[string]OriginStats            `json:"aggregated"`           // Origin name -> measurements across all POPs
	Datacenter map[string]map[string]OriginStats `json:"datacenter,omitempty"` // POP name -> origin name -> measurements
}

// OriginStats mirrors the origin inspector measurement model.
type OriginStats struct {
	RespBodyBytes   uint64 `json:"resp_body_bytes,omitempty"`
	RespHeaderBytes uint64 `json:"resp_header_bytes,omitempty"`
	Responses       uint64 `json:"responses,omitempty"`
	Status1xx       uint64 `json:"status_1xx,omitempty"`
	Status200       uint64 `json:"status_200,omitempty"`
	Status204       uint64 `json:"status_204,omitempty"`
	Status206       uint64 `json:"status_206,omitempty"`
	Status2xx       uint64 `json:"status_2xx,omitempty"`
	Status301       uint64 `json:"status_301,omitempty"`
	Status302       uint64 `json:"status_302,omitempty"`
	Status304       uint64 `json:"status_304,omitempty"`
	Status3xx       uint64 `json:"status_3xx,omitempty"`
	Status400       uint64 `json:"status_400,omitempty"`
	Status401       uint64 `json:"status_401,omitempty"`
	Status403       uint64 `json:"status_403,omitempty"`
	Status404       uint64 `json:"status_404,omitempty"`
	Status416       uint64 `json:"status_416,omitempty"`
	Status429       uint64 `json:"status_429,omitempty"`
	Status4xx       uint64 `json:"status_4xx,omitempty"`
	Status500       uint64 `json:"status_500,omitempty"`
	Status501       uint64 `json:"status_501,omitempty"`
	Status502       uint64 `json:"status_502,omitempty"`
	Status503       uint64 `json:"status_503,omitempty"`
	Status504       uint64 `json:"status_504,omitempty"`
	Status505       uint64 `json:"status_505,omitempty"`
	Status5xx       uint64 `json:"status_5xx,omitempty"`
}
