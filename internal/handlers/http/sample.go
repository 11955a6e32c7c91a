package http

//go:generate mockgen -source=sample.go -destination=sample_mock.go -package=http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gophrt/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 10_000
)

// Lister lists stored samples.
type Lister interface {
	List(ctx context.Context, filter models.SampleFilter) ([]*models.Sample, error)
}

// LatestGetter returns the newest aggregate sample of a kind.
type LatestGetter interface {
	Latest(ctx context.Context, kind string, serviceID string) (*models.Sample, error)
}

// Pinger checks the storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SampleResponse is the JSON view of a stored sample.
type SampleResponse struct {
	Kind          string          `json:"kind"`
	ServiceID     string          `json:"service_id"`
	Recorded      uint64          `json:"recorded"`
	POP           string          `json:"pop,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	Requests      uint64          `json:"requests"`
	RespBodyBytes uint64          `json:"resp_body_bytes"`
	Status2xx     uint64          `json:"status_2xx"`
	Status3xx     uint64          `json:"status_3xx"`
	Status4xx     uint64          `json:"status_4xx"`
	Status5xx     uint64          `json:"status_5xx"`
	Stats         json.RawMessage `json:"stats,omitempty"`
}

func newSampleResponse(s *models.Sample) SampleResponse {
	resp := SampleResponse{
		Kind:          s.Kind,
		ServiceID:     s.ServiceID,
		Recorded:      s.Recorded,
		POP:           s.POP,
		Origin:        s.Origin,
		Requests:      s.Requests,
		RespBodyBytes: s.RespBodyBytes,
		Status2xx:     s.Status2xx,
		Status3xx:     s.Status3xx,
		Status4xx:     s.Status4xx,
		Status5xx:     s.Status5xx,
	}
	if json.Valid([]byte(s.Payload)) {
		resp.Stats = json.RawMessage(s.Payload)
	}
	return resp
}

// NewSampleListHandler lists samples of one kind for the configured service.
//
// @Summary List samples
// @Description Returns per-second samples newest first
// @Tags samples
// @Produce json
// @Param kind path string true "Sample kind (service or origin)"
// @Param pop query string false "POP name"
// @Param origin query string false "Origin name"
// @Param since query int false "Oldest recorded second to include"
// @Param limit query int false "Maximum number of samples"
// @Success 200 {array} SampleResponse
// @Failure 400 "Bad Request"
// @Failure 404 "Not Found"
// @Failure 500 "Internal Server Error"
// @Router /samples/{kind} [get]
func NewSampleListHandler(lister Lister, serviceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		if !validKind(kind) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		query := r.URL.Query()
		filter := models.SampleFilter{
			Kind:      kind,
			ServiceID: serviceID,
			POP:       query.Get("pop"),
			Origin:    query.Get("origin"),
			Limit:     defaultListLimit,
		}

		if v := query.Get("since"); v != "" {
			since, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			filter.Since = since
		}

		if v := query.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit <= 0 {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			filter.Limit = min(limit, maxListLimit)
		}

		samples, err := lister.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]SampleResponse, 0, len(samples))
		for _, s := range samples {
			resp = append(resp, newSampleResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// NewSampleLatestHandler returns the newest all-POP sample of a kind.
//
// @Summary Latest sample
// @Tags samples
// @Produce json
// @Param kind path string true "Sample kind (service or origin)"
// @Success 200 {object} SampleResponse
// @Failure 404 "Not Found"
// @Failure 500 "Internal Server Error"
// @Router /samples/{kind}/latest [get]
func NewSampleLatestHandler(getter LatestGetter, serviceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "kind")
		if !validKind(kind) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		sample, err := getter.Latest(r.Context(), kind, serviceID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if sample == nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, newSampleResponse(sample))
	}
}

// NewPingHandler reports whether the storage is reachable.
func NewPingHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func validKind(kind string) bool {
	return kind == models.KindService || kind == models.KindOrigin
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
