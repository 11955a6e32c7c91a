package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	httpClient "github.com/sbilibin2017/gophrt/internal/configs/transport/http"
)

// APIKeyHeader carries the credential on every request.
const APIKeyHeader = "Fastly-Key"

// Response is implemented by every real-time payload. The returned value is
// where the next consecutive request resumes.
type Response interface {
	GetTimestamp() uint64
}

// Client issues authenticated GET requests against one real-time endpoint
// root and decodes the payloads into T.
//
// Client keeps a cursor for GetStatsConsecutive without synchronization: a
// client must be driven by a single polling sequence at a time. Use one
// client per stream when polling concurrently. The remaining methods do not
// touch the cursor and may be called from several goroutines.
type Client[T Response] struct {
	apiKey    string
	serviceID string
	endpoint  string
	client    *resty.Client
	timestamp uint64
}

// New creates a client for endpoint and serviceID. Transport options that
// fail are reported as *ConfigurationError. No request is made.
func New[T Response](
	apiKey string,
	serviceID string,
	endpoint string,
	opts ...httpClient.Opt,
) (*Client[T], error) {
	endpoint = strings.TrimRight(endpoint, "/")

	client, err := httpClient.New(endpoint, opts...)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	return &Client[T]{
		apiKey:    apiKey,
		serviceID: serviceID,
		endpoint:  endpoint,
		client:    client,
	}, nil
}

// ServiceID returns the service the client is bound to.
func (c *Client[T]) ServiceID() string {
	return c.serviceID
}

// Endpoint returns the endpoint root of the client.
func (c *Client[T]) Endpoint() string {
	return c.endpoint
}

// Timestamp returns the cursor used by the next GetStatsConsecutive call.
func (c *Client[T]) Timestamp() uint64 {
	return c.timestamp
}

// ResetStatsConsecutive sets the cursor back to 0 so the next
// GetStatsConsecutive call behaves like the first one.
func (c *Client[T]) ResetStatsConsecutive() {
	c.timestamp = 0
}

// GetStatsConsecutive fetches everything newer than the previous call and
// advances the cursor to the timestamp of the response. The first call
// returns the latest second. On error the cursor is left untouched.
func (c *Client[T]) GetStatsConsecutive(ctx context.Context) (*T, error) {
	out, err := c.GetStatsFrom(ctx, c.timestamp)
	if err != nil {
		return nil, err
	}
	c.timestamp = (*out).GetTimestamp()
	return out, nil
}

// GetStatsFrom fetches the entries from start up to the latest available second.
func (c *Client[T]) GetStatsFrom(ctx context.Context, start uint64) (*T, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/ts/%d", url.PathEscape(c.serviceID), start))
}

// GetStats120s fetches the 120 seconds preceding the latest available timestamp.
func (c *Client[T]) GetStats120s(ctx context.Context) (*T, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/ts/h", url.PathEscape(c.serviceID)))
}

// GetStatsMax fetches at most maxEntries of the most recent 120 seconds.
// The provider may return fewer entries than requested.
func (c *Client[T]) GetStatsMax(ctx context.Context, maxEntries uint64) (*T, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/ts/h/limit/%d", url.PathEscape(c.serviceID), maxEntries))
}

func (c *Client[T]) fetch(ctx context.Context, path string) (*T, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(APIKeyHeader, c.apiKey).
		SetHeader("Accept", "application/json").
		Get(path)
	if err != nil {
		return nil, &RequestError{URL: c.endpoint + path, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &RequestError{
			URL:        c.endpoint + path,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}

	var out T
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &DecodeError{URL: c.endpoint + path, Body: resp.Body(), Err: err}
	}

	return &out, nil
}
