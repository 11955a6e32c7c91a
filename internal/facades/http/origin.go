package http

import (
	"context"

	"github.com/sbilibin2017/gophrt/internal/models"

	httpClient "github.com/sbilibin2017/gophrt/internal/configs/transport/http"
)

// OriginEndpoint is the endpoint root of the real-time metrics of the origins of a service.
const OriginEndpoint = "https://rt.fastly.com/v1/origins"

// OriginClient reads the real-time metrics of the origins of a service.
type OriginClient struct {
	cli *Client[models.OriginResponse]
}

// NewOriginClient creates an OriginClient for serviceID.
func NewOriginClient(apiKey, serviceID string, opts ...httpClient.Opt) (*OriginClient, error) {
	return NewOriginClientWithEndpoint(OriginEndpoint, apiKey, serviceID, opts...)
}

// NewOriginClientWithEndpoint creates an OriginClient against a custom endpoint root.
func NewOriginClientWithEndpoint(endpoint, apiKey, serviceID string, opts ...httpClient.Opt) (*OriginClient, error) {
	cli, err := New[models.OriginResponse](apiKey, serviceID, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &OriginClient{cli: cli}, nil
}

// ServiceID returns the service the client is bound to.
func (c *OriginClient) ServiceID() string {
	return c.cli.ServiceID()
}

// Timestamp returns the cursor of the next GetStatsConsecutive call.
func (c *OriginClient) Timestamp() uint64 {
	return c.cli.Timestamp()
}

// ResetStatsConsecutive resets the cursor; the next GetStatsConsecutive call is a first call again.
func (c *OriginClient) ResetStatsConsecutive() {
	c.cli.ResetStatsConsecutive()
}

// GetStatsConsecutive returns the latest second on the first call and
// everything since the previous call afterwards.
func (c *OriginClient) GetStatsConsecutive(ctx context.Context) (*models.OriginResponse, error) {
	return c.cli.GetStatsConsecutive(ctx)
}

// GetStatsFrom returns the entries from start to the latest available second.
func (c *OriginClient) GetStatsFrom(ctx context.Context, start uint64) (*models.OriginResponse, error) {
	return c.cli.GetStatsFrom(ctx, start)
}

// GetStats120s returns the 120 seconds preceding the latest available timestamp.
func (c *OriginClient) GetStats120s(ctx context.Context) (*models.OriginResponse, error) {
	return c.cli.GetStats120s(ctx)
}

// GetStatsMax returns at most maxEntries of the 120 seconds preceding the latest available timestamp.
func (c *OriginClient) GetStatsMax(ctx context.Context, maxEntries uint64) (*models.OriginResponse, error) {
	return c.cli.GetStatsMax(ctx, maxEntries)
}
