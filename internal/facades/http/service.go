package http

import (
	"context"

	"github.com/sbilibin2017/gophrt/internal/models"

	httpClient "github.com/sbilibin2017/gophrt/internal/configs/transport/http"
)

// ServiceEndpoint is the endpoint root of the real-time analytics of a service.
const ServiceEndpoint = "https://rt.fastly.com/v1/channel"

// ServiceClient reads the real-time analytics of a service.
type ServiceClient struct {
	cli *Client[models.ServiceResponse]
}

// NewServiceClient creates a ServiceClient for serviceID.
func NewServiceClient(apiKey, serviceID string, opts ...httpClient.Opt) (*ServiceClient, error) {
	return NewServiceClientWithEndpoint(ServiceEndpoint, apiKey, serviceID, opts...)
}

// NewServiceClientWithEndpoint creates a ServiceClient against a custom endpoint root.
func NewServiceClientWithEndpoint(endpoint, apiKey, serviceID string, opts ...httpClient.Opt) (*ServiceClient, error) {
	cli, err := New[models.ServiceResponse](apiKey, serviceID, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &ServiceClient{cli: cli}, nil
}

// ServiceID returns the service the client is bound to.
func (c *ServiceClient) ServiceID() string {
	return c.cli.ServiceID()
}

// Timestamp returns the cursor of the next GetStatsConsecutive call.
func (c *ServiceClient) Timestamp() uint64 {
	return c.cli.Timestamp()
}

// ResetStatsConsecutive resets the cursor; the next GetStatsConsecutive call is a first call again.
func (c *ServiceClient) ResetStatsConsecutive() {
	c.cli.ResetStatsConsecutive()
}

// GetStatsConsecutive returns the latest second on the first call and
// everything since the previous call afterwards.
func (c *ServiceClient) GetStatsConsecutive(ctx context.Context) (*models.ServiceResponse, error) {
	return c.cli.GetStatsConsecutive(ctx)
}

// GetStatsFrom returns the entries from start to the latest available second.
func (c *ServiceClient) GetStatsFrom(ctx context.Context, start uint64) (*models.ServiceResponse, error) {
	return c.cli.GetStatsFrom(ctx, start)
}

// GetStats120s returns the 120 seconds preceding the latest available timestamp.
func (c *ServiceClient) GetStats120s(ctx context.Context) (*models.ServiceResponse, error) {
	return c.cli.GetStats120s(ctx)
}

// GetStatsMax returns at most maxEntries of the 120 seconds preceding the latest available timestamp.
func (c *ServiceClient) GetStatsMax(ctx context.Context, maxEntries uint64) (*models.ServiceResponse, error) {
	return c.cli.GetStatsMax(ctx, maxEntries)
}
