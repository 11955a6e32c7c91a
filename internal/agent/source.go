package agent

import (
	"context"

	"github.com/sbilibin2017/gophrt/internal/models"
)

// ServicePoller is the part of the service client the agent drives.
type ServicePoller interface {
	ServiceID() string
	GetStatsConsecutive(ctx context.Context) (*models.ServiceResponse, error)
}

// OriginPoller is the part of the origin client the agent drives.
type OriginPoller interface {
	ServiceID() string
	GetStatsConsecutive(ctx context.Context) (*models.OriginResponse, error)
}

type serviceSource struct {
	client ServicePoller
}

// NewServiceSource adapts a service client to a Source.
func NewServiceSource(client ServicePoller) Source {
	return &serviceSource{client: client}
}

func (s *serviceSource) Kind() string {
	return models.KindService
}

func (s *serviceSource) Poll(ctx context.Context) (*Result, error) {
	resp, err := s.client.GetStatsConsecutive(ctx)
	if err != nil {
		return nil, err
	}

	samples, err := models.FlattenService(s.client.ServiceID(), resp)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:           models.KindService,
		Timestamp:      resp.Timestamp,
		AggregateDelay: resp.AggregateDelay,
		Samples:        samples,
	}, nil
}

type originSource struct {
	client OriginPoller
}

// NewOriginSource adapts an origin client to a Source.
func NewOriginSource(client OriginPoller) Source {
	return &originSource{client: client}
}

func (s *originSource) Kind() string {
	return models.KindOrigin
}

func (s *originSource) Poll(ctx context.Context) (*Result, error) {
	resp, err := s.client.GetStatsConsecutive(ctx)
	if err != nil {
		return nil, err
	}

	samples, err := models.FlattenOrigin(s.client.ServiceID(), resp)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:           models.KindOrigin,
		Timestamp:      resp.Timestamp,
		AggregateDelay: resp.AggregateDelay,
		Samples:        samples,
	}, nil
}
