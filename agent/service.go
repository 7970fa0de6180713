// Package agent implements the delivery agent's side of the client: the
// assigned-jobs projection, status-change commands, and the live-location
// publisher.
package agent

import (
	"context"
	"errors"
	"fmt"

	"courierflow/parcel"
)

// ErrUnknownStatus rejects a status value outside the delivery progression
// before any request is issued.
var ErrUnknownStatus = errors.New("agent: unknown status")

// API is the slice of the backend transport the agent role uses.
type API interface {
	MyJobs(ctx context.Context) ([]parcel.Parcel, error)
	UpdateStatus(ctx context.Context, parcelID string, status parcel.Status) error
	UpdateLocation(ctx context.Context, parcelID string, lat, lng float64) error
}

// Service issues the agent's commands and keeps the local jobs projection in
// step with confirmed mutations.
type Service struct {
	api      API
	registry *parcel.Registry
}

// NewService builds a Service over the transport and the jobs registry.
func NewService(api API, registry *parcel.Registry) *Service {
	return &Service{api: api, registry: registry}
}

// Registry exposes the jobs projection for rendering.
func (s *Service) Registry() *parcel.Registry { return s.registry }

// LoadJobs seeds the registry with the parcels assigned to this agent.
func (s *Service) LoadJobs(ctx context.Context) error {
	jobs, err := s.api.MyJobs(ctx)
	if err != nil {
		return fmt.Errorf("agent: load jobs: %w", err)
	}
	s.registry.Seed(jobs)
	return nil
}

// UpdateStatus issues the status-change command and patches the local
// projection on success. The client accepts any known status value; it does
// not enforce forward-only transitions.
func (s *Service) UpdateStatus(ctx context.Context, parcelID string, status parcel.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if err := s.api.UpdateStatus(ctx, parcelID, status); err != nil {
		return fmt.Errorf("agent: update status: %w", err)
	}
	s.registry.ApplyStatus(parcelID, status)
	return nil
}
