// Package customer implements the customer role: booking with a client-side
// charge estimate, the my-parcels projection, and the realtime room
// identity.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courierflow/parcel"
)

var (
	// ErrMissingRecipient signals incomplete recipient details.
	ErrMissingRecipient = errors.New("customer: recipient name, phone and address are required")
	// ErrInvalidWeight signals a non-positive parcel weight.
	ErrInvalidWeight = errors.New("customer: weight must be positive")
	// ErrInvalidType signals an unknown parcel type.
	ErrInvalidType = errors.New("customer: unknown parcel type")
)

// API is the slice of the backend transport the customer role uses.
type API interface {
	BookParcel(ctx context.Context, req parcel.BookingRequest) (parcel.Parcel, error)
	MyParcels(ctx context.Context) ([]parcel.Parcel, error)
}

// Service issues booking commands and keeps the customer's parcel
// projection.
type Service struct {
	api      API
	registry *parcel.Registry
}

// NewService builds a Service over the transport and the bookings registry.
func NewService(api API, registry *parcel.Registry) *Service {
	return &Service{api: api, registry: registry}
}

// Registry exposes the bookings projection for rendering.
func (s *Service) Registry() *parcel.Registry { return s.registry }

// Validate checks a booking request without dispatching it, so forms can
// reject input inline.
func Validate(req parcel.BookingRequest) error {
	if strings.TrimSpace(req.RecipientName) == "" ||
		strings.TrimSpace(req.RecipientPhone) == "" ||
		strings.TrimSpace(req.RecipientAddress) == "" {
		return ErrMissingRecipient
	}
	if req.WeightKg <= 0 {
		return ErrInvalidWeight
	}
	if !req.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Book validates and submits a booking. The returned parcel carries the
// backend's binding delivery charge; the estimate shown beforehand via
// parcel.EstimateCharge is advisory only. The fresh booking is added to the
// local projection.
func (s *Service) Book(ctx context.Context, req parcel.BookingRequest) (parcel.Parcel, error) {
	if err := Validate(req); err != nil {
		return parcel.Parcel{}, err
	}

	booked, err := s.api.BookParcel(ctx, req)
	if err != nil {
		return parcel.Parcel{}, fmt.Errorf("customer: book parcel: %w", err)
	}

	existing := s.registry.Snapshot()
	s.registry.Seed(append(existing, booked))
	return booked, nil
}

// LoadParcels seeds the registry with the customer's booked parcels.
func (s *Service) LoadParcels(ctx context.Context) error {
	parcels, err := s.api.MyParcels(ctx)
	if err != nil {
		return fmt.Errorf("customer: load parcels: %w", err)
	}
	s.registry.Seed(parcels)
	return nil
}

// Room returns the realtime room identifier scoping which events this
// customer receives.
func Room(userID string) string {
	return "customer_" + userID
}
