// Package sos dispatches distress alerts: geocode the caller's location,
// record the request, and notify the recipient.
package sos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/geo"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
)

// Mailer emails the alert to its recipient. Implemented by notify.Dispatcher.
type Mailer interface {
	SendSOS(ctx context.Context, recipient, address, userName, userEmail string) error
}

// Service coordinates SOS dispatch and history.
type Service struct {
	sos      repo.SOSRepo
	users    repo.UserRepo
	geocoder geo.Geocoder
	mailer   Mailer
}

// NewService creates a new SOS service
func NewService(sosRepo repo.SOSRepo, users repo.UserRepo, geocoder geo.Geocoder, mailer Mailer) *Service {
	return &Service{sos: sosRepo, users: users, geocoder: geocoder, mailer: mailer}
}

// SendInput carries one dispatch request.
type SendInput struct {
	UserID         uuid.UUID
	Latitude       float64
	Longitude      float64
	RecipientEmail string
	Notes          string
	UserAgent      *string
	IPAddress      *string
	DeviceType     *string
}

// Send resolves the coordinates to an address, records the request, and
// emails the recipient. The record is committed before dispatch so an alert
// is never lost to a mail failure; a failed dispatch still fails the call.
func (s *Service) Send(ctx context.Context, in SendInput) (model.SOSRequest, error) {
	if in.RecipientEmail == "" {
		return model.SOSRequest{}, apperr.BadRequest("Latitude, longitude and recipient email are required")
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.SOSRequest{}, apperr.Unauthorized("User not found or session expired")
		}
		return model.SOSRequest{}, fmt.Errorf("lookup user: %w", err)
	}

	address, err := s.geocoder.ReverseGeocode(ctx, in.Latitude, in.Longitude)
	if err != nil {
		return model.SOSRequest{}, fmt.Errorf("resolve location: %w", err)
	}

	record, err := s.sos.Create(ctx, model.SOSRequest{
		UserID:         user.ID,
		UserName:       user.DisplayName(),
		UserEmail:      user.Email,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		Address:        address,
		RecipientEmail: in.RecipientEmail,
		Notes:          in.Notes,
		UserAgent:      in.UserAgent,
		IPAddress:      in.IPAddress,
		DeviceType:     in.DeviceType,
	})
	if err != nil {
		return model.SOSRequest{}, fmt.Errorf("record sos request: %w", err)
	}

	if err := s.mailer.SendSOS(ctx, in.RecipientEmail, address, user.DisplayName(), user.Email); err != nil {
		return model.SOSRequest{}, fmt.Errorf("dispatch sos email: %w", err)
	}
	return record, nil
}

// Get returns one request; non-admins may only see their own.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, requesterRole string) (model.SOSRequest, error) {
	record, err := s.sos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.SOSRequest{}, apperr.NotFound("SOS request not found")
		}
		return model.SOSRequest{}, fmt.Errorf("lookup sos request: %w", err)
	}
	if requesterRole != model.RoleAdmin && record.UserID != requesterID {
		return model.SOSRequest{}, apperr.Forbidden("Not authorized to access this resource")
	}
	return record, nil
}

// ListAll returns every request (admin).
func (s *Service) ListAll(ctx context.Context) ([]model.SOSRequest, error) {
	return s.sos.ListAll(ctx)
}

// ListForUser returns the caller's own requests.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.SOSRequest, error) {
	return s.sos.ListForUser(ctx, userID)
}

// UpdateStatus transitions a request to received/resolved/cancelled.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, adminID uuid.UUID, notes string) (model.SOSRequest, error) {
	switch status {
	case model.SOSStatusReceived, model.SOSStatusResolved, model.SOSStatusCancelled:
	default:
		return model.SOSRequest{}, apperr.BadRequest("Status must be received, resolved, or cancelled")
	}
	var resolvedBy *uuid.UUID
	if status == model.SOSStatusResolved {
		resolvedBy = &adminID
	}
	record, err := s.sos.UpdateStatus(ctx, id, status, resolvedBy, notes)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.SOSRequest{}, apperr.NotFound("SOS request not found")
		}
		return model.SOSRequest{}, fmt.Errorf("update sos status: %w", err)
	}
	return record, nil
}

// Statistics returns aggregate counts by status (admin).
func (s *Service) Statistics(ctx context.Context) (model.SOSStatistics, error) {
	return s.sos.Statistics(ctx)
}
