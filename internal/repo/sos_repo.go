package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/model"
)

// SOSRepo persists distress-alert records. The sos_requests table is the
// single source of truth for SOS history.
type SOSRepo interface {
	Create(ctx context.Context, s model.SOSRequest) (model.SOSRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.SOSRequest, error)
	ListAll(ctx context.Context) ([]model.SOSRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.SOSRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolvedBy *uuid.UUID, notes string) (model.SOSRequest, error)
	Statistics(ctx context.Context) (model.SOSStatistics, error)
}

type sosRepo struct {
	db *sql.DB
}

// NewSOSRepo creates a new SOSRepo instance
func NewSOSRepo(db *sql.DB) SOSRepo {
	return &sosRepo{db: db}
}

const sosColumns = `id, user_id, user_name, user_email, latitude, longitude, address, recipient_email,
	status, notes, user_agent, ip_address, device_type, response_time, resolved_by, resolution_notes,
	created_at, updated_at`

func scanSOS(scan func(dest ...any) error) (model.SOSRequest, error) {
	var s model.SOSRequest
	var idStr, userIDStr string
	var resolvedByStr sql.NullString
	err := scan(
		&idStr, &userIDStr, &s.UserName, &s.UserEmail, &s.Latitude, &s.Longitude,
		&s.Address, &s.RecipientEmail, &s.Status, &s.Notes, &s.UserAgent, &s.IPAddress,
		&s.DeviceType, &s.ResponseTime, &resolvedByStr, &s.ResolutionNotes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.SOSRequest{}, err
	}
	s.ID, _ = uuid.Parse(idStr)
	s.UserID, _ = uuid.Parse(userIDStr)
	if resolvedByStr.Valid && resolvedByStr.String != "" {
		u, _ := uuid.Parse(resolvedByStr.String)
		s.ResolvedBy = &u
	}
	return s, nil
}

func (r *sosRepo) Create(ctx context.Context, s model.SOSRequest) (model.SOSRequest, error) {
	if s.Status == "" {
		s.Status = model.SOSStatusSent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sos_requests (user_id, user_name, user_email, latitude, longitude, address,
			recipient_email, status, notes, user_agent, ip_address, device_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+sosColumns+`
	`, s.UserID, s.UserName, s.UserEmail, s.Latitude, s.Longitude, s.Address,
		s.RecipientEmail, s.Status, s.Notes, s.UserAgent, s.IPAddress, s.DeviceType)
	out, err := scanSOS(row.Scan)
	if err != nil {
		return model.SOSRequest{}, fmt.Errorf("insert sos request: %w", err)
	}
	return out, nil
}

func (r *sosRepo) GetByID(ctx context.Context, id uuid.UUID) (model.SOSRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sosColumns+` FROM sos_requests WHERE id = $1
	`, id)
	s, err := scanSOS(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SOSRequest{}, ErrNotFound
		}
		return model.SOSRequest{}, fmt.Errorf("query sos request: %w", err)
	}
	return s, nil
}

func (r *sosRepo) list(ctx context.Context, query string, args ...any) ([]model.SOSRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sos requests: %w", err)
	}
	defer rows.Close()

	var out []model.SOSRequest
	for rows.Next() {
		s, err := scanSOS(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan sos request: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sosRepo) ListAll(ctx context.Context) ([]model.SOSRequest, error) {
	return r.list(ctx, `SELECT `+sosColumns+` FROM sos_requests ORDER BY created_at DESC`)
}

func (r *sosRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.SOSRequest, error) {
	return r.list(ctx, `
		SELECT `+sosColumns+` FROM sos_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (r *sosRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolvedBy *uuid.UUID, notes string) (model.SOSRequest, error) {
	var responseTime *time.Time
	if status == model.SOSStatusReceived {
		now := time.Now()
		responseTime = &now
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE sos_requests
		SET status = $2,
		    response_time = COALESCE($3, response_time),
		    resolved_by = CASE WHEN $2 = 'resolved' THEN $4 ELSE resolved_by END,
		    resolution_notes = CASE WHEN $2 = 'resolved' THEN $5 ELSE resolution_notes END,
		    notes = CASE WHEN $2 = 'cancelled' AND $5 <> '' THEN $5 ELSE notes END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+sosColumns+`
	`, id, status, responseTime, resolvedBy, notes)
	s, err := scanSOS(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SOSRequest{}, ErrNotFound
		}
		return model.SOSRequest{}, fmt.Errorf("update sos status: %w", err)
	}
	return s, nil
}

func (r *sosRepo) Statistics(ctx context.Context) (model.SOSStatistics, error) {
	var st model.SOSStatistics
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'sent'),
		       COUNT(*) FILTER (WHERE status = 'received'),
		       COUNT(*) FILTER (WHERE status = 'resolved'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM sos_requests
	`).Scan(&st.Total, &st.Sent, &st.Received, &st.Resolved, &st.Cancelled)
	if err != nil {
		return model.SOSStatistics{}, fmt.Errorf("sos statistics: %w", err)
	}
	return st, nil
}
