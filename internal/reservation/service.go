package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
	"github.com/fluxio-platform/fluxio/pkg/logger"
)

// CreateParams describes one reservation request. Exactly one of SpaceID and
// EquipmentID should be set; both nil books no concrete resource (an
// administrative block).
type CreateParams struct {
	UserID        uuid.UUID
	SpaceID       *uuid.UUID
	EquipmentID   *uuid.UUID
	Subject       string
	Justification string
	StartTime     time.Time
	EndTime       time.Time
	Status        models.ReservationStatus
}

// Service creates reservations: it checks schedule conflicts, assigns the
// display identifier and persists the row, all through a tenant-bound scope.
type Service struct {
	gen *DisplayIDGenerator
}

// NewService creates a reservation service.
func NewService() *Service {
	return &Service{gen: NewDisplayIDGenerator()}
}

// Create books a reservation. The conflict check and the insert run in one
// transaction together with the counter increment, so two concurrent
// submissions can neither double-book a slot nor share a display id. The
// counter increment runs first: it takes a row lock that serializes
// concurrent submissions for the tenant, so by the time the conflict check
// executes any competing reservation is already committed and visible.
// A rejected submission rolls the increment back with the transaction.
func (s *Service) Create(ctx context.Context, scope *db.Scope, params CreateParams) (*models.Reservation, error) {
	if params.Status == "" {
		params.Status = models.ReservationPending
	}

	var created *models.Reservation
	err := scope.Transaction(ctx, func(tx *db.Scope) error {
		displayID, err := s.gen.Generate(ctx, tx, params.UserID)
		if err != nil {
			return err
		}

		if err := s.checkConflicts(ctx, tx, params); err != nil {
			return err
		}

		res := &models.Reservation{
			DisplayID:     displayID,
			UserID:        params.UserID,
			SpaceID:       params.SpaceID,
			EquipmentID:   params.EquipmentID,
			Subject:       params.Subject,
			Justification: params.Justification,
			StartTime:     params.StartTime,
			EndTime:       params.EndTime,
			Status:        params.Status,
		}
		if err := tx.Create(ctx, res); err != nil {
			return apperrors.Wrap(err, "creating reservation")
		}

		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoEvent().
		Str("display_id", created.DisplayID).
		Str("reservation_id", created.ID.String()).
		Str("tenant_id", scope.TenantID().String()).
		Msg("Reservation created")

	return created, nil
}

// checkConflicts rejects overlapping PENDING/APPROVED reservations for the
// same space or equipment. An interval [start, end) overlaps an existing
// [s, e) when start < e and end > s.
func (s *Service) checkConflicts(ctx context.Context, tx *db.Scope, params CreateParams) error {
	if params.SpaceID == nil && params.EquipmentID == nil {
		return nil
	}

	query := "status IN ? AND start_time < ? AND end_time > ?"
	args := []interface{}{
		[]models.ReservationStatus{models.ReservationPending, models.ReservationApproved},
		params.EndTime,
		params.StartTime,
	}
	if params.SpaceID != nil {
		query += " AND space_id = ?"
		args = append(args, *params.SpaceID)
	} else {
		query += " AND equipment_id = ?"
		args = append(args, *params.EquipmentID)
	}

	count, err := tx.Count(ctx, &models.Reservation{}, append([]interface{}{query}, args...)...)
	if err != nil {
		return apperrors.Wrap(err, "checking schedule conflicts")
	}
	if count > 0 {
		return apperrors.ErrScheduleConflict
	}
	return nil
}
