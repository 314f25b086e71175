package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/reservation"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
	"github.com/fluxio-platform/fluxio/pkg/logger"
)

// ReservationHandler handles reservation API requests
type ReservationHandler struct {
	service *reservation.Service
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler() *ReservationHandler {
	return &ReservationHandler{
		service: reservation.NewService(),
	}
}

type CreateReservationRequest struct {
	SpaceID       *string   `json:"space_id,omitempty"`
	EquipmentID   *string   `json:"equipment_id,omitempty"`
	Subject       string    `json:"subject"`
	Justification string    `json:"justification,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// canSeeAllReservations reports whether the role sees the whole tenant's
// reservations instead of only its own.
func canSeeAllReservations(role string) bool {
	switch models.Role(role) {
	case models.RoleSuperuser, models.RoleAdminReservation,
		models.RoleVigilancia, models.RoleCalendarViewer:
		return true
	}
	return false
}

// ListReservations lists reservations visible to the caller
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	scope := middleware.GetScopeFromContext(r.Context())
	if claims == nil || scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var reservations []models.Reservation
	var err error
	if canSeeAllReservations(claims.Role) {
		err = scope.FindOrdered(r.Context(), &reservations, "start_time ASC")
	} else {
		err = scope.FindOrdered(r.Context(), &reservations, "start_time ASC", "user_id = ?", claims.UserID)
	}
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list reservations")
		respondError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}

	respondJSON(w, http.StatusOK, reservations)
}

// CreateReservation books a space or equipment item for the caller
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	scope := middleware.GetScopeFromContext(r.Context())
	if claims == nil || scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.EndTime.After(req.StartTime) {
		respondError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Invalid user ID in claims")
		respondError(w, http.StatusInternalServerError, "Invalid user ID")
		return
	}

	params := reservation.CreateParams{
		UserID:        userID,
		Subject:       req.Subject,
		Justification: req.Justification,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}

	if req.SpaceID != nil {
		id, err := uuid.Parse(*req.SpaceID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid space ID")
			return
		}
		params.SpaceID = &id
	}
	if req.EquipmentID != nil {
		id, err := uuid.Parse(*req.EquipmentID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid equipment ID")
			return
		}
		params.EquipmentID = &id
	}

	res, err := h.service.Create(r.Context(), scope, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrScheduleConflict) {
			respondError(w, http.StatusConflict, "Requested time overlaps an existing reservation")
			return
		}
		logger.ErrorEvent().Err(err).Msg("Failed to create reservation")
		respondError(w, http.StatusInternalServerError, "Failed to create reservation")
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

// GetReservation gets a single reservation
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	scope := middleware.GetScopeFromContext(r.Context())
	if claims == nil || scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var res models.Reservation
	if err := scope.First(r.Context(), &res, "id = ?", id); err != nil {
		respondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	if !canSeeAllReservations(claims.Role) && res.UserID.String() != claims.UserID {
		respondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// CancelReservation cancels the caller's reservation
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	scope := middleware.GetScopeFromContext(r.Context())
	if claims == nil || scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var res models.Reservation
	if err := scope.First(r.Context(), &res, "id = ?", id); err != nil {
		respondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	isOwner := res.UserID.String() == claims.UserID
	isAdmin := models.Role(claims.Role) == models.RoleSuperuser ||
		models.Role(claims.Role) == models.RoleAdminReservation
	if !isOwner && !isAdmin {
		respondError(w, http.StatusForbidden, "Access denied")
		return
	}

	err = scope.UpdatesByID(r.Context(), &models.Reservation{}, id, map[string]interface{}{
		"status": models.ReservationCancelled,
	})
	if err != nil {
		logger.ErrorEvent().Err(err).Str("reservation_id", id.String()).Msg("Failed to cancel reservation")
		respondError(w, http.StatusInternalServerError, "Failed to cancel reservation")
		return
	}

	logger.InfoEvent().
		Str("reservation_id", id.String()).
		Str("display_id", res.DisplayID).
		Str("user_id", claims.UserID).
		Msg("Reservation cancelled")

	respondJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

// UpdateStatus approves or rejects a reservation (admins only; route-level
// RBAC enforces the role)
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := models.ReservationStatus(req.Status)
	switch status {
	case models.ReservationApproved, models.ReservationRejected, models.ReservationPending:
	default:
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	var res models.Reservation
	if err := scope.First(r.Context(), &res, "id = ?", id); err != nil {
		respondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	err = scope.UpdatesByID(r.Context(), &models.Reservation{}, id, map[string]interface{}{
		"status": status,
	})
	if err != nil {
		logger.ErrorEvent().Err(err).Str("reservation_id", id.String()).Msg("Failed to update reservation status")
		respondError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	// Tell the requester their reservation moved
	notification := &models.Notification{
		RecipientID: res.UserID,
		Title:       "Reservation " + res.DisplayID,
		Message:     "Your reservation status changed to " + string(status),
		Link:        "/reservations/" + res.ID.String(),
	}
	if err := scope.Create(r.Context(), notification); err != nil {
		logger.WarnEvent().Err(err).Str("reservation_id", id.String()).Msg("Failed to create status notification")
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Status updated", "status": string(status)})
}
