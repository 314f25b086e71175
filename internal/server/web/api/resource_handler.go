package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	"github.com/fluxio-platform/fluxio/pkg/logger"
)

// ResourceHandler handles space, equipment and workshop API requests. All
// reads and writes go through the request's tenant scope.
type ResourceHandler struct{}

// NewResourceHandler creates a new resource handler
func NewResourceHandler() *ResourceHandler {
	return &ResourceHandler{}
}

type CreateSpaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location,omitempty"`
}

type CreateEquipmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

type CreateWorkshopRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Seats       int       `json:"seats"`
}

// ListSpaces lists the tenant's active spaces
func (h *ResourceHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var spaces []models.Space
	if err := scope.Find(r.Context(), &spaces, "is_active = ?", true); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list spaces")
		respondError(w, http.StatusInternalServerError, "Failed to list spaces")
		return
	}

	respondJSON(w, http.StatusOK, spaces)
}

// CreateSpace creates a space within the tenant
func (h *ResourceHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	space := &models.Space{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Location:    req.Location,
		IsActive:    true,
	}

	if err := scope.Create(r.Context(), space); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to create space")
		respondError(w, http.StatusInternalServerError, "Failed to create space")
		return
	}

	respondJSON(w, http.StatusCreated, space)
}

// ListEquipment lists the tenant's active equipment
func (h *ResourceHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var equipment []models.Equipment
	if err := scope.Find(r.Context(), &equipment, "is_active = ?", true); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list equipment")
		respondError(w, http.StatusInternalServerError, "Failed to list equipment")
		return
	}

	respondJSON(w, http.StatusOK, equipment)
}

// CreateEquipment creates an equipment item within the tenant
func (h *ResourceHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	item := &models.Equipment{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		IsActive:    true,
	}

	if err := scope.Create(r.Context(), item); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to create equipment")
		respondError(w, http.StatusInternalServerError, "Failed to create equipment")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// ListWorkshops lists the tenant's active workshops
func (h *ResourceHandler) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var workshops []models.Workshop
	if err := scope.Find(r.Context(), &workshops, "is_active = ?", true); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list workshops")
		respondError(w, http.StatusInternalServerError, "Failed to list workshops")
		return
	}

	respondJSON(w, http.StatusOK, workshops)
}

// CreateWorkshop creates a workshop within the tenant
func (h *ResourceHandler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScopeFromContext(r.Context())
	if scope == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateWorkshopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		respondError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	workshop := &models.Workshop{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Seats:       req.Seats,
		IsActive:    true,
	}

	if err := scope.Create(r.Context(), workshop); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to create workshop")
		respondError(w, http.StatusInternalServerError, "Failed to create workshop")
		return
	}

	respondJSON(w, http.StatusCreated, workshop)
}
