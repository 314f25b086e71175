package api

import (
	"net/http"

	"github.com/fluxio-platform/fluxio/internal/version"
)

// VersionHandler handles version-related API requests
type VersionHandler struct{}

// NewVersionHandler creates a new version handler
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// GetVersion returns the current version information
func (vh *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, version.GetVersion())
}
