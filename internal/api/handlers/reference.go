package handlers

import (
	"net/http"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/service"
)

// ReferenceHandler serves the read-only reference data: moral frameworks and
// the ordered stage sequence.
type ReferenceHandler struct {
	frameworks domain.FrameworkStore
	stageSvc   *service.StageService
}

func NewReferenceHandler(frameworks domain.FrameworkStore, stageSvc *service.StageService) *ReferenceHandler {
	return &ReferenceHandler{frameworks: frameworks, stageSvc: stageSvc}
}

func (h *ReferenceHandler) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	frameworks, err := h.frameworks.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list frameworks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": frameworks})
}

func (h *ReferenceHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.stageSvc.ListStages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": stages})
}
