package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type QuestionHandler struct {
	svc *service.QuestionService
}

func NewQuestionHandler(svc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type createQuestionRequest struct {
	Text               string   `json:"text"`
	Stage              int      `json:"stage"`
	Tags               []string `json:"tags,omitempty"`
	RelatedQuestionIDs []string `json:"related_question_ids,omitempty"`
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	related := make([]uuid.UUID, 0, len(req.RelatedQuestionIDs))
	for _, raw := range req.RelatedQuestionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid related question id")
			return
		}
		related = append(related, id)
	}

	question := &domain.Question{
		Text:               req.Text,
		Stage:              req.Stage,
		Tags:               req.Tags,
		RelatedQuestionIDs: related,
		Source:             domain.QuestionSourceSeed,
	}

	if err := h.svc.Create(r.Context(), question); err != nil {
		switch {
		case errors.Is(err, domain.ErrQuestionTextEmpty), errors.Is(err, domain.ErrQuestionStageInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create question")
		}
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	question, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get question")
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	links, err := h.svc.LinksFor(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list question links")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"links": links, "count": len(links)})
}

func (h *QuestionHandler) ListByStage(w http.ResponseWriter, r *http.Request) {
	stage, err := strconv.Atoi(r.URL.Query().Get("stage"))
	if err != nil || stage < 1 {
		writeError(w, http.StatusBadRequest, "stage query parameter is required")
		return
	}

	questions, err := h.svc.ListByStage(r.Context(), stage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list questions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"questions": questions, "count": len(questions)})
}
