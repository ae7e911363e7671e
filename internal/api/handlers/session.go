package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	session, err := h.svc.GetOrCreate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserIDEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type submitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question_id")
		return
	}

	result, err := h.svc.SubmitAnswer(r.Context(), userID, questionID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserIDEmpty), errors.Is(err, domain.ErrAnswerTextEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "question not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to submit answer")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type resolveContradictionRequest struct {
	Explanation           string `json:"explanation"`
	OverwrittenQuestionID string `json:"overwritten_question_id"`
	NewAnswerText         string `json:"new_answer_text"`
}

func (h *SessionHandler) ResolveContradiction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	contradictionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contradiction id")
		return
	}

	var req resolveContradictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	overwrittenID, err := uuid.Parse(req.OverwrittenQuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid overwritten_question_id")
		return
	}
	if req.NewAnswerText == "" {
		writeError(w, http.StatusBadRequest, "new_answer_text is required")
		return
	}

	result, err := h.svc.ResolveContradiction(r.Context(), userID, contradictionID, domain.Resolution{
		Explanation:           req.Explanation,
		OverwrittenQuestionID: overwrittenID,
		NewAnswerText:         req.NewAnswerText,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContradictionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyResolved):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrResolutionQuestionNotInPair),
			errors.Is(err, service.ErrQuestionNotAnswered):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to resolve contradiction")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	refresh := r.URL.Query().Get("refresh") == "true"

	analysis, err := h.svc.Analysis(r.Context(), userID, refresh)
	if err != nil {
		if errors.Is(err, domain.ErrUserIDEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute analysis")
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (h *SessionHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	question, err := h.svc.NextQuestion(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserIDEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoQuestionAvailable):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to select next question")
		}
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	result, err := h.svc.AdvanceStage(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserIDEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to evaluate stage advancement")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
