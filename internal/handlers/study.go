package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ankora-backend/internal/middleware"
	"ankora-backend/internal/models"
	"ankora-backend/internal/services"
	"ankora-backend/internal/srs"
)

var validate = validator.New()

type StudyHandler struct {
	studyService *services.StudyService
}

func NewStudyHandler(studyService *services.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// scopeFromQuery reads an optional document_id filter. An absent parameter
// means the whole collection.
func scopeFromQuery(r *http.Request) (srs.Scope, bool) {
	raw := r.URL.Query().Get("document_id")
	if raw == "" {
		return srs.ScopeAll(), true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return srs.Scope{}, false
	}
	return srs.ScopeDocument(id), true
}

func (h *StudyHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document_id", r))
		return
	}

	learnerID := middleware.GetUserID(r.Context())

	card, available := h.studyService.NextCard(learnerID, scope)
	if !available {
		// An empty queue is a normal outcome, not an error.
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available": true,
		"card":      card,
	})
}

func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationFields(err), r))
		return
	}

	learnerID := middleware.GetUserID(r.Context())

	result, err := h.studyService.SubmitAnswer(r.Context(), learnerID, req.CardID, req.Answer, req.LatencyMs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *StudyHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	var req models.RecordScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationFields(err), r))
		return
	}

	learnerID := middleware.GetUserID(r.Context())

	result, err := h.studyService.RecordScore(r.Context(), learnerID, req.CardID, req.Score, req.LatencyMs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *StudyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	events, err := h.studyService.History(cardID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"card_id": cardID,
		"events":  events,
	})
}

func (h *StudyHandler) GetCardState(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	state, seen := h.studyService.CardState(cardID)
	if !seen {
		writeJSON(w, http.StatusOK, map[string]interface{}{"seen": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seen":  true,
		"state": state,
	})
}

func (h *StudyHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document_id", r))
		return
	}

	m, err := h.studyService.Metrics(r.Context(), scope)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *StudyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document_id", r))
		return
	}

	report, err := h.studyService.Progress(r.Context(), scope)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func validationFields(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
	}
	return fields
}
