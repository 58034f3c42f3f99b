package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ankora-backend/internal/middleware"
	"ankora-backend/internal/models"
	"ankora-backend/internal/repository"
)

type CardHandler struct {
	cardRepo *repository.CardRepo
	jobRepo  *repository.JobRepo
	redis    *redis.Client
}

func NewCardHandler(cardRepo *repository.CardRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *CardHandler {
	return &CardHandler{
		cardRepo: cardRepo,
		jobRepo:  jobRepo,
		redis:    redisClient,
	}
}

// Import accepts a batch of cards and hands it to the background worker. The
// response carries the job id the client can poll or watch over WebSocket.
func (h *CardHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationFields(err), r))
		return
	}

	for _, c := range req.Cards {
		if !models.CardType(c.Type).Valid() {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown card type: "+c.Type, r))
			return
		}
	}

	learnerID := middleware.GetUserID(r.Context())
	documentID := uuid.New()

	payload, _ := json.Marshal(req)
	job := &models.Job{
		LearnerID:   learnerID,
		Type:        models.JobTypeCardImport,
		ReferenceID: documentID,
		PayloadJSON: payload,
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), "queue:card-import", string(jobBytes))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":      job.ID,
		"document_id": documentID,
	})
}

func (h *CardHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.cardRepo.ListDocuments(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch documents", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	cards, err := h.cardRepo.ListByDocument(r.Context(), documentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	card, err := h.cardRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	learnerID := middleware.GetUserID(r.Context())
	if job.LearnerID != learnerID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
