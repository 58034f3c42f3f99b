package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const JobTypeCardImport = "card-import"

type Job struct {
	ID           uuid.UUID       `json:"id"`
	LearnerID    uuid.UUID       `json:"learner_id"`
	Type         string          `json:"type"` // "card-import"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	PayloadJSON  json.RawMessage `json:"payload"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ReviewRecorded is pushed to the learner's socket after each accepted review.
type ReviewRecorded struct {
	CardID     uuid.UUID         `json:"card_id"`
	Score      int               `json:"score"`
	State      CardLearningState `json:"state"`
	RecordedAt time.Time         `json:"recorded_at"`
}

type ImportCompleted struct {
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`
	CardCount  int       `json:"card_count"`
}

type ImportFailed struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
