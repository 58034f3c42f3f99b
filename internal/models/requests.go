package models

import "github.com/google/uuid"

// Request DTOs. Field rules are enforced with go-playground/validator in the
// handlers layer.

type SubmitAnswerRequest struct {
	CardID    uuid.UUID `json:"card_id" validate:"required"`
	Answer    string    `json:"answer" validate:"required"`
	LatencyMs int       `json:"latency_ms" validate:"gte=0"`
}

type RecordScoreRequest struct {
	CardID    uuid.UUID `json:"card_id" validate:"required"`
	Score     int       `json:"score" validate:"gte=0,lte=3"`
	LatencyMs int       `json:"latency_ms" validate:"gte=0"`
}

type ImportCard struct {
	MacroTopicID uuid.UUID `json:"macro_topic_id" validate:"required"`
	MicroTopicID uuid.UUID `json:"micro_topic_id" validate:"required"`
	Type         string    `json:"type" validate:"required"`
	Front        string    `json:"front" validate:"required"`
	Back         string    `json:"back" validate:"required"`
	Difficulty   string    `json:"difficulty"`
}

type ImportCardsRequest struct {
	Title string       `json:"title" validate:"required"`
	Cards []ImportCard `json:"cards" validate:"required,min=1,dive"`
}
