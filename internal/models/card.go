package models

import (
	"time"

	"github.com/google/uuid"
)

// CardType is the closed set of card formats the Card Factory produces.
// The scheduling core never branches on it; it only travels with the card.
type CardType string

const (
	CardTypeDefinition     CardType = "definition"
	CardTypeApplication    CardType = "application"
	CardTypeConnection     CardType = "connection"
	CardTypeCloze          CardType = "cloze"
	CardTypeMultipleChoice CardType = "multiple_choice"
)

func (t CardType) Valid() bool {
	switch t {
	case CardTypeDefinition, CardTypeApplication, CardTypeConnection, CardTypeCloze, CardTypeMultipleChoice:
		return true
	}
	return false
}

type Document struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Card is immutable once imported. Ownership of card content lies with the
// external Card Factory; this backend only schedules and serves it.
type Card struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	MacroTopicID uuid.UUID `json:"macro_topic_id"`
	MicroTopicID uuid.UUID `json:"micro_topic_id"`
	Type         CardType  `json:"type"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Difficulty   string    `json:"difficulty"` // static tag: easy | medium | hard
	CreatedAt    time.Time `json:"created_at"`
}
