package models

import (
	"time"

	"github.com/google/uuid"
)

// Scores a review event can carry. The Answer Evaluator grades on the same
// scale; anything outside it is rejected before it touches the ledger.
const (
	ScoreNoIdea  = 0
	ScoreBarely  = 1
	ScoreGood    = 2
	ScorePerfect = 3
)

// ReviewEvent is one append-only ledger entry. Events for a card are strictly
// ordered by timestamp; the ledger never updates or deletes them.
type ReviewEvent struct {
	CardID    uuid.UUID `json:"card_id"`
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	LatencyMs int       `json:"latency_ms"`
}

// CardLearningState is derived state: exactly one per card that has at least
// one review, and always reproducible by replaying that card's events.
type CardLearningState struct {
	CardID         uuid.UUID `json:"card_id"`
	MasteryLevel   int       `json:"mastery_level"` // score of the most recent review
	Streak         int       `json:"streak"`        // consecutive reviews with score >= 2
	IntervalDays   int       `json:"interval_days"`
	EaseFactor     float64   `json:"ease_factor"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	NextDueAt      time.Time `json:"next_due_at"`
	TotalReviews   int       `json:"total_reviews"`
}

// Evaluation is the Answer Evaluator's verdict on a submitted answer.
type Evaluation struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// AnswerResult is what submitAnswer returns to the client: the grade plus the
// card's post-review scheduling state.
type AnswerResult struct {
	CardID      uuid.UUID         `json:"card_id"`
	Score       int               `json:"score"`
	Explanation string            `json:"explanation"`
	State       CardLearningState `json:"state"`
}
