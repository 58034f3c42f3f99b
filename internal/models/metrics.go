package models

import (
	"time"

	"github.com/google/uuid"
)

// MasteryDistribution buckets every card in scope exactly once: reviewed
// cards by their current mastery level, the rest under NeverSeen.
type MasteryDistribution struct {
	Level0    int `json:"level_0"`
	Level1    int `json:"level_1"`
	Level2    int `json:"level_2"`
	Level3    int `json:"level_3"`
	NeverSeen int `json:"never_seen"`
}

func (d MasteryDistribution) Total() int {
	return d.Level0 + d.Level1 + d.Level2 + d.Level3 + d.NeverSeen
}

// ReviewMetrics are the spaced-repetition dashboard numbers for a scope.
type ReviewMetrics struct {
	DueToday        int     `json:"due_today"`
	Overdue         int     `json:"overdue"`
	DueSoon         int     `json:"due_soon"`
	AverageInterval float64 `json:"average_interval"`
	RetentionRate   float64 `json:"retention_rate"`
	TotalReviews    int     `json:"total_reviews"`
}

// MacroTopicRollup summarises progress for one macro topic.
type MacroTopicRollup struct {
	MacroTopicID   uuid.UUID  `json:"macro_topic_id"`
	TotalCards     int        `json:"total_cards"`
	CardsStudied   int        `json:"cards_studied"`
	MasteryPercent float64    `json:"mastery_percent"`
	TotalReviews   int        `json:"total_reviews"`
	AvgRecentScore float64    `json:"avg_recent_score"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

type OverallStats struct {
	TotalCards      int     `json:"total_cards"`
	CardsStudied    int     `json:"cards_studied"`
	AverageInterval float64 `json:"average_interval"`
	RetentionRate   float64 `json:"retention_rate"`
	TotalReviews    int     `json:"total_reviews"`
}

// ProgressReport is the payload behind the progress endpoint.
type ProgressReport struct {
	Distribution MasteryDistribution `json:"mastery_distribution"`
	Overall      OverallStats        `json:"overall_stats"`
	MacroTopics  []MacroTopicRollup  `json:"macro_topic_rollups"`
}
