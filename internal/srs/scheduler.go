package srs

import (
	"math"
	"time"

	"ankora-backend/internal/models"
)

// nextState advances a card's learning state by one review event. It is a
// pure function: the same prior state and event always produce the same
// result, which is what makes full-history replay equivalent to incremental
// updates.
//
// Success (score >= 2) walks the anchor sequence for the first streak steps,
// then grows multiplicatively by the ease factor. Failure resets the streak
// and interval and makes future growth slower by decrementing ease.
func nextState(prev *models.CardLearningState, ev models.ReviewEvent, p Params) models.CardLearningState {
	st := models.CardLearningState{
		CardID:     ev.CardID,
		EaseFactor: p.DefaultEase,
	}
	if prev != nil {
		st = *prev
	}

	if ev.Score >= models.ScoreGood {
		st.Streak++
		if st.Streak <= len(p.Anchors) {
			st.IntervalDays = p.Anchors[st.Streak-1]
		} else {
			ease := st.EaseFactor
			if ease < p.MinGrowthEase {
				ease = p.MinGrowthEase
			}
			st.IntervalDays = int(math.Round(float64(st.IntervalDays) * ease))
		}
	} else {
		st.Streak = 0
		st.IntervalDays = p.FailureIntervalDays
		st.EaseFactor -= p.EasePenalty
		if st.EaseFactor < p.EaseFloor {
			st.EaseFactor = p.EaseFloor
		}
	}

	st.MasteryLevel = ev.Score
	st.LastReviewedAt = ev.Timestamp
	st.NextDueAt = ev.Timestamp.Add(time.Duration(st.IntervalDays) * 24 * time.Hour)
	st.TotalReviews++
	return st
}

// Replay folds an ordered event history into the state it implies. It
// validates what the ledger guarantees on append: scores in range and
// strictly increasing timestamps.
func Replay(events []models.ReviewEvent, p Params) (models.CardLearningState, error) {
	if len(events) == 0 {
		return models.CardLearningState{}, ErrNoEvents
	}

	var st *models.CardLearningState
	var last time.Time
	for i, ev := range events {
		if ev.Score < models.ScoreNoIdea || ev.Score > models.ScorePerfect {
			return models.CardLearningState{}, ErrInvalidScore
		}
		if i > 0 && !ev.Timestamp.After(last) {
			return models.CardLearningState{}, ErrLedgerCorrupt
		}
		last = ev.Timestamp

		next := nextState(st, ev, p)
		st = &next
	}
	return *st, nil
}
