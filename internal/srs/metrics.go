package srs

import (
	"math"
	"time"

	"github.com/google/uuid"

	"ankora-backend/internal/models"
)

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (e *Engine) reviewCounts(cardID uuid.UUID) (reviews, correct int) {
	e.mu.RLock()
	s, ok := e.slots[cardID]
	e.mu.RUnlock()
	if !ok {
		return 0, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviews, s.correct
}

// Metrics aggregates the spaced-repetition dashboard numbers for a scope.
// Due buckets are evaluated lazily against the clock at call time:
// overdue means due before today began, due-today folds the overdue in, and
// due-soon looks ahead a configurable number of days.
func (e *Engine) Metrics(scope Scope) models.ReviewMetrics {
	now := e.clock()
	today := startOfDay(now)
	soonUntil := now.Add(time.Duration(e.params.DueSoonDays) * 24 * time.Hour)

	var m models.ReviewMetrics
	var reviewed int
	var intervalSum int
	var totalEvents, correctEvents int

	for _, c := range e.cards.List(scope) {
		st, seen := e.State(c.ID)
		if !seen {
			if e.params.IncludeUnseen {
				m.DueToday++
			}
			continue
		}

		reviewed++
		intervalSum += st.IntervalDays

		if st.NextDueAt.Before(today) {
			m.Overdue++
		}
		if !st.NextDueAt.After(now) {
			m.DueToday++
		} else if !st.NextDueAt.After(soonUntil) {
			m.DueSoon++
		}

		r, correct := e.reviewCounts(c.ID)
		totalEvents += r
		correctEvents += correct
	}

	if reviewed > 0 {
		m.AverageInterval = float64(intervalSum) / float64(reviewed)
	}
	if totalEvents > 0 {
		m.RetentionRate = 100 * float64(correctEvents) / float64(totalEvents)
	}
	m.TotalReviews = totalEvents
	return m
}

// Progress builds the mastery distribution, overall stats and per-macro-topic
// rollups for a scope. Every card in scope lands in exactly one distribution
// bucket.
func (e *Engine) Progress(scope Scope) models.ProgressReport {
	type topicAcc struct {
		total     int
		studied   int
		mastered  int // studied cards with mastery >= 2
		reviews   int
		scoreSum  int
		lastSeen  time.Time
		hasReview bool
	}

	var report models.ProgressReport
	var intervalSum, reviewed int
	var totalEvents, correctEvents int
	topics := make(map[uuid.UUID]*topicAcc)
	var topicOrder []uuid.UUID

	for _, c := range e.cards.List(scope) {
		acc, ok := topics[c.MacroTopicID]
		if !ok {
			acc = &topicAcc{}
			topics[c.MacroTopicID] = acc
			topicOrder = append(topicOrder, c.MacroTopicID)
		}
		acc.total++
		report.Overall.TotalCards++

		st, seen := e.State(c.ID)
		if !seen {
			report.Distribution.NeverSeen++
			continue
		}

		switch st.MasteryLevel {
		case 0:
			report.Distribution.Level0++
		case 1:
			report.Distribution.Level1++
		case 2:
			report.Distribution.Level2++
		case 3:
			report.Distribution.Level3++
		}

		reviewed++
		intervalSum += st.IntervalDays
		acc.studied++
		if st.MasteryLevel >= models.ScoreGood {
			acc.mastered++
		}
		if !acc.hasReview || st.LastReviewedAt.After(acc.lastSeen) {
			acc.lastSeen = st.LastReviewedAt
			acc.hasReview = true
		}

		r, correct := e.reviewCounts(c.ID)
		totalEvents += r
		correctEvents += correct
		acc.reviews += r
		acc.scoreSum += st.MasteryLevel
	}

	report.Overall.CardsStudied = reviewed
	report.Overall.TotalReviews = totalEvents
	if reviewed > 0 {
		report.Overall.AverageInterval = float64(intervalSum) / float64(reviewed)
	}
	if totalEvents > 0 {
		report.Overall.RetentionRate = 100 * float64(correctEvents) / float64(totalEvents)
	}

	for _, id := range topicOrder {
		acc := topics[id]
		roll := models.MacroTopicRollup{
			MacroTopicID: id,
			TotalCards:   acc.total,
			CardsStudied: acc.studied,
			TotalReviews: acc.reviews,
		}
		if acc.total > 0 {
			roll.MasteryPercent = math.Round(100*float64(acc.mastered)/float64(acc.total)*100) / 100
		}
		if acc.studied > 0 {
			roll.AvgRecentScore = float64(acc.scoreSum) / float64(acc.studied)
		}
		if acc.hasReview {
			t := acc.lastSeen
			roll.LastReviewedAt = &t
		}
		report.MacroTopics = append(report.MacroTopics, roll)
	}
	return report
}
