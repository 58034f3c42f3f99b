package srs

import (
	"math"
	"sort"
	"strings"

	"ankora-backend/internal/models"
)

type candidate struct {
	card     models.Card
	state    models.CardLearningState // zero value for unseen cards
	seen     bool
	priority float64
}

// SelectNext picks the single best card to present next within scope, or
// reports none available. Eligibility: unseen cards (when the policy includes
// them) and reviewed cards whose due date has passed. Priority blends how far
// overdue a card is, how weak its mastery is, and a little jitter so
// equally-ranked cards take turns. A per-micro-topic cap keeps one topic from
// monopolising a session; the session's recent picks are never re-offered.
func (e *Engine) SelectNext(sess *Session, scope Scope) (models.Card, bool) {
	now := e.clock()

	var cands []candidate
	for _, c := range e.cards.List(scope) {
		if sess != nil && sess.excluded(c.ID) {
			continue
		}

		st, seen := e.State(c.ID)
		if !seen {
			if !e.params.IncludeUnseen {
				continue
			}
			cands = append(cands, candidate{
				card:     c,
				priority: 3*e.params.MasteryWeight + e.jitter(), // unseen counts as mastery 0
			})
			continue
		}

		if st.NextDueAt.After(now) {
			continue
		}

		urgency := 0.0
		if st.IntervalDays > 0 {
			overdueDays := now.Sub(st.NextDueAt).Hours() / 24
			urgency = math.Max(0, overdueDays) / float64(st.IntervalDays)
		}
		bonus := float64(models.ScorePerfect-st.MasteryLevel) * e.params.MasteryWeight
		cands = append(cands, candidate{
			card:     c,
			state:    st,
			seen:     true,
			priority: urgency + bonus + e.jitter(),
		})
	}

	if len(cands) == 0 {
		return models.Card{}, false
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		// Least recently reviewed first; unseen cards carry the zero time
		// and therefore sort ahead of everything reviewed.
		if !a.state.LastReviewedAt.Equal(b.state.LastReviewedAt) {
			return a.state.LastReviewedAt.Before(b.state.LastReviewedAt)
		}
		return strings.Compare(a.card.ID.String(), b.card.ID.String()) < 0
	})

	pick := cands[0]
	if sess != nil {
		// Redistribute to the next-best topic once the cap is hit. The cap
		// is soft: when every remaining eligible card shares the capped
		// topic, serving it beats starving the learner.
		for _, c := range cands {
			if !sess.topicCapped(c.card.MicroTopicID, e.params.TopicStreakCap) {
				pick = c
				break
			}
		}
		sess.noteSelection(pick.card.ID, pick.card.MicroTopicID, e.params.ExcludeWindow, now)
	}
	return pick.card, true
}
