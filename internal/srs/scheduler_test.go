package srs_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ankora-backend/internal/models"
	"ankora-backend/internal/srs"
)

var testBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testCardID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func testCard(n int, docID, macroID, microID uuid.UUID) models.Card {
	return models.Card{
		ID:           testCardID(n),
		DocumentID:   docID,
		MacroTopicID: macroID,
		MicroTopicID: microID,
		Type:         models.CardTypeDefinition,
		Front:        fmt.Sprintf("front %d", n),
		Back:         fmt.Sprintf("back %d", n),
		Difficulty:   "medium",
	}
}

func newTestEngine(clock *fakeClock, cards ...models.Card) *srs.Engine {
	ix := srs.NewCardIndex()
	ix.Add(cards...)
	return srs.NewEngine(ix, nil, srs.NewDefaultParams()).
		WithClock(clock.Now).
		WithRandSeed(1)
}

func appendScores(t *testing.T, e *srs.Engine, clock *fakeClock, cardID uuid.UUID, scores ...int) models.CardLearningState {
	t.Helper()
	var st models.CardLearningState
	var err error
	for _, score := range scores {
		clock.Advance(time.Hour)
		_, st, err = e.AppendReview(context.Background(), cardID, score, 1500)
		require.NoError(t, err)
	}
	return st
}

func TestScheduler_AnchorProgression(t *testing.T) {
	clock := newFakeClock(testBase)
	doc, macro, micro := uuid.New(), uuid.New(), uuid.New()
	e := newTestEngine(clock, testCard(1, doc, macro, micro))

	// Score sequence [2,3,3] on a fresh card walks the first three anchors.
	_, st, err := e.AppendReview(context.Background(), testCardID(1), 2, 900)
	require.NoError(t, err)
	assert.Equal(t, 1, st.IntervalDays)
	assert.Equal(t, 1, st.Streak)

	clock.Advance(24 * time.Hour)
	_, st, err = e.AppendReview(context.Background(), testCardID(1), 3, 900)
	require.NoError(t, err)
	assert.Equal(t, 3, st.IntervalDays)

	clock.Advance(3 * 24 * time.Hour)
	_, st, err = e.AppendReview(context.Background(), testCardID(1), 3, 900)
	require.NoError(t, err)
	assert.Equal(t, 7, st.IntervalDays)
	assert.Equal(t, 3, st.MasteryLevel)
	assert.Equal(t, st.LastReviewedAt.Add(7*24*time.Hour), st.NextDueAt,
		"next due should be the event timestamp plus the interval")
}

func TestScheduler_MultiplicativeGrowthAfterAnchors(t *testing.T) {
	clock := newFakeClock(testBase)
	e := newTestEngine(clock, testCard(1, uuid.New(), uuid.New(), uuid.New()))

	st := appendScores(t, e, clock, testCardID(1), 2, 2, 2, 2)
	assert.Equal(t, 14, st.IntervalDays, "fourth success lands on the last anchor")

	st = appendScores(t, e, clock, testCardID(1), 2)
	assert.Equal(t, 25, st.IntervalDays, "streak 5 grows by ease: round(14 * 1.8)")
	assert.Equal(t, 5, st.Streak)
}

func TestScheduler_FailureResets(t *testing.T) {
	clock := newFakeClock(testBase)
	e := newTestEngine(clock, testCard(1, uuid.New(), uuid.New(), uuid.New()))

	st := appendScores(t, e, clock, testCardID(1), 3, 3, 0)
	assert.Equal(t, 0, st.Streak, "failure resets the streak regardless of prior run")
	assert.Equal(t, 1, st.IntervalDays)
	assert.Equal(t, 0, st.MasteryLevel)
	assert.InDelta(t, 1.7, st.EaseFactor, 1e-9, "failure decrements ease by the penalty")
}

func TestScheduler_EaseFloor(t *testing.T) {
	clock := newFakeClock(testBase)
	e := newTestEngine(clock, testCard(1, uuid.New(), uuid.New(), uuid.New()))

	var st models.CardLearningState
	for i := 0; i < 10; i++ {
		st = appendScores(t, e, clock, testCardID(1), 0)
		assert.GreaterOrEqual(t, st.EaseFactor, 1.3)
	}
	assert.InDelta(t, 1.3, st.EaseFactor, 1e-9)
}

func TestScheduler_MasteryTracksLastScore(t *testing.T) {
	clock := newFakeClock(testBase)
	e := newTestEngine(clock, testCard(1, uuid.New(), uuid.New(), uuid.New()))

	for _, score := range []int{3, 1, 2, 0} {
		st := appendScores(t, e, clock, testCardID(1), score)
		assert.Equal(t, score, st.MasteryLevel)
	}
}

func TestReplay_MatchesIncrementalState(t *testing.T) {
	clock := newFakeClock(testBase)
	e := newTestEngine(clock, testCard(1, uuid.New(), uuid.New(), uuid.New()))

	st := appendScores(t, e, clock, testCardID(1), 2, 3, 1, 2, 2, 0, 3, 3, 3, 2)

	history, err := e.History(testCardID(1))
	require.NoError(t, err)
	require.Len(t, history, 10)

	replayed, err := srs.Replay(history, srs.NewDefaultParams())
	require.NoError(t, err)
	assert.Equal(t, st, replayed, "replaying the full ledger must reproduce the incremental state")
}

func TestReplay_RejectsCorruptLedger(t *testing.T) {
	cardID := testCardID(1)
	params := srs.NewDefaultParams()

	_, err := srs.Replay(nil, params)
	assert.ErrorIs(t, err, srs.ErrNoEvents)

	outOfOrder := []models.ReviewEvent{
		{CardID: cardID, Timestamp: testBase.Add(time.Hour), Score: 2},
		{CardID: cardID, Timestamp: testBase, Score: 3},
	}
	_, err = srs.Replay(outOfOrder, params)
	assert.ErrorIs(t, err, srs.ErrLedgerCorrupt)

	duplicate := []models.ReviewEvent{
		{CardID: cardID, Timestamp: testBase, Score: 2},
		{CardID: cardID, Timestamp: testBase, Score: 3},
	}
	_, err = srs.Replay(duplicate, params)
	assert.ErrorIs(t, err, srs.ErrLedgerCorrupt)

	badScore := []models.ReviewEvent{
		{CardID: cardID, Timestamp: testBase, Score: 7},
	}
	_, err = srs.Replay(badScore, params)
	assert.ErrorIs(t, err, srs.ErrInvalidScore)
}
