package srs

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"ankora-backend/internal/models"
)

// Journal is the durable sink for accepted review events. The engine writes
// through to it before committing any in-memory state, so a failed append
// leaves nothing behind. Persistence lives behind this interface; the engine
// itself never touches the network or disk.
type Journal interface {
	Append(ctx context.Context, ev models.ReviewEvent) error
}

// cardSlot holds one card's ledger tail and derived state. The slot mutex
// serialises appends per card; different cards update in parallel.
type cardSlot struct {
	mu      sync.Mutex
	events  []models.ReviewEvent
	state   models.CardLearningState
	reviews int // events seen
	correct int // events with score >= 2
}

// Engine is the learning-scheduling core: review ledger, mastery tracker,
// interval scheduler, adaptive selector and metrics aggregator behind one
// keyed state store. All due-date checks compare lazily against the injected
// clock; nothing runs on a timer.
type Engine struct {
	params  Params
	cards   *CardIndex
	journal Journal

	clock func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu    sync.RWMutex
	slots map[uuid.UUID]*cardSlot
}

func NewEngine(cards *CardIndex, journal Journal, params Params) *Engine {
	return &Engine{
		params:  params,
		cards:   cards,
		journal: journal,
		clock:   time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		slots:   make(map[uuid.UUID]*cardSlot),
	}
}

// WithClock replaces the wall-clock source. Intended for tests and fixtures.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithRandSeed makes the selector's jitter reproducible.
func (e *Engine) WithRandSeed(seed int64) *Engine {
	e.rng = rand.New(rand.NewSource(seed))
	return e
}

func (e *Engine) Params() Params { return e.params }

func (e *Engine) Cards() *CardIndex { return e.cards }

func (e *Engine) slot(cardID uuid.UUID) *cardSlot {
	e.mu.RLock()
	s, ok := e.slots[cardID]
	e.mu.RUnlock()
	if ok {
		return s
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok = e.slots[cardID]; ok {
		return s
	}
	s = &cardSlot{}
	e.slots[cardID] = s
	return s
}

// AppendReview validates and records one review, then advances the card's
// learning state. The operation is all-or-nothing: validation and the journal
// write happen before any in-memory change, and the state swap is a single
// assignment under the card's lock.
func (e *Engine) AppendReview(ctx context.Context, cardID uuid.UUID, score, latencyMs int) (models.ReviewEvent, models.CardLearningState, error) {
	if score < models.ScoreNoIdea || score > models.ScorePerfect {
		return models.ReviewEvent{}, models.CardLearningState{}, ErrInvalidScore
	}
	if _, ok := e.cards.Get(cardID); !ok {
		return models.ReviewEvent{}, models.CardLearningState{}, ErrUnknownCard
	}

	s := e.slot(cardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ledger timestamps are strictly increasing per card and must survive
	// the journal's timestamptz round trip, which keeps microseconds only.
	// Work at that grain: truncate the clock reading and nudge forward by a
	// full microsecond when two appends land in the same tick, so the
	// in-memory ledger and the replayed durable ledger are identical.
	ev := models.ReviewEvent{
		CardID:    cardID,
		Timestamp: e.clock().Truncate(time.Microsecond),
		Score:     score,
		LatencyMs: latencyMs,
	}
	if n := len(s.events); n > 0 && !ev.Timestamp.After(s.events[n-1].Timestamp) {
		ev.Timestamp = s.events[n-1].Timestamp.Add(time.Microsecond)
	}

	if e.journal != nil {
		if err := e.journal.Append(ctx, ev); err != nil {
			return models.ReviewEvent{}, models.CardLearningState{}, err
		}
	}

	var prev *models.CardLearningState
	if s.reviews > 0 {
		prev = &s.state
	}
	next := nextState(prev, ev, e.params)

	s.events = append(s.events, ev)
	s.state = next
	s.reviews++
	if score >= models.ScoreGood {
		s.correct++
	}
	return ev, next, nil
}

// History returns a copy of the card's ordered event log.
func (e *Engine) History(cardID uuid.UUID) ([]models.ReviewEvent, error) {
	if _, ok := e.cards.Get(cardID); !ok {
		return nil, ErrUnknownCard
	}

	s := e.slot(cardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ReviewEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

// State reports the card's current learning state; ok is false for unseen
// cards, which have no state at all.
func (e *Engine) State(cardID uuid.UUID) (models.CardLearningState, bool) {
	e.mu.RLock()
	s, exists := e.slots[cardID]
	e.mu.RUnlock()
	if !exists {
		return models.CardLearningState{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reviews == 0 {
		return models.CardLearningState{}, false
	}
	return s.state, true
}

// LoadHistory seeds one card's ledger from durable storage at boot, replaying
// it into derived state. Corrupt histories (out of order, duplicate
// timestamps) are rejected, not repaired.
func (e *Engine) LoadHistory(cardID uuid.UUID, events []models.ReviewEvent) error {
	if len(events) == 0 {
		return nil
	}
	state, err := Replay(events, e.params)
	if err != nil {
		return err
	}

	s := e.slot(cardID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append([]models.ReviewEvent(nil), events...)
	s.state = state
	s.reviews = len(events)
	s.correct = 0
	for _, ev := range events {
		if ev.Score >= models.ScoreGood {
			s.correct++
		}
	}
	return nil
}

func (e *Engine) jitter() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64() * e.params.JitterAmplitude
}
