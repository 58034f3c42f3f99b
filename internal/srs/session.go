package srs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session carries one learner's short-term selection memory: the last few
// cards handed out (never re-offered immediately) and how many consecutive
// picks came from the same micro topic. It is scoped to a single learner so
// concurrent sessions never see each other's history.
type Session struct {
	mu        sync.Mutex
	recent    []uuid.UUID // ring, newest last
	lastTopic uuid.UUID
	topicRun  int
	touchedAt time.Time
}

func (s *Session) excluded(cardID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.recent {
		if id == cardID {
			return true
		}
	}
	return false
}

func (s *Session) topicCapped(microTopicID uuid.UUID, cap int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cap > 0 && s.lastTopic == microTopicID && s.topicRun >= cap
}

func (s *Session) noteSelection(cardID, microTopicID uuid.UUID, window int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, cardID)
	if window >= 0 && len(s.recent) > window {
		s.recent = s.recent[len(s.recent)-window:]
	}
	if s.lastTopic == microTopicID {
		s.topicRun++
	} else {
		s.lastTopic = microTopicID
		s.topicRun = 1
	}
	s.touchedAt = now
}

// Sessions is the per-learner session registry. Idle sessions fall away after
// the configured TTL so the map does not grow with every learner ever seen.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[uuid.UUID]*Session
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[uuid.UUID]*Session),
	}
}

// Get returns the learner's session, creating it on first use and purging
// idle entries opportunistically.
func (r *Sessions) Get(learnerID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	for id, s := range r.entries {
		s.mu.Lock()
		idle := !s.touchedAt.IsZero() && now.Sub(s.touchedAt) > r.ttl
		s.mu.Unlock()
		if idle {
			delete(r.entries, id)
		}
	}

	s, ok := r.entries[learnerID]
	if !ok {
		s = &Session{touchedAt: now}
		r.entries[learnerID] = s
	}
	return s
}
