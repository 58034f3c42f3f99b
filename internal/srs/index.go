package srs

import (
	"sync"

	"github.com/google/uuid"

	"ankora-backend/internal/models"
)

// Scope restricts an operation to one document, or to everything when
// DocumentID is uuid.Nil.
type Scope struct {
	DocumentID uuid.UUID
}

func ScopeAll() Scope { return Scope{} }

func ScopeDocument(id uuid.UUID) Scope { return Scope{DocumentID: id} }

func (s Scope) matches(c models.Card) bool {
	return s.DocumentID == uuid.Nil || s.DocumentID == c.DocumentID
}

// CardIndex is the core's read-only view of the Card Store: an in-memory
// registry loaded from the repository at boot and extended as imports land.
// Cards are never mutated or removed.
type CardIndex struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]models.Card
	order []uuid.UUID // insertion order, for stable iteration
}

func NewCardIndex() *CardIndex {
	return &CardIndex{byID: make(map[uuid.UUID]models.Card)}
}

// Add registers cards, silently skipping ids already present.
func (ix *CardIndex) Add(cards ...models.Card) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, c := range cards {
		if _, exists := ix.byID[c.ID]; exists {
			continue
		}
		ix.byID[c.ID] = c
		ix.order = append(ix.order, c.ID)
	}
}

func (ix *CardIndex) Get(id uuid.UUID) (models.Card, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	c, ok := ix.byID[id]
	return c, ok
}

// List returns the cards in scope in insertion order.
func (ix *CardIndex) List(scope Scope) []models.Card {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]models.Card, 0, len(ix.order))
	for _, id := range ix.order {
		c := ix.byID[id]
		if scope.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (ix *CardIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}
