package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ankora-backend/internal/models"
	"ankora-backend/internal/services"
	"ankora-backend/internal/srs"
)

// stubEvaluator grades every answer with a fixed score, or fails.
type stubEvaluator struct {
	score int
	fail  bool
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ models.Card, _ string) (models.Evaluation, error) {
	if s.fail {
		return models.Evaluation{}, &services.UpstreamError{Message: "grading backend unavailable"}
	}
	return models.Evaluation{Score: s.score, Explanation: "stub"}, nil
}

func testCardID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func newStudyFixture(t *testing.T, eval services.AnswerEvaluator, cards ...models.Card) (*StudyHandler, http.Handler) {
	t.Helper()

	ix := srs.NewCardIndex()
	ix.Add(cards...)
	engine := srs.NewEngine(ix, nil, srs.NewDefaultParams()).WithRandSeed(1)
	sessions := srs.NewSessions(time.Hour)
	study := services.NewStudyService(engine, sessions, eval, nil)

	h := NewStudyHandler(study)

	r := chi.NewRouter()
	r.Get("/study/next", h.NextCard)
	r.Post("/study/answer", h.SubmitAnswer)
	r.Post("/study/score", h.RecordScore)
	r.Get("/cards/{id}/state", h.GetCardState)
	r.Get("/cards/{id}/history", h.GetHistory)
	r.Get("/progress", h.GetProgress)
	r.Get("/metrics/srs", h.GetMetrics)
	return h, r
}

func someCard(n int) models.Card {
	return models.Card{
		ID:           testCardID(n),
		DocumentID:   testCardID(900),
		MacroTopicID: testCardID(901),
		MicroTopicID: testCardID(902),
		Type:         models.CardTypeDefinition,
		Front:        "What is a monad?",
		Back:         "A monoid in the category of endofunctors.",
	}
}

func TestNextCard_ReturnsACard(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	req := httptest.NewRequest(http.MethodGet, "/study/next", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Available bool        `json:"available"`
		Card      models.Card `json:"card"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Available {
		t.Fatal("Expected an available card")
	}
	if resp.Card.ID != testCardID(1) {
		t.Errorf("Expected card %s, got %s", testCardID(1), resp.Card.ID)
	}
}

func TestNextCard_EmptyQueueIsNotAnError(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}) // no cards at all

	req := httptest.NewRequest(http.MethodGet, "/study/next", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["available"] != false {
		t.Errorf("Expected available=false, got %v", resp["available"])
	}
}

func TestNextCard_RejectsBadDocumentID(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	req := httptest.NewRequest(http.MethodGet, "/study/next?document_id=not-a-uuid", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

func TestSubmitAnswer_RecordsReviewAndReturnsState(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	body, _ := json.Marshal(models.SubmitAnswerRequest{
		CardID:    testCardID(1),
		Answer:    "A monoid in the category of endofunctors",
		LatencyMs: 1800,
	})

	req := httptest.NewRequest(http.MethodPost, "/study/answer", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result models.AnswerResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Score != 2 {
		t.Errorf("Expected score 2, got %d", result.Score)
	}
	if result.State.IntervalDays != 1 {
		t.Errorf("Expected first interval of 1 day, got %d", result.State.IntervalDays)
	}
	if result.State.MasteryLevel != 2 {
		t.Errorf("Expected mastery 2, got %d", result.State.MasteryLevel)
	}
}

func TestSubmitAnswer_UnknownCard(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	body, _ := json.Marshal(models.SubmitAnswerRequest{
		CardID: testCardID(99),
		Answer: "anything",
	})

	req := httptest.NewRequest(http.MethodPost, "/study/answer", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}

func TestSubmitAnswer_GradingFailureWritesNothing(t *testing.T) {
	h, r := newStudyFixture(t, &stubEvaluator{fail: true}, someCard(1))

	body, _ := json.Marshal(models.SubmitAnswerRequest{
		CardID: testCardID(1),
		Answer: "anything",
	})

	req := httptest.NewRequest(http.MethodPost, "/study/answer", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rr.Code)
	}

	// The failed submission must leave no trace in the ledger.
	events, err := h.studyService.History(testCardID(1))
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected empty history after grading failure, got %d events", len(events))
	}
}

func TestRecordScore_RejectsOutOfRangeScore(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	body, _ := json.Marshal(map[string]interface{}{
		"card_id": testCardID(1),
		"score":   5,
	})

	req := httptest.NewRequest(http.MethodPost, "/study/score", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetCardState_UnseenCard(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	req := httptest.NewRequest(http.MethodGet, "/cards/"+testCardID(1).String()+"/state", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["seen"] != false {
		t.Errorf("Expected seen=false for an unreviewed card, got %v", resp["seen"])
	}
}

func TestGetHistory_UnknownCard(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1))

	req := httptest.NewRequest(http.MethodGet, "/cards/"+testCardID(42).String()+"/history", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}

func TestGetMetrics_ReturnsAggregates(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 2}, someCard(1), someCard(2))

	req := httptest.NewRequest(http.MethodGet, "/metrics/srs", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var m models.ReviewMetrics
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if m.DueToday != 2 {
		t.Errorf("Expected both unseen cards to count as due today, got %d", m.DueToday)
	}
}

func TestGetProgress_Distribution(t *testing.T) {
	_, r := newStudyFixture(t, &stubEvaluator{score: 3}, someCard(1), someCard(2))

	// Review one card so the buckets split.
	body, _ := json.Marshal(models.SubmitAnswerRequest{CardID: testCardID(1), Answer: "x"})
	req := httptest.NewRequest(http.MethodPost, "/study/answer", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Setup review failed: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/progress", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var report models.ProgressReport
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.Distribution.NeverSeen != 1 {
		t.Errorf("Expected 1 unseen card, got %d", report.Distribution.NeverSeen)
	}
	if report.Distribution.Level3 != 1 {
		t.Errorf("Expected 1 card at mastery 3, got %d", report.Distribution.Level3)
	}
	if report.Distribution.Total() != 2 {
		t.Errorf("Buckets must sum to the card count, got %d", report.Distribution.Total())
	}
}

func TestCardImport_ValidatesCardTypes(t *testing.T) {
	// Type validation runs before any repo or queue access, so nil deps are
	// safe on the reject path.
	h := NewCardHandler(nil, nil, nil)

	body, _ := json.Marshal(models.ImportCardsRequest{
		Title: "Linear Algebra",
		Cards: []models.ImportCard{{
			MacroTopicID: testCardID(901),
			MicroTopicID: testCardID(902),
			Type:         "essay",
			Front:        "f",
			Back:         "b",
		}},
	})

	req := httptest.NewRequest(http.MethodPost, "/cards/import", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Import(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown card type, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
	}
}

func TestCardImport_RejectsEmptyBatch(t *testing.T) {
	h := NewCardHandler(nil, nil, nil)

	body, _ := json.Marshal(models.ImportCardsRequest{Title: "Empty", Cards: nil})

	req := httptest.NewRequest(http.MethodPost, "/cards/import", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Import(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for empty card list, got %d", rr.Code)
	}
}
