package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ankora-backend/internal/models"
	"ankora-backend/internal/srs"
)

const metricsCacheTTL = 5 * time.Second

// StudyService orchestrates a review round trip: grade the answer, append the
// event to the scheduling engine, then fan the result out to listeners.
type StudyService struct {
	engine    *srs.Engine
	sessions  *srs.Sessions
	evaluator AnswerEvaluator
	redis     *redis.Client
}

func NewStudyService(engine *srs.Engine, sessions *srs.Sessions, evaluator AnswerEvaluator, redisClient *redis.Client) *StudyService {
	return &StudyService{
		engine:    engine,
		sessions:  sessions,
		evaluator: evaluator,
		redis:     redisClient,
	}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *StudyService) PublishUpdate(ctx context.Context, learnerID uuid.UUID, msg models.WSMessage) {
	if s.redis == nil {
		return
	}
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("learner_updates:%s", learnerID.String()), string(data))
}

// NextCard picks the learner's best next card. ok is false when nothing is
// eligible right now, which is an empty-queue outcome rather than an error.
func (s *StudyService) NextCard(learnerID uuid.UUID, scope srs.Scope) (models.Card, bool) {
	sess := s.sessions.Get(learnerID)
	return s.engine.SelectNext(sess, scope)
}

// SubmitAnswer grades a free-text answer and records the resulting score. A
// grading failure aborts the whole operation; no review is written on a guess.
func (s *StudyService) SubmitAnswer(ctx context.Context, learnerID, cardID uuid.UUID, answer string, latencyMs int) (*models.AnswerResult, error) {
	card, ok := s.engine.Cards().Get(cardID)
	if !ok {
		return nil, &NotFoundError{Message: "Card not found"}
	}

	eval, err := s.evaluator.Evaluate(ctx, card, answer)
	if err != nil {
		return nil, err
	}

	ev, state, err := s.engine.AppendReview(ctx, cardID, eval.Score, latencyMs)
	if err != nil {
		return nil, mapEngineError(err)
	}

	s.afterReview(ctx, learnerID, ev, state)

	return &models.AnswerResult{
		CardID:      cardID,
		Score:       eval.Score,
		Explanation: eval.Explanation,
		State:       state,
	}, nil
}

// RecordScore appends a self-graded review, bypassing the evaluator.
func (s *StudyService) RecordScore(ctx context.Context, learnerID, cardID uuid.UUID, score, latencyMs int) (*models.AnswerResult, error) {
	ev, state, err := s.engine.AppendReview(ctx, cardID, score, latencyMs)
	if err != nil {
		return nil, mapEngineError(err)
	}

	s.afterReview(ctx, learnerID, ev, state)

	return &models.AnswerResult{
		CardID: cardID,
		Score:  score,
		State:  state,
	}, nil
}

func (s *StudyService) afterReview(ctx context.Context, learnerID uuid.UUID, ev models.ReviewEvent, state models.CardLearningState) {
	s.PublishUpdate(ctx, learnerID, models.WSMessage{
		Type: "review_recorded",
		Payload: models.ReviewRecorded{
			CardID:     ev.CardID,
			Score:      ev.Score,
			State:      state,
			RecordedAt: ev.Timestamp,
		},
	})
	if s.redis != nil {
		// Aggregates are stale the moment a review lands.
		iter := s.redis.Scan(ctx, 0, "cache:metrics:*", 50).Iterator()
		for iter.Next(ctx) {
			s.redis.Del(ctx, iter.Val())
		}
		iter = s.redis.Scan(ctx, 0, "cache:progress:*", 50).Iterator()
		for iter.Next(ctx) {
			s.redis.Del(ctx, iter.Val())
		}
	}
}

func (s *StudyService) History(cardID uuid.UUID) ([]models.ReviewEvent, error) {
	events, err := s.engine.History(cardID)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return events, nil
}

func (s *StudyService) CardState(cardID uuid.UUID) (models.CardLearningState, bool) {
	return s.engine.State(cardID)
}

// Metrics serves review aggregates with a short Redis cache in front. The
// aggregation itself is cheap; the cache bounds load from dashboard polling.
func (s *StudyService) Metrics(ctx context.Context, scope srs.Scope) (models.ReviewMetrics, error) {
	key := "cache:metrics:" + scope.DocumentID.String()

	var m models.ReviewMetrics
	if s.cacheGet(ctx, key, &m) {
		return m, nil
	}

	m = s.engine.Metrics(scope)
	s.cacheSet(ctx, key, m)
	return m, nil
}

func (s *StudyService) Progress(ctx context.Context, scope srs.Scope) (models.ProgressReport, error) {
	key := "cache:progress:" + scope.DocumentID.String()

	var report models.ProgressReport
	if s.cacheGet(ctx, key, &report) {
		return report, nil
	}

	report = s.engine.Progress(scope)
	s.cacheSet(ctx, key, report)
	return report, nil
}

func (s *StudyService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.redis == nil {
		return false
	}
	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (s *StudyService) cacheSet(ctx context.Context, key string, v any) {
	if s.redis == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		s.redis.Set(ctx, key, data, metricsCacheTTL)
	}
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, srs.ErrUnknownCard):
		return &NotFoundError{Message: "Card not found"}
	case errors.Is(err, srs.ErrInvalidScore):
		return &ValidationError{Fields: map[string]string{"score": "Score must be between 0 and 3"}}
	default:
		return err
	}
}
