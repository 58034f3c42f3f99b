package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ankora-backend/internal/models"
)

// ReviewRepo is the durable half of the review ledger. Rows are append-only:
// no update or delete statement exists in this repo on purpose.
type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// Append implements srs.Journal.
func (r *ReviewRepo) Append(ctx context.Context, ev models.ReviewEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO review_events (id, card_id, recorded_at, score, latency_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), ev.CardID, ev.Timestamp, ev.Score, ev.LatencyMs,
	)
	return err
}

func (r *ReviewRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.ReviewEvent, error) {
	query := `SELECT card_id, recorded_at, score, latency_ms
		FROM review_events WHERE card_id = $1 ORDER BY recorded_at, seq`

	rows, err := r.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ReviewEvent
	for rows.Next() {
		ev := models.ReviewEvent{}
		if err := rows.Scan(&ev.CardID, &ev.Timestamp, &ev.Score, &ev.LatencyMs); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListAllGrouped loads every card's ordered history in one pass, for engine
// recovery at boot.
func (r *ReviewRepo) ListAllGrouped(ctx context.Context) (map[uuid.UUID][]models.ReviewEvent, error) {
	query := `SELECT card_id, recorded_at, score, latency_ms
		FROM review_events ORDER BY card_id, recorded_at, seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]models.ReviewEvent)
	for rows.Next() {
		ev := models.ReviewEvent{}
		if err := rows.Scan(&ev.CardID, &ev.Timestamp, &ev.Score, &ev.LatencyMs); err != nil {
			return nil, err
		}
		grouped[ev.CardID] = append(grouped[ev.CardID], ev)
	}
	return grouped, rows.Err()
}
