package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ankora-backend/internal/models"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	query := `INSERT INTO documents (id, title, card_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, query, d.ID, d.Title, d.CardCount); err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		"SELECT created_at FROM documents WHERE id = $1", d.ID,
	).Scan(&d.CreatedAt)
}

func (r *CardRepo) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	query := `SELECT d.id, d.title, COUNT(c.id), d.created_at
		FROM documents d
		LEFT JOIN cards c ON c.document_id = d.id
		GROUP BY d.id, d.title, d.created_at
		ORDER BY d.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d := &models.Document{}
		if err := rows.Scan(&d.ID, &d.Title, &d.CardCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CreateCards inserts a batch of immutable cards. Re-imported ids are skipped
// rather than updated; a card's content never changes once stored.
func (r *CardRepo) CreateCards(ctx context.Context, cards []models.Card) error {
	for i := range cards {
		if cards[i].ID == uuid.Nil {
			cards[i].ID = uuid.New()
		}
		_, err := r.pool.Exec(ctx,
			`INSERT INTO cards (id, document_id, macro_topic_id, micro_topic_id, type, front, back, difficulty)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO NOTHING`,
			cards[i].ID, cards[i].DocumentID, cards[i].MacroTopicID, cards[i].MicroTopicID,
			cards[i].Type, cards[i].Front, cards[i].Back, cards[i].Difficulty,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	c := &models.Card{}
	query := `SELECT id, document_id, macro_topic_id, micro_topic_id, type, front, back, difficulty, created_at
		FROM cards WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.DocumentID, &c.MacroTopicID, &c.MicroTopicID, &c.Type, &c.Front, &c.Back, &c.Difficulty, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CardRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Card, error) {
	query := `SELECT id, document_id, macro_topic_id, micro_topic_id, type, front, back, difficulty, created_at
		FROM cards WHERE document_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

// ListAll feeds the in-memory card index at boot.
func (r *CardRepo) ListAll(ctx context.Context) ([]models.Card, error) {
	query := `SELECT id, document_id, macro_topic_id, micro_topic_id, type, front, back, difficulty, created_at
		FROM cards ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

func scanCards(rows pgx.Rows) ([]models.Card, error) {
	var cards []models.Card
	for rows.Next() {
		c := models.Card{}
		err := rows.Scan(
			&c.ID, &c.DocumentID, &c.MacroTopicID, &c.MicroTopicID, &c.Type, &c.Front, &c.Back, &c.Difficulty, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
