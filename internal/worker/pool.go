package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ankora-backend/internal/models"
	"ankora-backend/internal/repository"
	"ankora-backend/internal/services"
	"ankora-backend/internal/srs"
)

// Pool runs card-import jobs pulled from the Redis queue. Imports write the
// document and its cards to Postgres, then register the cards with the
// in-memory scheduling engine so they become selectable without a restart.
type Pool struct {
	redis       *redis.Client
	study       *services.StudyService
	jobRepo     *repository.JobRepo
	cardRepo    *repository.CardRepo
	engine      *srs.Engine
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	study *services.StudyService,
	jobRepo *repository.JobRepo,
	cardRepo *repository.CardRepo,
	engine *srs.Engine,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		study:       study,
		jobRepo:     jobRepo,
		cardRepo:    cardRepo,
		engine:      engine,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:card-import",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case models.JobTypeCardImport:
			processErr = p.processCardImport(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processCardImport(ctx context.Context, job *models.Job) error {
	var req models.ImportCardsRequest
	if err := json.Unmarshal(job.PayloadJSON, &req); err != nil {
		return fmt.Errorf("failed to parse import payload: %w", err)
	}
	if len(req.Cards) == 0 {
		return fmt.Errorf("import payload has no cards")
	}

	doc := &models.Document{
		ID:        job.ReferenceID,
		Title:     req.Title,
		CardCount: len(req.Cards),
	}
	if err := p.cardRepo.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	cards := make([]models.Card, len(req.Cards))
	for i, c := range req.Cards {
		cards[i] = models.Card{
			DocumentID:   doc.ID,
			MacroTopicID: c.MacroTopicID,
			MicroTopicID: c.MicroTopicID,
			Type:         models.CardType(c.Type),
			Front:        c.Front,
			Back:         c.Back,
			Difficulty:   c.Difficulty,
		}
	}

	if err := p.cardRepo.CreateCards(ctx, cards); err != nil {
		return fmt.Errorf("failed to store cards: %w", err)
	}

	// Cards become eligible for selection immediately
	p.engine.Cards().Add(cards...)

	return nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	var req models.ImportCardsRequest
	json.Unmarshal(job.PayloadJSON, &req)

	p.study.PublishUpdate(ctx, job.LearnerID, models.WSMessage{
		Type: "import_completed",
		Payload: models.ImportCompleted{
			JobID:      job.ID,
			DocumentID: job.ReferenceID,
			CardCount:  len(req.Cards),
		},
	})
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, processErr error) {
	log.Printf("Job %s failed: %v", job.ID, processErr)

	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, processErr.Error())

	p.study.PublishUpdate(ctx, job.LearnerID, models.WSMessage{
		Type: "import_failed",
		Payload: models.ImportFailed{
			JobID:        job.ID,
			ErrorMessage: processErr.Error(),
		},
	})
}
