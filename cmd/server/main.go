package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ankora-backend/internal/config"
	"ankora-backend/internal/database"
	"ankora-backend/internal/handlers"
	"ankora-backend/internal/middleware"
	"ankora-backend/internal/repository"
	"ankora-backend/internal/router"
	"ankora-backend/internal/services"
	"ankora-backend/internal/srs"
	"ankora-backend/internal/websocket"
	"ankora-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Ankora Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	cardRepo := repository.NewCardRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Build the Scheduling Engine ────
	params := srs.NewDefaultParams()
	params.DefaultEase = cfg.DefaultEase
	params.EasePenalty = cfg.EasePenalty
	params.EaseFloor = cfg.EaseFloor
	params.MasteryWeight = cfg.MasteryWeight
	params.JitterAmplitude = cfg.JitterAmplitude
	params.TopicStreakCap = cfg.TopicStreakCap
	params.ExcludeWindow = cfg.ExcludeWindow
	params.DueSoonDays = cfg.DueSoonDays
	params.IncludeUnseen = cfg.IncludeUnseen

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer bootCancel()

	allCards, err := cardRepo.ListAll(bootCtx)
	if err != nil {
		log.Fatalf("✗ Failed to load cards: %v", err)
	}
	cardIndex := srs.NewCardIndex()
	cardIndex.Add(allCards...)

	engine := srs.NewEngine(cardIndex, reviewRepo, params)

	histories, err := reviewRepo.ListAllGrouped(bootCtx)
	if err != nil {
		log.Fatalf("✗ Failed to load review ledger: %v", err)
	}
	for cardID, events := range histories {
		if err := engine.LoadHistory(cardID, events); err != nil {
			log.Fatalf("✗ Review ledger for card %s is corrupt: %v", cardID, err)
		}
	}
	log.Printf("✓ Scheduling engine ready (%d cards, %d histories replayed)", cardIndex.Len(), len(histories))

	// ──── Step 6: Initialize Gemini Evaluator ────
	evaluator, err := services.NewGeminiEvaluator(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer evaluator.Close()
	log.Println("✓ Gemini Flash evaluator initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessions := srs.NewSessions(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	studyService := services.NewStudyService(engine, sessions, evaluator, redisClients.Queue)

	// ──── Initialize Handlers ────
	studyHandler := handlers.NewStudyHandler(studyService)
	cardHandler := handlers.NewCardHandler(cardRepo, jobRepo, redisClients.Queue)

	// ──── Step 7: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		studyService,
		jobRepo,
		cardRepo,
		engine,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		studyHandler,
		cardHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Ankora Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
