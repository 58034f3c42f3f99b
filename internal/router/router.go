package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ankora-backend/internal/handlers"
	"ankora-backend/internal/middleware"
	"ankora-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	studyHandler *handlers.StudyHandler,
	cardHandler *handlers.CardHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Answer grading calls out to the LLM; keep submissions per learner in check.
	answerLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study Routes ────
		r.Route("/study", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/next", studyHandler.NextCard)

			r.Group(func(r chi.Router) {
				r.Use(answerLimiter.Middleware)
				r.Post("/answer", studyHandler.SubmitAnswer)
				r.Post("/score", studyHandler.RecordScore)
			})
		})

		// ──── Card & Document Routes ────
		r.Route("/cards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/import", cardHandler.Import)
			r.Get("/{id}", cardHandler.GetCard)
			r.Get("/{id}/state", studyHandler.GetCardState)
			r.Get("/{id}/history", studyHandler.GetHistory)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", cardHandler.ListDocuments)
			r.Get("/{id}/cards", cardHandler.ListCards)
		})

		// ──── Progress & Metrics Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/progress", studyHandler.GetProgress)
			r.Get("/metrics/srs", studyHandler.GetMetrics)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", cardHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
