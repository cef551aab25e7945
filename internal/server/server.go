package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/choreloop/choreloop/internal/assignment"
	"github.com/choreloop/choreloop/internal/handler"
	"github.com/choreloop/choreloop/internal/metrics"
	"github.com/choreloop/choreloop/internal/middleware"
	"github.com/choreloop/choreloop/internal/progression"
	"github.com/choreloop/choreloop/internal/rotation"
	"github.com/choreloop/choreloop/internal/store"
	ws "github.com/choreloop/choreloop/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	homeH       *handler.HomeHandler
	memberH     *handler.MemberHandler
	taskH       *handler.TaskHandler
	assignmentH *handler.AssignmentHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	homeStore := store.NewHomeStore(db)
	memberStore := store.NewMemberStore(db)
	taskStore := store.NewTaskStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	cancellationStore := store.NewCancellationStore(db)
	achievementStore := store.NewAchievementStore(db)
	exchangeStore := store.NewExchangeStore(db)
	auditStore := store.NewAuditStore(db)

	metricsEngine := metrics.NewEngine(homeStore, memberStore, assignmentStore)
	rotationEngine := rotation.NewEngine(taskStore, memberStore, assignmentStore, logger.With("component", "rotation"))
	rotationManager := rotation.NewManager(homeStore, assignmentStore, auditStore, rotationEngine, logger.With("component", "rotation"))
	progressionEngine := progression.NewEngine(memberStore, achievementStore, metricsEngine, logger.With("component", "progression"))
	assignmentService := assignment.NewService(
		homeStore, memberStore, taskStore, assignmentStore,
		cancellationStore, exchangeStore, progressionEngine,
		logger.With("component", "assignment"),
	)

	return &Server{
		db:          db,
		hub:         hub,
		homeH:       handler.NewHomeHandler(homeStore, auditStore, metricsEngine, rotationManager, hub, logger.With("component", "home")),
		memberH:     handler.NewMemberHandler(homeStore, memberStore, progressionEngine, hub, logger.With("component", "member")),
		taskH:       handler.NewTaskHandler(homeStore, taskStore, hub, logger.With("component", "task")),
		assignmentH: handler.NewAssignmentHandler(assignmentService, homeStore, memberStore, assignmentStore, hub, logger.With("component", "assignment")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Home routes
	mux.HandleFunc("POST /api/homes", s.homeH.Create)
	mux.HandleFunc("GET /api/homes/{id}", s.homeH.Get)
	mux.HandleFunc("PUT /api/homes/{id}", s.homeH.Update)
	mux.HandleFunc("GET /api/homes/{id}/metrics", s.homeH.Metrics)
	mux.HandleFunc("GET /api/homes/{id}/audit", s.homeH.Audit)
	mux.HandleFunc("POST /api/homes/{id}/rollover", s.rateLimited(s.homeH.Rollover))

	// Member routes
	mux.HandleFunc("POST /api/homes/{id}/members", s.memberH.Create)
	mux.HandleFunc("GET /api/homes/{id}/members", s.memberH.List)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("GET /api/members/{id}/progress", s.memberH.Progress)

	// Task routes
	mux.HandleFunc("POST /api/homes/{id}/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/homes/{id}/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Assignment lifecycle routes
	mux.HandleFunc("GET /api/homes/{id}/assignments", s.assignmentH.ListCurrent)
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.assignmentH.Complete)
	mux.HandleFunc("POST /api/assignments/{id}/cancel", s.assignmentH.Cancel)
	mux.HandleFunc("GET /api/homes/{id}/reclaimable", s.assignmentH.Reclaimable)
	mux.HandleFunc("POST /api/reclaim", s.assignmentH.Reclaim)
	mux.HandleFunc("POST /api/exchanges", s.assignmentH.OpenExchange)
	mux.HandleFunc("POST /api/exchanges/{id}/respond", s.assignmentH.RespondExchange)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited caps per-client invocations of expensive mutation endpoints.
// Rollover is idempotent but not free: it rewrites the next cycle each call.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
