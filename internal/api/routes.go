package api

import (
	"context"
	"net/http"
	"time"

	"nodal/internal/errs"
	"nodal/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Routes builds the full HTTP surface of the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.TraceMiddleware)
	r.Use(s.LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Get("/ws", s.ServeWsHandler)

	if local, ok := s.storage.(*storage.LocalStorage); ok {
		files := &fileHandlers{s: s, local: local}
		r.Put("/files/*", files.PutObject)
		r.Get("/files/*", files.GetObject)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.AuthMiddleware)
		r.Use(TenantMiddleware(s.config.AppHost))

		r.Post("/auth/register", s.RegisterHandler)
		r.Post("/auth/login", s.LoginHandler)
		r.Get("/auth/me", s.GetCurrentUserHandler)
		r.Patch("/auth/me", s.UpdateCurrentUserHandler)

		r.Get("/memos/timeline", s.TimelineHandler)
		r.Get("/memos/search", s.SearchMemosHandler)
		r.Post("/memos/publish", s.PublishMemoHandler)
		r.Get("/memos/{id}", s.GetMemoHandler)
		r.Patch("/memos/{id}", s.PatchMemoHandler)
		r.Delete("/memos/{id}", s.DeleteMemoHandler)

		r.Get("/resources/upload-url", s.UploadURLHandler)
		r.Post("/resources/record-upload", s.RecordUploadHandler)
		r.Get("/resources/user-all", s.ListResourcesHandler)
		r.Get("/resources/{id}", s.GetResourceHandler)

		r.Get("/events", s.GetEventsHandler)
	})

	return r
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  Envelope{data=string}
// @Failure      503  {object}  Envelope
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Error("health check failed", zap.Error(err))
		msg := "database unavailable"
		s.writeEnvelope(w, http.StatusServiceUnavailable, Envelope{
			Error:     &msg,
			TraceID:   TraceIDFromContext(r.Context()),
			Code:      errs.CodeInternalError,
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	s.respond(w, r, http.StatusOK, "ok")
}
