package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/techappsUT/social-publisher/internal/middleware"
	"github.com/techappsUT/social-publisher/pkg/response"
)

// setupRouter registers eight HTTP routes under /api/social (spec §6's
// seven plus resubmit), plus a health check, behind the global and per-route middleware stack.
func setupRouter(c *Container) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(c.Logger))
	r.Use(middleware.RecoveryLogger(c.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handleHealth(c))

	r.Route("/api/social", func(r chi.Router) {
		r.Use(middleware.ValidateRequest)
		r.Use(c.AuthMiddleware.RequireAuth)
		r.Use(c.RateLimiter.RateLimitByUser(middleware.DefaultRateLimitConfigs["user"]))

		r.Post("/upload-url", c.Handlers.UploadURL)
		r.Post("/post", c.Handlers.Post)
		r.Get("/uploads", c.Handlers.ListUploads)
		r.Get("/uploads/{id}", c.Handlers.GetUpload)
		r.Get("/uploads/{id}/logs", c.Handlers.GetUploadLogs)
		r.Post("/uploads/{id}/resubmit", c.Handlers.ResubmitUpload)
		r.Get("/accounts", c.Handlers.ListAccounts)
		r.Delete("/accounts/{id}", c.Handlers.DeleteAccount)
	})

	return r
}

func handleHealth(c *Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := c.DB.DB()
		dbHealthy := err == nil
		if dbHealthy {
			dbHealthy = sqlDB.PingContext(r.Context()) == nil
		}

		status := "healthy"
		statusCode := http.StatusOK
		if !dbHealthy {
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}

		response.JSON(w, statusCode, map[string]any{
			"status":   status,
			"database": dbHealthy,
		})
	}
}
