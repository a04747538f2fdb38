package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gramgyan/backend/app"
	appmw "github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/utils"
)

const requestTimeout = 120 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// CORS middleware
	origins := deps.Config.Server.AllowedOrigins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: !allowsAnyOrigin(origins),
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/", deps.HealthHandler.HandleHealth)
	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", deps.StatusHandler.HandleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/session", deps.AuthHandler.HandleSession)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
		})

		// Provider-backed routes are throttled per client
		r.Group(func(r chi.Router) {
			r.Use(throttle(deps))

			r.Route("/speech", func(r chi.Router) {
				r.Post("/transcribe", deps.SpeechHandler.HandleTranscribe)
				r.Post("/translate", deps.SpeechHandler.HandleTranslate)
				r.Post("/process", deps.SpeechHandler.HandleProcess)
				r.Post("/process-audio", deps.SpeechHandler.HandleProcess)
				r.Post("/speak", deps.SpeechHandler.HandleSpeak)
				r.Post("/detect", deps.SpeechHandler.HandleDetect)
			})

			r.Route("/advisory", func(r chi.Router) {
				r.Post("/answer", deps.AdvisoryHandler.HandleAnswer)
				r.Post("/safety", deps.AdvisoryHandler.HandleSafety)
				r.Post("/embeddings", deps.AdvisoryHandler.HandleEmbeddings)
				r.Post("/crop-analysis", deps.AdvisoryHandler.HandleCropAnalysis)
			})

			// Knowledge reports (require authentication)
			r.Route("/reports", func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Post("/{id}/process", deps.ReportHandler.HandleProcess)
			})
		})

		// User profile
		r.Route("/users", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/me", deps.UserHandler.HandleGetMe)
			r.Put("/me", deps.UserHandler.HandleUpdateMe)
		})
	})

	// Legacy path used by the mobile client
	r.With(throttle(deps)).Post("/process-audio", deps.SpeechHandler.HandleProcess)

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// throttle returns the per-client limiter, or a pass-through when rate limiting is off.
func throttle(deps *app.Dependencies) func(http.Handler) http.Handler {
	if deps.RateLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return appmw.RateLimit(deps.RateLimiter, deps.Logger)
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
