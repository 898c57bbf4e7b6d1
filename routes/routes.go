package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/thesis-workflow/app"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/utils"
)

// clientAddress rewrites RemoteAddr from X-Forwarded-For / X-Real-IP only
// behind a trusted proxy. Otherwise the headers are client controlled and
// would let a caller pick a fresh login throttle key per request.
func clientAddress(trustProxy bool) func(http.Handler) http.Handler {
	if trustProxy {
		return middleware.RealIP
	}
	return func(next http.Handler) http.Handler { return next }
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(clientAddress(deps.Config.Server.TrustProxy))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	auth := deps.AuthMiddleware.RequireAuth
	guard := deps.PolicyMiddleware
	ingest := deps.MultipartIngest.Handler

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.With(auth).Get("/me", deps.AuthHandler.HandleMe)
			r.With(auth).Put("/password", deps.AuthHandler.HandleChangePassword)
		})

		// Account administration
		r.Route("/users", func(r chi.Router) {
			r.Use(auth)
			r.Use(guard.RequireRole(policy.RoleAdmin))
			r.Post("/", deps.UserHandler.HandleCreate)
			r.Get("/", deps.UserHandler.HandleList)
			r.Delete("/{id}", deps.UserHandler.HandleDelete)
		})

		r.Route("/proposals", func(r chi.Router) {
			r.With(ingest, auth, guard.RequireRole(policy.RoleMahasiswa)).Post("/", deps.ProposalHandler.HandleSubmit)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.With(guard.RequireRole(policy.RoleMahasiswa)).Get("/mine", deps.ProposalHandler.HandleListMine)
				r.With(guard.RequireAnyRole(policy.RoleDosen, policy.RoleKoordinator)).Get("/", deps.ProposalHandler.HandleList)
				r.With(guard.RequireRole(policy.RoleDosen)).Put("/{id}/review", deps.ProposalHandler.HandleReview)
				r.With(guard.RequireRole(policy.RoleKoordinator)).Put("/{id}/advisor", deps.ProposalHandler.HandleAssignAdvisor)
			})
		})

		r.Route("/guidances", func(r chi.Router) {
			r.With(ingest, auth, guard.RequireRole(policy.RoleMahasiswa)).Post("/", deps.GuidanceHandler.HandleSubmit)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.With(guard.RequireRole(policy.RoleMahasiswa)).Get("/mine", deps.GuidanceHandler.HandleListMine)
				r.With(guard.RequireRole(policy.RoleDosen)).Get("/", deps.GuidanceHandler.HandleList)
				r.With(guard.RequireRole(policy.RoleDosen)).Put("/{id}/feedback", deps.GuidanceHandler.HandleFeedback)
			})
		})

		r.Route("/exams", func(r chi.Router) {
			r.Use(auth)
			r.With(guard.KaprodiOnly()).Post("/", deps.ExamHandler.HandleSchedule)
			r.With(guard.RequireAnyRole(policy.RoleKoordinator, policy.RoleKaprodi)).Get("/", deps.ExamHandler.HandleList)
			r.With(guard.RequireRole(policy.RolePenguji)).Get("/mine", deps.ExamHandler.HandleListMine)
			r.With(guard.RequireRole(policy.RolePenguji)).Put("/{id}/grade", deps.ExamHandler.HandleGrade)
		})

		r.With(auth, guard.RequireRole(policy.RoleAdmin)).Get("/activity", deps.ActivityHandler.HandleList)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
