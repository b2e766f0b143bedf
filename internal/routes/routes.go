package routes

import (
	"log/slog"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/handlers"
	"github.com/BradenHooton/useradmin/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Limits configures the rate limits applied to individual route groups.
type Limits struct {
	Login middleware.RateLimitConfig
	Batch middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	viewHandler *handlers.ViewHandler,
	authHandler *handlers.AuthHandler,
	health handlers.HealthChecker,
	tokenManager *auth.TokenManager,
	userRepo auth.UserRepository,
	limits Limits,
	logger *slog.Logger,
) {
	// Public routes - no authentication required
	router.Get("/health", handlers.Health(health))
	router.With(middleware.RateLimitByIP(limits.Login)).Post("/auth/token", authHandler.Login)

	// Administrator routes
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))
		r.Use(auth.RequireAdmin(userRepo, logger))

		r.Get("/virtual-clusters", userHandler.ListVirtualClusters)

		r.Post("/users", userHandler.CreateUser)
		r.Get("/users/{username}", userHandler.GetUser)
		r.Patch("/users/{username}", userHandler.UpdateUser)
		r.Delete("/users/{username}", userHandler.DeleteUser)
		r.Post("/users/{username}/groups/sync", userHandler.SyncGroups)

		r.Post("/views", viewHandler.Create)
		r.Route("/views/{id}", func(r chi.Router) {
			r.Get("/", viewHandler.Get)
			r.Delete("/", viewHandler.Delete)
			r.Put("/filter", viewHandler.SetFilter)
			r.Put("/ordering", viewHandler.SetOrdering)
			r.Put("/pagination", viewHandler.SetPagination)
			r.Post("/selection", viewHandler.UpdateSelection)
			r.Post("/refresh", viewHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByActor(limits.Batch))
				r.Post("/actions/remove", viewHandler.RemoveSelected)
				r.Post("/actions/password", viewHandler.UpdatePasswordOfSelected)
				r.Post("/actions/virtual-clusters", viewHandler.UpdateVirtualClustersOfSelected)
			})
		})
	})
}
