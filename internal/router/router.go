package router

import (
	"net/http"

	"colourful-store-api/internal/handler"
	"colourful-store-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	AuthHandler      *handler.AuthHandler
	CartHandler      *handler.CartHandler
	ContainerHandler *handler.ContainerHandler
	OrderHandler     *handler.OrderHandler
	CatalogHandler   *handler.CatalogHandler
	FavoriteHandler  *handler.FavoriteHandler
	AuthMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	if cfg.CatalogHandler != nil {
		r.Get("/api/products", cfg.CatalogHandler.Products)
		r.Get("/api/containers", cfg.CatalogHandler.Containers)
		r.Get("/api/options", cfg.CatalogHandler.Options)
	}

	if cfg.AuthHandler != nil {
		r.Post("/api/auth/register", cfg.AuthHandler.Register)
		r.Post("/api/auth/login", cfg.AuthHandler.Login)
		r.Post("/api/auth/logout", cfg.AuthHandler.Logout)
		r.Get("/api/auth/me", cfg.AuthHandler.Me)
		r.Get("/api/login_status", cfg.AuthHandler.LoginStatus)
	}

	// AUTHENTICATED routes: identity resolves before any store access
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		if cfg.CartHandler != nil {
			r.Route("/api/cart", func(r chi.Router) {
				r.Get("/", cfg.CartHandler.List)
				r.Post("/", cfg.CartHandler.Add)
				r.Post("/sync", cfg.CartHandler.Sync)
				r.Put("/{id}", cfg.CartHandler.UpdateQuantity)
				r.Delete("/{id}", cfg.CartHandler.DeleteLine)
				r.Delete("/product/{product_id}", cfg.CartHandler.DeleteByProduct)
			})
		}

		if cfg.ContainerHandler != nil {
			r.Post("/api/create-container", cfg.ContainerHandler.Create)
		}

		if cfg.OrderHandler != nil {
			// /api/commandes kept as an alias for older mobile builds
			for _, base := range []string{"/api/orders", "/api/commandes"} {
				r.Route(base, func(r chi.Router) {
					r.Get("/", cfg.OrderHandler.List)
					r.Post("/", cfg.OrderHandler.Create)
					r.With(middleware.RequireAdmin).Put("/{id}", cfg.OrderHandler.UpdateStatus)
				})
			}
			// Admin form path used by the back office
			r.With(middleware.RequireAdmin).Post("/api/admin/orders/{id}/status", cfg.OrderHandler.UpdateStatus)
		}

		if cfg.FavoriteHandler != nil {
			r.Route("/api/favorites", func(r chi.Router) {
				r.Get("/", cfg.FavoriteHandler.List)
				r.Post("/", cfg.FavoriteHandler.Toggle)
				r.Post("/sync", cfg.FavoriteHandler.Sync)
				r.Delete("/{product_id}", cfg.FavoriteHandler.Delete)
			})
		}
	})

	return r
}
