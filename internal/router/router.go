package router

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadestock/api/internal/auth"
	"github.com/shadestock/api/internal/config"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/handler"
	mw "github.com/shadestock/api/internal/middleware"
	"github.com/shadestock/api/internal/service"
	"github.com/shadestock/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and per-action policy middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, sessions auth.SessionStore) (chi.Router, error) {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	gate := auth.NewGate(queries, sessions)
	authHandler := handler.NewAuthHandler(gate, cfg.JWTSecret)

	// Auth routes (public, rate limited per client IP)
	loginLimit, err := mw.RateLimit(cfg.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	r.Group(func(r chi.Router) {
		r.Use(loginLimit)
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		authHandler.RegisterRoutes(r)
	})

	// WebSocket route (handles auth internally via query param, no timeout)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, sessions, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(mw.Authenticate(cfg.JWTSecret, sessions))

		authHandler.RegisterSessionRoutes(r)

		// Users (Admin only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAction(enum.ActionManageUsers))
			userHandler := handler.NewUserHandler(queries, gate, hub)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Orders
		newOrderStore := func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}
		orderService := service.NewOrderService(pool, newOrderStore)
		orderHandler := handler.NewOrderHandler(orderService)
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Clients
		clientHandler := handler.NewClientHandler(queries)
		r.Route("/clients", func(r chi.Router) {
			clientHandler.RegisterRoutes(r)
			orderHandler.RegisterClientRoutes(r)
		})

		// Items, shades and catalogue
		itemHandler := handler.NewItemHandler(queries)
		r.Route("/items", itemHandler.RegisterRoutes)
		handler.NewCatalogueHandler(queries).RegisterRoutes(r)
	})

	log.Println("Router initialized with all handlers")
	return r, nil
}
