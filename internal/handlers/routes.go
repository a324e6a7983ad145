package handlers

import (
	"net/http"

	"millionaire/internal/service"
)

// Services are the dependencies of the HTTP surface
type Services struct {
	Auth    *service.AuthService
	Games   *service.GameService
	Startup *StartupStatus
}

// NewRouter registers every route. The returned handler logs requests.
func NewRouter(svc Services, middleware *Middleware) http.Handler {
	authHandler := NewAuthHandler(svc.Auth)
	gameHandler := NewGameHandler(svc.Games)
	userHandler := NewUserHandler(svc.Games)

	mux := http.NewServeMux()

	if svc.Startup != nil {
		mux.Handle("GET /healthz", svc.Startup)
	}

	// Auth routes
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /logout", middleware.RequireAuth(authHandler.Logout))

	// Game routes
	mux.HandleFunc("POST /games", middleware.RequireAuth(gameHandler.Create))
	mux.HandleFunc("GET /games/{id}", middleware.RequireAuth(gameHandler.Show))
	mux.HandleFunc("PUT /games/{id}/answer", middleware.RequireAuth(gameHandler.Answer))
	mux.HandleFunc("PUT /games/{id}/take-money", middleware.RequireAuth(gameHandler.TakeMoney))
	mux.HandleFunc("PUT /games/{id}/help", middleware.RequireAuth(gameHandler.Help))

	// Profiles
	mux.HandleFunc("GET /me", middleware.RequireAuth(userHandler.Me))
	mux.HandleFunc("GET /users/{id}", middleware.RequireAuth(userHandler.Show))

	return Logging(mux)
}
