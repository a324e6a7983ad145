package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"millionaire/internal/config"
	"millionaire/internal/database"
	"millionaire/internal/game"
	"millionaire/internal/handlers"
	"millionaire/internal/repository"
	"millionaire/internal/security"
	"millionaire/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepQuestions,
		handlers.StepServices,
	)

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	gameRepo := repository.NewGameRepository(db)

	factory := game.NewFactory(questionRepo, game.WithTimeLimit(cfg.GameTimeLimit))
	checkQuestionPool(ctx, questionRepo, factory.LadderSize())
	startup.CompleteStep(handlers.StepQuestions)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	tokens := security.NewTokenIssuer(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, tokens, emailService, cfg.SessionDuration)
	gameService := service.NewGameService(db, factory, gameRepo, userRepo, emailService)

	limiter := security.NewRateLimiter(cfg.AuthRateLimit, time.Minute, nil)
	go limiter.Run(ctx, 10*time.Minute)
	startup.CompleteStep(handlers.StepServices)

	handler := handlers.NewRouter(handlers.Services{
		Auth:    authService,
		Games:   gameService,
		Startup: startup,
	}, handlers.NewMiddleware(authService, limiter))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpiredSessions(ctx, authService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	startup.MarkReady()

	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}

// checkQuestionPool warns about levels with no questions; games cannot be
// created until every level has at least one
func checkQuestionPool(ctx context.Context, questions *repository.QuestionRepository, ladderSize int) {
	counts, err := questions.CountByLevel(ctx)
	if err != nil {
		log.Printf("Warning: failed to count questions: %v", err)
		return
	}
	for level := 0; level < ladderSize; level++ {
		if counts[level] == 0 {
			log.Printf("Warning: no questions at level %d; import a question pack with cmd/backup", level)
		}
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}
}
