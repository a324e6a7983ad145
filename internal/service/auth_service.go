package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"millionaire/internal/models"
	"millionaire/internal/repository"
	"millionaire/internal/security"
	"millionaire/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthService handles registration, login and session checks
type AuthService struct {
	userRepo        *repository.UserRepository
	tokens          *security.TokenIssuer
	email           *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, email *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tokens:          tokens,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// LoginResult is what a successful login hands back to the client
type LoginResult struct {
	Token   string
	Session *models.Session
	User    *models.User
}

// Register creates a new player account
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			log.Printf("Warning: failed to send welcome email to user %d: %v", user.ID, err)
		}
	}

	return user, nil
}

// Login authenticates a player, opens a session and signs a token for it
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.userRepo.CreateSession(ctx, sessionID, user.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, session.ID, expiresAt)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Session: session, User: user}, nil
}

// ValidateToken checks a signed token against its server-side session and
// returns the player plus the session ID
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, string, error) {
	userID, sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, "", ErrSessionNotFound
	}

	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, "", ErrSessionNotFound
	}
	if session.IsExpired() {
		if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("Warning: failed to delete expired session: %v", err)
		}
		return nil, "", ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, "", ErrSessionNotFound
	}

	return user, sessionID, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.userRepo.DeleteSession(ctx, sessionID)
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Removed %d expired sessions", n)
	}
	return nil
}
