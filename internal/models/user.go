package models

import "time"

// User represents a player account
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Balance      int64 // sum of all prizes won
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// GameSummary is one row of a player's game history
type GameSummary struct {
	GameID       int64
	Status       string
	CreatedAt    time.Time
	FinishedAt   *time.Time
	CurrentLevel int
	IsFailed     bool
	Prize        int64
	FiftyFifty   bool
	AudienceHelp bool
	FriendCall   bool
}

// Profile is a player's public page: account data plus game history
type Profile struct {
	User  User
	Games []GameSummary
}
