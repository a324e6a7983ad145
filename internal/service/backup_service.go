package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"millionaire/internal/game"
	"millionaire/internal/models"
	"millionaire/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the complete backup document. Rows reference each other by
// natural keys so a backup can be loaded into any database.
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Questions  []QuestionBackup `json:"questions"`
	Users      []UserBackup     `json:"users"`
	Games      []GameBackup     `json:"games"`
}

// QuestionBackup is a pool question; level and text identify it
type QuestionBackup struct {
	Level         int               `json:"level"`
	Text          string            `json:"text"`
	Answers       map[string]string `json:"answers"`
	CorrectAnswer string            `json:"correct_answer"`
}

// UserBackup is a player account; email identifies it
type UserBackup struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Balance      int64     `json:"balance"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GameBackup is a game with its ladder
type GameBackup struct {
	UserEmail    string       `json:"user_email"`
	CurrentLevel int          `json:"current_level"`
	IsFailed     bool         `json:"is_failed"`
	Prize        int64        `json:"prize"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at"`
	Ladder       []RungBackup `json:"ladder"`
}

// RungBackup is one ladder position
type RungBackup struct {
	Level        int                         `json:"level"`
	QuestionText string                      `json:"question_text"`
	Hints        map[game.HintType]game.Hint `json:"hints,omitempty"`
}

// ImportStats counts what an import added
type ImportStats struct {
	Questions int
	Users     int
	Games     int
	Skipped   int
}

// BackupService exports and imports the question pool, players and games
type BackupService struct {
	questions  *repository.QuestionRepository
	users      *repository.UserRepository
	games      *repository.GameRepository
	ladderSize int
}

// NewBackupService creates a new backup service
func NewBackupService(questions *repository.QuestionRepository, users *repository.UserRepository, games *repository.GameRepository, ladderSize int) *BackupService {
	return &BackupService{questions: questions, users: users, games: games, ladderSize: ladderSize}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportQuestions(ctx, backup); err != nil {
		return fmt.Errorf("failed to export questions: %w", err)
	}
	emails, err := s.exportUsers(ctx, backup)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportGames(ctx, backup, emails); err != nil {
		return fmt.Errorf("failed to export games: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d questions, %d users, %d games",
		len(backup.Questions), len(backup.Users), len(backup.Games))
	return nil
}

func (s *BackupService) exportQuestions(ctx context.Context, backup *BackupData) error {
	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return err
	}
	for _, q := range questions {
		backup.Questions = append(backup.Questions, QuestionBackup{
			Level:         q.Level,
			Text:          q.Text,
			Answers:       q.Answers,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) (map[int64]string, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	emails := make(map[int64]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
		backup.Users = append(backup.Users, UserBackup{
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Name:         u.Name,
			Balance:      u.Balance,
			IsAdmin:      u.IsAdmin,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}
	return emails, nil
}

func (s *BackupService) exportGames(ctx context.Context, backup *BackupData, emails map[int64]string) error {
	ids, err := s.games.ListGameIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		state, err := s.games.GetGameState(ctx, id)
		if err != nil {
			return err
		}
		if state == nil {
			continue
		}
		gb := GameBackup{
			UserEmail:    emails[state.OwnerID],
			CurrentLevel: state.CurrentLevel,
			IsFailed:     state.IsFailed,
			Prize:        state.Prize,
			CreatedAt:    state.CreatedAt,
			FinishedAt:   state.FinishedAt,
		}
		for _, gq := range state.Questions {
			rung := RungBackup{Level: gq.Level, QuestionText: gq.Question.Text}
			if len(gq.Hints) > 0 {
				rung.Hints = gq.Hints
			}
			gb.Ladder = append(gb.Ladder, rung)
		}
		backup.Games = append(backup.Games, gb)
	}
	return nil
}

// Import loads a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader loads a backup. Questions and players that already exist
// are skipped, and so are the games of skipped players, so importing the same
// backup twice adds nothing the second time. Balances are taken from the
// backup as they stand; imported games are not credited again.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	stats := &ImportStats{}

	n, err := s.importQuestions(ctx, backup.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to import questions: %w", err)
	}
	stats.Questions = n

	userIDs, err := s.importUsers(ctx, backup.Users, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to import users: %w", err)
	}

	if err := s.importGames(ctx, backup.Games, userIDs, stats); err != nil {
		return nil, fmt.Errorf("failed to import games: %w", err)
	}

	log.Printf("Imported: %d questions, %d users, %d games, %d skipped",
		stats.Questions, stats.Users, stats.Games, stats.Skipped)
	return stats, nil
}

// ImportQuestionPack loads a JSON array of questions into the pool
func (s *BackupService) ImportQuestionPack(ctx context.Context, r io.Reader) (int, error) {
	var pack []QuestionBackup
	if err := json.NewDecoder(r).Decode(&pack); err != nil {
		return 0, fmt.Errorf("failed to decode question pack: %w", err)
	}
	return s.importQuestions(ctx, pack)
}

func (s *BackupService) importQuestions(ctx context.Context, backups []QuestionBackup) (int, error) {
	questions := make([]models.Question, 0, len(backups))
	for i, qb := range backups {
		q := models.Question{
			Level:         qb.Level,
			Text:          qb.Text,
			Answers:       qb.Answers,
			CorrectAnswer: models.NormalizeLetter(qb.CorrectAnswer),
		}
		if err := q.Validate(s.ladderSize); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return s.questions.ImportQuestions(ctx, questions)
}

// importUsers returns the new IDs of the players it created, by email
func (s *BackupService) importUsers(ctx context.Context, backups []UserBackup, stats *ImportStats) (map[string]int64, error) {
	ids := make(map[string]int64, len(backups))
	for _, ub := range backups {
		existing, err := s.users.GetUserByEmail(ctx, ub.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		u, err := s.users.ImportUser(ctx, models.User{
			Email:        ub.Email,
			PasswordHash: ub.PasswordHash,
			Name:         ub.Name,
			Balance:      ub.Balance,
			IsAdmin:      ub.IsAdmin,
			CreatedAt:    ub.CreatedAt,
			UpdatedAt:    ub.UpdatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import user %s: %w", ub.Email, err)
		}
		ids[ub.Email] = u.ID
		stats.Users++
	}
	return ids, nil
}

func (s *BackupService) importGames(ctx context.Context, backups []GameBackup, userIDs map[string]int64, stats *ImportStats) error {
	for i, gb := range backups {
		ownerID, ok := userIDs[gb.UserEmail]
		if !ok {
			log.Printf("Skipping game %d: player %q was not imported", i, gb.UserEmail)
			stats.Skipped++
			continue
		}

		state := game.State{
			OwnerID:      ownerID,
			CurrentLevel: gb.CurrentLevel,
			IsFailed:     gb.IsFailed,
			Prize:        gb.Prize,
			CreatedAt:    gb.CreatedAt,
			FinishedAt:   gb.FinishedAt,
		}
		for _, rung := range gb.Ladder {
			q, err := s.questions.FindQuestion(ctx, rung.Level, rung.QuestionText)
			if err != nil {
				return err
			}
			if q == nil {
				return fmt.Errorf("game %d: no question %q at level %d", i, rung.QuestionText, rung.Level)
			}
			state.Questions = append(state.Questions, game.GameQuestion{Level: rung.Level, Question: *q, Hints: rung.Hints})
		}

		if _, err := s.games.CreateGame(ctx, state); err != nil {
			if errors.Is(err, repository.ErrActiveGameExists) {
				log.Printf("Skipping game %d: %s already has an unfinished game", i, gb.UserEmail)
				stats.Skipped++
				continue
			}
			return err
		}
		stats.Games++
	}
	return nil
}
