package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"millionaire/internal/database"
	"millionaire/internal/game"
	"millionaire/internal/models"
)

// ErrActiveGameExists is returned when a second unfinished game is stored
// for the same player
var ErrActiveGameExists = errors.New("player already has an unfinished game")

// GameRepository persists games and their ladders
type GameRepository struct {
	db database.DBTX
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.DBTX) *GameRepository {
	return &GameRepository{db: db}
}

// WithTx returns a repository that runs its queries inside tx
func (r *GameRepository) WithTx(tx database.DBTX) *GameRepository {
	return &GameRepository{db: tx}
}

// CreateGame inserts a new game and its ladder, returning the game ID
func (r *GameRepository) CreateGame(ctx context.Context, s game.State) (int64, error) {
	query := `
		INSERT INTO games (user_id, current_level, is_failed, prize, fifty_fifty_used, audience_help_used, friend_call_used, created_at, finished_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	used := hintFlags(s.Questions)
	gameID, err := r.db.ExecReturningID(ctx, query,
		s.OwnerID, s.CurrentLevel, s.IsFailed, s.Prize,
		used[game.HintFiftyFifty], used[game.HintAudience], used[game.HintFriendCall],
		s.CreatedAt.UTC(), nullTime(s.FinishedAt), time.Now().UTC(),
	)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return 0, ErrActiveGameExists
		}
		return 0, fmt.Errorf("failed to create game: %w", err)
	}

	for _, gq := range s.Questions {
		help, err := encodeHints(gq.Hints)
		if err != nil {
			return 0, err
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO game_questions (game_id, question_id, level, help_hash) VALUES (?, ?, ?, ?)`,
			gameID, gq.Question.ID, gq.Level, help,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to create game question %d: %w", gq.Level, err)
		}
	}

	return gameID, nil
}

// UpdateGame writes the progress, outcome and hints of a game
func (r *GameRepository) UpdateGame(ctx context.Context, s game.State) error {
	query := `
		UPDATE games
		SET current_level = ?, is_failed = ?, prize = ?,
		    fifty_fifty_used = ?, audience_help_used = ?, friend_call_used = ?,
		    finished_at = ?, updated_at = ?
		WHERE id = ?
	`
	used := hintFlags(s.Questions)
	result, err := r.db.ExecContext(ctx, query,
		s.CurrentLevel, s.IsFailed, s.Prize,
		used[game.HintFiftyFifty], used[game.HintAudience], used[game.HintFriendCall],
		nullTime(s.FinishedAt), time.Now().UTC(), s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update game %d: %w", s.ID, sql.ErrNoRows)
	}

	for _, gq := range s.Questions {
		if len(gq.Hints) == 0 {
			continue
		}
		help, err := encodeHints(gq.Hints)
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx,
			`UPDATE game_questions SET help_hash = ? WHERE game_id = ? AND level = ?`,
			help, s.ID, gq.Level,
		)
		if err != nil {
			return fmt.Errorf("failed to update game question %d: %w", gq.Level, err)
		}
	}

	return nil
}

// GetGameState loads a game with its ladder. It returns nil when the game
// does not exist.
func (r *GameRepository) GetGameState(ctx context.Context, gameID int64) (*game.State, error) {
	query := `
		SELECT id, user_id, current_level, is_failed, prize, created_at, finished_at
		FROM games
		WHERE id = ?
	`
	s := &game.State{}
	var finishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, gameID).Scan(
		&s.ID,
		&s.OwnerID,
		&s.CurrentLevel,
		&s.IsFailed,
		&s.Prize,
		&s.CreatedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT q.id, q.level, q.text, q.answer_a, q.answer_b, q.answer_c, q.answer_d, q.correct_answer,
		       q.created_at, q.updated_at, gq.level, gq.help_hash
		FROM game_questions gq
		JOIN questions q ON q.id = gq.question_id
		WHERE gq.game_id = ?
		ORDER BY gq.level
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gq game.GameQuestion
		var help string
		q, err := scanQuestion(rows, &gq.Level, &help)
		if err != nil {
			return nil, err
		}
		gq.Question = q
		if gq.Hints, err = decodeHints(help); err != nil {
			return nil, fmt.Errorf("game %d level %d: %w", gameID, gq.Level, err)
		}
		s.Questions = append(s.Questions, gq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// GetActiveGameID returns the unfinished game of a player, or 0
func (r *GameRepository) GetActiveGameID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM games WHERE user_id = ? AND finished_at IS NULL ORDER BY id DESC LIMIT 1`,
		userID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get active game: %w", err)
	}
	return id, nil
}

// ListUserGames returns a player's games, newest first, without ladders.
// Status is left for the caller to derive.
func (r *GameRepository) ListUserGames(ctx context.Context, userID int64) ([]models.GameSummary, error) {
	query := `
		SELECT id, current_level, is_failed, prize, fifty_fifty_used, audience_help_used, friend_call_used, created_at, finished_at
		FROM games
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []models.GameSummary
	for rows.Next() {
		var g models.GameSummary
		var isFailed bool
		var finishedAt sql.NullTime
		err := rows.Scan(
			&g.GameID,
			&g.CurrentLevel,
			&isFailed,
			&g.Prize,
			&g.FiftyFifty,
			&g.AudienceHelp,
			&g.FriendCall,
			&g.CreatedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, err
		}
		if finishedAt.Valid {
			g.FinishedAt = &finishedAt.Time
		}
		g.IsFailed = isFailed
		games = append(games, g)
	}

	return games, rows.Err()
}

// ListGameIDs returns every game ID in creation order
func (r *GameRepository) ListGameIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM games ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func hintFlags(questions []game.GameQuestion) map[game.HintType]bool {
	used := make(map[game.HintType]bool, len(game.HintTypes))
	for _, gq := range questions {
		for t := range gq.Hints {
			used[t] = true
		}
	}
	return used
}

func encodeHints(hints map[game.HintType]game.Hint) (string, error) {
	if len(hints) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(hints)
	if err != nil {
		return "", fmt.Errorf("failed to encode hints: %w", err)
	}
	return string(data), nil
}

func decodeHints(data string) (map[game.HintType]game.Hint, error) {
	hints := map[game.HintType]game.Hint{}
	if data == "" {
		return hints, nil
	}
	if err := json.Unmarshal([]byte(data), &hints); err != nil {
		return nil, fmt.Errorf("failed to decode hints: %w", err)
	}
	return hints, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
