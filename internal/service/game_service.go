package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"millionaire/internal/database"
	"millionaire/internal/game"
	"millionaire/internal/models"
	"millionaire/internal/repository"
)

var (
	ErrGameAlreadyInProgress = errors.New("a game is already in progress")
	ErrGameNotFound          = errors.New("game not found")
	ErrForbidden             = errors.New("game belongs to another player")
	ErrUserNotFound          = errors.New("user not found")
)

// GameInProgressError carries the ID of the game blocking a new one
type GameInProgressError struct {
	GameID int64
}

func (e *GameInProgressError) Error() string {
	return fmt.Sprintf("game %d is already in progress", e.GameID)
}

// Is makes errors.Is(err, ErrGameAlreadyInProgress) match
func (e *GameInProgressError) Is(target error) bool {
	return target == ErrGameAlreadyInProgress
}

// ResultNotifier is told about every game that reaches a terminal state
type ResultNotifier interface {
	NotifyGameResult(ctx context.Context, user *models.User, result models.GameSummary) error
}

// GameService runs games for players: it loads them from the store,
// serializes moves per game and credits prizes when a game ends
type GameService struct {
	db       *database.DB
	factory  *game.Factory
	games    *repository.GameRepository
	users    *repository.UserRepository
	notifier ResultNotifier
	locks    *keyedMutex // per game
	creates  *keyedMutex // per player
	now      func() time.Time
}

// NewGameService creates a game service. notifier may be nil.
func NewGameService(db *database.DB, factory *game.Factory, games *repository.GameRepository, users *repository.UserRepository, notifier ResultNotifier) *GameService {
	return &GameService{
		db:       db,
		factory:  factory,
		games:    games,
		users:    users,
		notifier: notifier,
		locks:    newKeyedMutex(),
		creates:  newKeyedMutex(),
		now:      time.Now,
	}
}

// CreateGame starts a new game for a player. A player may hold only one
// unfinished game; an abandoned one past its time limit is expired first.
func (s *GameService) CreateGame(ctx context.Context, userID int64) (*game.Game, error) {
	unlock := s.creates.Lock(userID)
	defer unlock()

	activeID, err := s.games.GetActiveGameID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if activeID != 0 {
		active, err := s.GetGame(ctx, userID, activeID)
		if err != nil {
			return nil, err
		}
		if !active.Finished() {
			return nil, &GameInProgressError{GameID: activeID}
		}
	}

	g, err := s.factory.Create(ctx, userID)
	if err != nil {
		return nil, err
	}

	var gameID int64
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		gameID, err = s.games.WithTx(tx).CreateGame(ctx, g.State())
		return err
	})
	if errors.Is(err, repository.ErrActiveGameExists) {
		// lost a race with a create from another process
		return nil, s.inProgress(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	g.AssignID(gameID)
	log.Printf("Game %d started for user %d", gameID, userID)
	return g, nil
}

// inProgress reports the player's active game as a GameInProgressError
func (s *GameService) inProgress(ctx context.Context, userID int64) error {
	activeID, err := s.games.GetActiveGameID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find active game of user %d: %w", userID, err)
	}
	return &GameInProgressError{GameID: activeID}
}

// GetGame loads a player's game, expiring it if its time has run out
func (s *GameService) GetGame(ctx context.Context, userID, gameID int64) (*game.Game, error) {
	return s.mutate(ctx, userID, gameID, func(g *game.Game) error {
		if !g.ExpireIfLate() {
			return errUnchanged
		}
		return nil
	})
}

// AnswerResult reports the outcome of one answer
type AnswerResult struct {
	Correct bool
	Game    *game.Game
}

// Answer submits a letter for the current question
func (s *GameService) Answer(ctx context.Context, userID, gameID int64, letter string) (*AnswerResult, error) {
	var correct bool
	g, err := s.mutate(ctx, userID, gameID, func(g *game.Game) error {
		var err error
		correct, err = g.Answer(letter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AnswerResult{Correct: correct, Game: g}, nil
}

// TakeMoney ends the game with the prize of the last correct answer
func (s *GameService) TakeMoney(ctx context.Context, userID, gameID int64) (*game.Game, int64, error) {
	var prize int64
	g, err := s.mutate(ctx, userID, gameID, func(g *game.Game) error {
		var err error
		prize, err = g.CashOut()
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return g, prize, nil
}

// UseHelp applies a hint to the current question. A game past its time
// limit is expired instead.
func (s *GameService) UseHelp(ctx context.Context, userID, gameID int64, t game.HintType) (*game.Game, game.Hint, error) {
	var hint game.Hint
	g, err := s.mutate(ctx, userID, gameID, func(g *game.Game) error {
		if g.ExpireIfLate() {
			return game.ErrGameNotActive
		}
		var err error
		hint, err = g.ApplyHint(t)
		return err
	})
	if err != nil {
		return nil, game.Hint{}, err
	}
	return g, hint, nil
}

// errUnchanged tells mutate that fn succeeded without touching the game
var errUnchanged = errors.New("game unchanged")

// mutate applies fn to a game and stores the result. The owner is told
// about a game that fn finished once the game lock is released; the
// notification outlives the caller's cancellation.
func (s *GameService) mutate(ctx context.Context, userID, gameID int64, fn func(g *game.Game) error) (*game.Game, error) {
	g, justFinished, err := s.apply(ctx, userID, gameID, fn)
	if justFinished {
		s.notify(context.WithoutCancel(ctx), g)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// apply loads a game under its lock, runs fn and stores the result.
// A game that fn finished is stored even when fn also returns an error,
// and its prize is credited to the owner in the same transaction.
func (s *GameService) apply(ctx context.Context, userID, gameID int64, fn func(g *game.Game) error) (*game.Game, bool, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, userID, gameID)
	if err != nil {
		return nil, false, err
	}

	wasFinished := g.Finished()
	fnErr := fn(g)
	if errors.Is(fnErr, errUnchanged) {
		return g, false, nil
	}
	justFinished := !wasFinished && g.Finished()
	if fnErr != nil && !justFinished {
		return nil, false, fnErr
	}

	state := g.State()
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.games.WithTx(tx).UpdateGame(ctx, state); err != nil {
			return err
		}
		if justFinished && state.Prize > 0 {
			return s.users.WithTx(tx).AddToBalance(ctx, state.OwnerID, state.Prize)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save game %d: %w", gameID, err)
	}

	if justFinished {
		log.Printf("Game %d finished: status=%s prize=%d", gameID, g.Status(), state.Prize)
	}
	return g, justFinished, fnErr
}

func (s *GameService) load(ctx context.Context, userID, gameID int64) (*game.Game, error) {
	state, err := s.games.GetGameState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrGameNotFound
	}
	if state.OwnerID != userID {
		return nil, ErrForbidden
	}
	return s.factory.Restore(*state)
}

func (s *GameService) notify(ctx context.Context, g *game.Game) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.GetUserByID(ctx, g.OwnerID())
	if err != nil || user == nil {
		log.Printf("Warning: no owner to notify for game %d: %v", g.ID(), err)
		return
	}
	if err := s.notifier.NotifyGameResult(ctx, user, Summarize(g)); err != nil {
		log.Printf("Warning: failed to send result of game %d: %v", g.ID(), err)
	}
}

// GetProfile returns a player's account and game history, newest first
func (s *GameService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	games, err := s.games.ListUserGames(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ladderSize := s.factory.LadderSize()
	timeLimit := s.factory.TimeLimit()
	for i := range games {
		g := &games[i]
		g.Status = string(game.DeriveStatus(g.FinishedAt, g.CurrentLevel, ladderSize, g.IsFailed, now.Sub(g.CreatedAt), timeLimit))
	}

	return &models.Profile{User: *user, Games: games}, nil
}

// Summarize condenses a game into a history row
func Summarize(g *game.Game) models.GameSummary {
	return models.GameSummary{
		GameID:       g.ID(),
		Status:       string(g.Status()),
		CreatedAt:    g.CreatedAt(),
		FinishedAt:   g.FinishedAt(),
		CurrentLevel: g.CurrentLevel(),
		IsFailed:     g.IsFailed(),
		Prize:        g.Prize(),
		FiftyFifty:   g.HintUsed(game.HintFiftyFifty),
		AudienceHelp: g.HintUsed(game.HintAudience),
		FriendCall:   g.HintUsed(game.HintFriendCall),
	}
}
