package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"millionaire/internal/database"
	"millionaire/internal/game"
	"millionaire/internal/models"
	"millionaire/internal/repository"
)

// testClock is a settable wall clock shared by games and the service
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []models.GameSummary

	// onNotify, when set, runs before the result is recorded
	onNotify func(ctx context.Context, result models.GameSummary)
}

func (n *recordingNotifier) NotifyGameResult(ctx context.Context, _ *models.User, result models.GameSummary) error {
	if n.onNotify != nil {
		n.onNotify(ctx, result)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return nil
}

type testEnv struct {
	db        *database.DB
	clock     *testClock
	notifier  *recordingNotifier
	questions *repository.QuestionRepository
	users     *repository.UserRepository
	games     *repository.GameRepository
	svc       *GameService
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:        db,
		clock:     &testClock{now: time.Now().UTC()},
		notifier:  &recordingNotifier{},
		questions: repository.NewQuestionRepository(db),
		users:     repository.NewUserRepository(db),
		games:     repository.NewGameRepository(db),
	}
	seedPool(t, env.questions)

	factory := game.NewFactory(env.questions, game.WithClock(env.clock.Now))
	env.svc = NewGameService(db, factory, env.games, env.users, env.notifier)
	env.svc.now = env.clock.Now
	return env
}

// seedPool adds two questions per level; the correct answer is always b
func seedPool(t *testing.T, repo *repository.QuestionRepository) {
	t.Helper()
	var questions []models.Question
	for level := 0; level < game.DefaultPrizeTable.Len(); level++ {
		for i := 0; i < 2; i++ {
			questions = append(questions, models.Question{
				Level:         level,
				Text:          fmt.Sprintf("Level %d question %d?", level, i),
				Answers:       map[string]string{"a": "one", "b": "two", "c": "three", "d": "four"},
				CorrectAnswer: "b",
			})
		}
	}
	if _, err := repo.ImportQuestions(context.Background(), questions); err != nil {
		t.Fatalf("ImportQuestions() error = %v", err)
	}
}

func (env *testEnv) newPlayer(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := env.users.CreateUser(context.Background(), email, "hash", "Player")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func (env *testEnv) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	u, err := env.users.GetUserByID(context.Background(), userID)
	if err != nil || u == nil {
		t.Fatalf("GetUserByID() = %v, %v", u, err)
	}
	return u.Balance
}

func (env *testEnv) climb(t *testing.T, userID, gameID int64, rungs int) {
	t.Helper()
	for i := 0; i < rungs; i++ {
		res, err := env.svc.Answer(context.Background(), userID, gameID, "b")
		if err != nil {
			t.Fatalf("Answer() error = %v", err)
		}
		if !res.Correct {
			t.Fatalf("Answer() at rung %d was judged wrong", i)
		}
	}
}
