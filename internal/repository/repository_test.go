package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"millionaire/internal/database"
	"millionaire/internal/game"
	"millionaire/internal/models"
)

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

func seedQuestions(t *testing.T, repo *QuestionRepository, perLevel int) {
	t.Helper()
	var questions []models.Question
	for level := 0; level < 15; level++ {
		for i := 0; i < perLevel; i++ {
			questions = append(questions, models.Question{
				Level:         level,
				Text:          fmt.Sprintf("Level %d question %d?", level, i),
				Answers:       map[string]string{"a": "one", "b": "two", "c": "three", "d": "four"},
				CorrectAnswer: "b",
			})
		}
	}
	n, err := repo.ImportQuestions(context.Background(), questions)
	if err != nil {
		t.Fatalf("ImportQuestions() error = %v", err)
	}
	if n != len(questions) {
		t.Fatalf("ImportQuestions() inserted %d, want %d", n, len(questions))
	}
}

func createUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), email, "hash", "Player")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestQuestionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	seedQuestions(t, repo, 2)

	qs, err := repo.QuestionsAt(ctx, 7)
	if err != nil {
		t.Fatalf("QuestionsAt() error = %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("QuestionsAt(7) returned %d questions, want 2", len(qs))
	}
	if qs[0].Level != 7 || qs[0].Answers["c"] != "three" || qs[0].CorrectAnswer != "b" {
		t.Errorf("QuestionsAt(7)[0] = %+v", qs[0])
	}

	// Reimporting the same pack inserts nothing
	n, err := repo.ImportQuestions(ctx, []models.Question{qs[0]})
	if err != nil {
		t.Fatalf("ImportQuestions() error = %v", err)
	}
	if n != 0 {
		t.Errorf("ImportQuestions() of a duplicate inserted %d", n)
	}

	counts, err := repo.CountByLevel(ctx)
	if err != nil {
		t.Fatalf("CountByLevel() error = %v", err)
	}
	if len(counts) != 15 || counts[14] != 2 {
		t.Errorf("CountByLevel() = %v", counts)
	}

	found, err := repo.FindQuestion(ctx, 7, qs[1].Text)
	if err != nil || found == nil || found.ID != qs[1].ID {
		t.Errorf("FindQuestion() = %v, %v", found, err)
	}
	missing, err := repo.GetQuestionByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("GetQuestionByID(9999) = %v, %v, want nil, nil", missing, err)
	}
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := createUser(t, repo, "first@example.com")
	second := createUser(t, repo, "second@example.com")
	if !first.IsAdmin || second.IsAdmin {
		t.Errorf("only the first user should be admin: %v %v", first.IsAdmin, second.IsAdmin)
	}

	if err := repo.AddToBalance(ctx, second.ID, 32000); err != nil {
		t.Fatalf("AddToBalance() error = %v", err)
	}
	if err := repo.AddToBalance(ctx, second.ID, 1000); err != nil {
		t.Fatalf("AddToBalance() error = %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, "second@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.Balance != 33000 {
		t.Errorf("Balance = %d, want 33000", got.Balance)
	}

	if err := repo.AddToBalance(ctx, 9999, 100); err == nil {
		t.Error("AddToBalance() of a missing user should fail")
	}

	none, err := repo.GetUserByID(ctx, 9999)
	if err != nil || none != nil {
		t.Errorf("GetUserByID(9999) = %v, %v, want nil, nil", none, err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers() returned %d users, want 2", len(users))
	}
}

func TestSessions(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "player@example.com")

	if _, err := repo.CreateSession(ctx, "live", u.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := repo.CreateSession(ctx, "stale", u.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	n, err := repo.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions() removed %d, want 1", n)
	}

	s, err := repo.GetSession(ctx, "live")
	if err != nil || s == nil || s.UserID != u.ID {
		t.Fatalf("GetSession(live) = %v, %v", s, err)
	}
	if err := repo.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if s, _ := repo.GetSession(ctx, "live"); s != nil {
		t.Error("session still present after DeleteSession()")
	}
}

func TestGameRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := NewQuestionRepository(db)
	users := NewUserRepository(db)
	games := NewGameRepository(db)

	seedQuestions(t, questions, 1)
	u := createUser(t, users, "player@example.com")

	g, err := game.NewFactory(questions).Create(ctx, u.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	id, err := games.CreateGame(ctx, g.State())
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	g.AssignID(id)

	active, err := games.GetActiveGameID(ctx, u.ID)
	if err != nil || active != id {
		t.Fatalf("GetActiveGameID() = %d, %v, want %d", active, err, id)
	}

	if _, err := g.Answer("b"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	hint, err := g.ApplyHint(game.HintFiftyFifty)
	if err != nil {
		t.Fatalf("ApplyHint() error = %v", err)
	}
	if _, err := g.CashOut(); err != nil {
		t.Fatalf("CashOut() error = %v", err)
	}
	if err := games.UpdateGame(ctx, g.State()); err != nil {
		t.Fatalf("UpdateGame() error = %v", err)
	}

	s, err := games.GetGameState(ctx, id)
	if err != nil {
		t.Fatalf("GetGameState() error = %v", err)
	}
	if s.OwnerID != u.ID || s.CurrentLevel != 1 || s.Prize != 100 || s.FinishedAt == nil || s.IsFailed {
		t.Errorf("GetGameState() = %+v", s)
	}
	if len(s.Questions) != 15 {
		t.Fatalf("loaded ladder has %d rungs, want 15", len(s.Questions))
	}
	stored, ok := s.Questions[1].Hint(game.HintFiftyFifty)
	if !ok || len(stored.Letters) != 2 || stored.Letters[0] != hint.Letters[0] {
		t.Errorf("stored hint = %+v, want %+v", stored, hint)
	}
	if _, err := game.Restore(*s); err != nil {
		t.Errorf("Restore() of loaded state error = %v", err)
	}

	history, err := games.ListUserGames(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListUserGames() error = %v", err)
	}
	if len(history) != 1 || !history[0].FiftyFifty || history[0].AudienceHelp || history[0].Prize != 100 {
		t.Errorf("ListUserGames() = %+v", history)
	}

	active, _ = games.GetActiveGameID(ctx, u.ID)
	if active != 0 {
		t.Errorf("GetActiveGameID() after cash out = %d, want 0", active)
	}

	missing, err := games.GetGameState(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("GetGameState(9999) = %v, %v, want nil, nil", missing, err)
	}
}

func TestOneActiveGamePerPlayer(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := NewQuestionRepository(db)
	users := NewUserRepository(db)
	games := NewGameRepository(db)

	seedQuestions(t, questions, 1)
	u := createUser(t, users, "player@example.com")
	factory := game.NewFactory(questions)

	g1, _ := factory.Create(ctx, u.ID)
	if _, err := games.CreateGame(ctx, g1.State()); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	g2, _ := factory.Create(ctx, u.ID)
	err := db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := games.WithTx(tx).CreateGame(ctx, g2.State())
		return err
	})
	if !errors.Is(err, ErrActiveGameExists) {
		t.Errorf("second CreateGame() error = %v, want %v", err, ErrActiveGameExists)
	}
}
