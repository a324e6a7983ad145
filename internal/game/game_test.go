package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"millionaire/internal/models"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// seqRand returns the queued values in order, modulo n
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func testQuestion(id int64, level int) models.Question {
	return models.Question{
		ID:    id,
		Level: level,
		Text:  fmt.Sprintf("Question %d?", id),
		Answers: map[string]string{
			"a": "first", "b": "second", "c": "third", "d": "fourth",
		},
		CorrectAnswer: "d",
	}
}

// testState builds a ladder of fifteen questions whose answer is always d
func testState(level int, createdAt time.Time) State {
	questions := make([]GameQuestion, DefaultPrizeTable.Len())
	for i := range questions {
		questions[i] = newGameQuestion(i, testQuestion(int64(i+1), i))
	}
	return State{
		ID:           1,
		OwnerID:      42,
		Questions:    questions,
		CurrentLevel: level,
		CreatedAt:    createdAt,
	}
}

func newTestGame(t *testing.T, level int, opts ...Option) *Game {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	g, err := Restore(testState(level, testNow.Add(-time.Minute)), opts...)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	return g
}

func TestFactoryCreate(t *testing.T) {
	var questions []models.Question
	id := int64(1)
	for level := 0; level < 15; level++ {
		for i := 0; i < 4; i++ {
			questions = append(questions, testQuestion(id, level))
			id++
		}
	}

	rng := &seqRand{vals: []int{2}}
	factory := NewFactory(NewMemoryPool(questions...), WithRand(rng), WithClock(fixedClock))

	g, err := factory.Create(context.Background(), 42)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if g.OwnerID() != 42 {
		t.Errorf("OwnerID() = %d, want 42", g.OwnerID())
	}
	if g.Status() != StatusInProgress {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusInProgress)
	}
	if g.CurrentLevel() != 0 {
		t.Errorf("CurrentLevel() = %d, want 0", g.CurrentLevel())
	}
	if !g.CreatedAt().Equal(testNow) {
		t.Errorf("CreatedAt() = %v, want %v", g.CreatedAt(), testNow)
	}
	if g.FinishedAt() != nil {
		t.Errorf("FinishedAt() = %v, want nil", g.FinishedAt())
	}

	ladder := g.Questions()
	if len(ladder) != 15 {
		t.Fatalf("len(Questions()) = %d, want 15", len(ladder))
	}
	for level, q := range ladder {
		if q.Level != level {
			t.Errorf("rung %d has level %d", level, q.Level)
		}
		// the stub always picks the third candidate of each level
		wantID := int64(level*4 + 3)
		if q.Question.ID != wantID {
			t.Errorf("rung %d drew question %d, want %d", level, q.Question.ID, wantID)
		}
		if len(q.Hints) != 0 {
			t.Errorf("rung %d starts with hints %v", level, q.Hints)
		}
	}
}

func TestFactoryInsufficientQuestions(t *testing.T) {
	var questions []models.Question
	for level := 0; level < 14; level++ {
		questions = append(questions, testQuestion(int64(level+1), level))
	}

	_, err := NewFactory(NewMemoryPool(questions...)).Create(context.Background(), 1)
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Fatalf("Create() error = %v, want %v", err, ErrInsufficientQuestions)
	}
}

func TestFactoryPoolError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewFactory(failingPool{err: boom}).Create(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("Create() error = %v, want %v", err, boom)
	}
}

type failingPool struct{ err error }

func (p failingPool) QuestionsAt(context.Context, int) ([]models.Question, error) {
	return nil, p.err
}

func TestAnswerCorrectContinuesGame(t *testing.T) {
	g := newTestGame(t, 0)
	q, err := g.CurrentQuestion()
	if err != nil {
		t.Fatalf("CurrentQuestion() error = %v", err)
	}

	ok, err := g.Answer(q.CorrectAnswer())
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !ok {
		t.Fatal("Answer() = false, want true")
	}

	if g.CurrentLevel() != 1 {
		t.Errorf("CurrentLevel() = %d, want 1", g.CurrentLevel())
	}
	prev, err := g.PreviousQuestion()
	if err != nil {
		t.Fatalf("PreviousQuestion() error = %v", err)
	}
	if prev.Question.ID != q.Question.ID {
		t.Errorf("PreviousQuestion() = %d, want %d", prev.Question.ID, q.Question.ID)
	}
	cur, _ := g.CurrentQuestion()
	if cur.Question.ID == q.Question.ID {
		t.Error("current question did not move on")
	}
	if g.Status() != StatusInProgress || g.Finished() {
		t.Errorf("Status() = %v, Finished() = %v; want in progress", g.Status(), g.Finished())
	}
}

func TestAnswerAcceptsLetterCase(t *testing.T) {
	g := newTestGame(t, 0)
	ok, err := g.Answer(" D ")
	if err != nil || !ok {
		t.Fatalf("Answer(\" D \") = %v, %v; want true, nil", ok, err)
	}
}

func TestAnswerWrong(t *testing.T) {
	g := newTestGame(t, 0)

	ok, err := g.Answer("a")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if ok {
		t.Fatal("Answer() = true, want false")
	}
	if g.Status() != StatusFail {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusFail)
	}
	if !g.Finished() {
		t.Error("Finished() = false, want true")
	}
	if g.CurrentLevel() != 0 {
		t.Errorf("CurrentLevel() = %d, want 0", g.CurrentLevel())
	}
	if g.Prize() != 0 {
		t.Errorf("Prize() = %d, want 0", g.Prize())
	}
}

func TestAnswerLastLevelWins(t *testing.T) {
	g := newTestGame(t, 14)

	ok, err := g.Answer("d")
	if err != nil || !ok {
		t.Fatalf("Answer() = %v, %v; want true, nil", ok, err)
	}
	if g.Status() != StatusWon {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusWon)
	}
	if g.CurrentLevel() != 15 {
		t.Errorf("CurrentLevel() = %d, want 15", g.CurrentLevel())
	}
	if g.Prize() != DefaultPrizeTable.Top() {
		t.Errorf("Prize() = %d, want %d", g.Prize(), DefaultPrizeTable.Top())
	}
	if _, err := g.CurrentQuestion(); !errors.Is(err, ErrNoSuchPosition) {
		t.Errorf("CurrentQuestion() error = %v, want %v", err, ErrNoSuchPosition)
	}
}

func TestAnswerAfterTimeout(t *testing.T) {
	for _, letter := range []string{"d", "a"} {
		t.Run(letter, func(t *testing.T) {
			g, err := Restore(testState(3, testNow.Add(-time.Hour)), WithClock(fixedClock))
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}

			ok, err := g.Answer(letter)
			if err != nil {
				t.Fatalf("Answer() error = %v", err)
			}
			if ok {
				t.Error("Answer() = true, want false")
			}
			if g.Status() != StatusTimeout {
				t.Errorf("Status() = %v, want %v", g.Status(), StatusTimeout)
			}
			if g.CurrentLevel() != 3 {
				t.Errorf("CurrentLevel() = %d, want 3", g.CurrentLevel())
			}
		})
	}
}

func TestAnswerOnFinishedGame(t *testing.T) {
	g := newTestGame(t, 0)
	if _, err := g.Answer("a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	before := g.State()
	if _, err := g.Answer("d"); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("Answer() error = %v, want %v", err, ErrGameNotActive)
	}
	if after := g.State(); after.CurrentLevel != before.CurrentLevel || after.IsFailed != before.IsFailed {
		t.Error("rejected answer changed the game")
	}
}

func TestWrongAnswerKeepsFireproofPrize(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{level: 0, want: 0},
		{level: 4, want: 0},
		{level: 5, want: 1000},
		{level: 9, want: 1000},
		{level: 10, want: 32000},
		{level: 14, want: 32000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			g := newTestGame(t, tt.level)
			if ok, err := g.Answer("b"); ok || err != nil {
				t.Fatalf("Answer() = %v, %v; want false, nil", ok, err)
			}
			if g.Status() != StatusFail {
				t.Errorf("Status() = %v, want %v", g.Status(), StatusFail)
			}
			if g.Prize() != tt.want {
				t.Errorf("Prize() = %d, want %d", g.Prize(), tt.want)
			}
		})
	}
}

func TestCashOut(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{level: 1, want: 100},
		{level: 2, want: 200},
		{level: 6, want: 2000},
		{level: 14, want: 500000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			g := newTestGame(t, tt.level)
			prize, err := g.CashOut()
			if err != nil {
				t.Fatalf("CashOut() error = %v", err)
			}
			if prize != tt.want || g.Prize() != tt.want {
				t.Errorf("CashOut() = %d, Prize() = %d; want %d", prize, g.Prize(), tt.want)
			}
			if g.Status() != StatusMoney {
				t.Errorf("Status() = %v, want %v", g.Status(), StatusMoney)
			}
		})
	}
}

func TestCashOutRejected(t *testing.T) {
	t.Run("before any answer", func(t *testing.T) {
		g := newTestGame(t, 0)
		if _, err := g.CashOut(); !errors.Is(err, ErrGameNotActive) {
			t.Fatalf("CashOut() error = %v, want %v", err, ErrGameNotActive)
		}
		if g.Finished() {
			t.Error("rejected cash out finished the game")
		}
	})

	t.Run("finished game", func(t *testing.T) {
		g := newTestGame(t, 3)
		if _, err := g.CashOut(); err != nil {
			t.Fatalf("CashOut() error = %v", err)
		}
		if _, err := g.CashOut(); !errors.Is(err, ErrGameNotActive) {
			t.Fatalf("second CashOut() error = %v, want %v", err, ErrGameNotActive)
		}
	})
}

func TestCashOutAfterTimeLimit(t *testing.T) {
	g, err := Restore(testState(7, testNow.Add(-time.Hour)), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	prize, err := g.CashOut()
	if err != nil {
		t.Fatalf("CashOut() error = %v", err)
	}
	if prize != 1000 {
		t.Errorf("CashOut() = %d, want fireproof 1000", prize)
	}
	if g.Status() != StatusTimeout {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusTimeout)
	}
}

// Scenario: the player sits at question five, answers it, then takes the money.
func TestScenarioCashOutAfterSixAnswers(t *testing.T) {
	g := newTestGame(t, 5)
	if ok, _ := g.Answer("d"); !ok {
		t.Fatal("Answer() = false, want true")
	}
	prize, err := g.CashOut()
	if err != nil {
		t.Fatalf("CashOut() error = %v", err)
	}
	if prize != 2000 {
		t.Errorf("CashOut() = %d, want 2000", prize)
	}
	if g.Status() != StatusMoney {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusMoney)
	}
}

func TestScenarioWrongAtFourteen(t *testing.T) {
	g := newTestGame(t, 14)
	if ok, _ := g.Answer("a"); ok {
		t.Fatal("Answer() = true, want false")
	}
	if g.Status() != StatusFail {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusFail)
	}
	if g.Prize() != 32000 {
		t.Errorf("Prize() = %d, want 32000", g.Prize())
	}
}

func TestStatus(t *testing.T) {
	finished := testNow

	tests := []struct {
		name      string
		level     int
		failed    bool
		createdAt time.Time
		finished  *time.Time
		want      Status
	}{
		{name: "in progress", level: 3, createdAt: testNow, want: StatusInProgress},
		{name: "won", level: 15, createdAt: testNow, finished: &finished, want: StatusWon},
		{name: "fail", level: 3, failed: true, createdAt: testNow, finished: &finished, want: StatusFail},
		{name: "timeout", level: 3, failed: true, createdAt: testNow.Add(-time.Hour), finished: &finished, want: StatusTimeout},
		{name: "money", level: 3, createdAt: testNow, finished: &finished, want: StatusMoney},
		{name: "old cash out is still money", level: 3, createdAt: testNow.Add(-time.Hour), finished: &finished, want: StatusMoney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState(tt.level, tt.createdAt)
			s.IsFailed = tt.failed
			s.FinishedAt = tt.finished

			g, err := Restore(s, WithClock(fixedClock))
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if got := g.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailedGameLaterReportsTimeout(t *testing.T) {
	now := testNow
	g, err := Restore(testState(2, testNow.Add(-time.Minute)), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if _, err := g.Answer("a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if g.Status() != StatusFail {
		t.Fatalf("Status() = %v, want %v", g.Status(), StatusFail)
	}

	now = now.Add(time.Hour)
	if g.Status() != StatusTimeout {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusTimeout)
	}
}

func TestExpireIfLate(t *testing.T) {
	g := newTestGame(t, 3)
	if g.ExpireIfLate() {
		t.Fatal("ExpireIfLate() = true for a game within its limit")
	}

	late, err := Restore(testState(6, testNow.Add(-time.Hour)), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !late.ExpireIfLate() {
		t.Fatal("ExpireIfLate() = false for a late game")
	}
	if late.Status() != StatusTimeout || late.Prize() != 1000 {
		t.Errorf("Status() = %v, Prize() = %d; want timeout, 1000", late.Status(), late.Prize())
	}
	if late.ExpireIfLate() {
		t.Error("ExpireIfLate() fired twice")
	}
}

func TestTimeLeft(t *testing.T) {
	g := newTestGame(t, 0)
	if got, want := g.TimeLeft(), DefaultTimeLimit-time.Minute; got != want {
		t.Errorf("TimeLeft() = %v, want %v", got, want)
	}

	late, _ := Restore(testState(0, testNow.Add(-time.Hour)), WithClock(fixedClock))
	if late.TimeLeft() != 0 {
		t.Errorf("TimeLeft() = %v, want 0", late.TimeLeft())
	}
}

func TestPreviousQuestionAtStart(t *testing.T) {
	g := newTestGame(t, 0)
	if _, err := g.PreviousQuestion(); !errors.Is(err, ErrNoSuchPosition) {
		t.Fatalf("PreviousQuestion() error = %v, want %v", err, ErrNoSuchPosition)
	}
	if g.PreviousLevel() != -1 {
		t.Errorf("PreviousLevel() = %d, want -1", g.PreviousLevel())
	}
}

func TestApplyHint(t *testing.T) {
	g := newTestGame(t, 2, WithRand(&seqRand{vals: []int{1, 5, 7, 9, 30}}))

	hint, err := g.ApplyHint(HintAudience)
	if err != nil {
		t.Fatalf("ApplyHint() error = %v", err)
	}
	if len(hint.Poll) != 4 {
		t.Errorf("poll = %v, want four letters", hint.Poll)
	}
	if !g.HintUsed(HintAudience) {
		t.Error("HintUsed(audience) = false after use")
	}
	if g.HintUsed(HintFiftyFifty) {
		t.Error("HintUsed(fifty_fifty) = true before use")
	}

	q, _ := g.CurrentQuestion()
	if stored, ok := q.Hint(HintAudience); !ok || len(stored.Poll) != 4 {
		t.Errorf("stored hint = %v, %v", stored, ok)
	}

	if _, err := g.ApplyHint(HintAudience); !errors.Is(err, ErrHintAlreadyUsed) {
		t.Errorf("second ApplyHint() error = %v, want %v", err, ErrHintAlreadyUsed)
	}
	if _, err := g.ApplyHint(HintFiftyFifty); err != nil {
		t.Errorf("ApplyHint(fifty_fifty) error = %v", err)
	}
	if _, err := g.ApplyHint(HintFriendCall); err != nil {
		t.Errorf("ApplyHint(friend_call) error = %v", err)
	}

	if g.CurrentLevel() != 2 || g.Status() != StatusInProgress {
		t.Errorf("hints changed progress: level %d, status %v", g.CurrentLevel(), g.Status())
	}
}

func TestApplyHintOnNextRung(t *testing.T) {
	g := newTestGame(t, 0)
	if _, err := g.ApplyHint(HintFiftyFifty); err != nil {
		t.Fatalf("ApplyHint() error = %v", err)
	}
	if _, err := g.Answer("d"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if _, err := g.ApplyHint(HintFiftyFifty); err != nil {
		t.Fatalf("ApplyHint() on the next rung error = %v", err)
	}
	prev, _ := g.PreviousQuestion()
	if !prev.HintUsed(HintFiftyFifty) {
		t.Error("hint of the answered rung was lost")
	}
}

func TestApplyHintRejected(t *testing.T) {
	g := newTestGame(t, 0)
	if _, err := g.ApplyHint("phone_a_robot"); !errors.Is(err, ErrUnknownHint) {
		t.Errorf("ApplyHint(unknown) error = %v, want %v", err, ErrUnknownHint)
	}

	if _, err := g.Answer("a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if _, err := g.ApplyHint(HintFiftyFifty); !errors.Is(err, ErrGameNotActive) {
		t.Errorf("ApplyHint() on finished game error = %v, want %v", err, ErrGameNotActive)
	}
}

func TestRestoreRejectsInvalidState(t *testing.T) {
	finished := testNow

	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{name: "short ladder", mutate: func(s *State) { s.Questions = s.Questions[:10] }},
		{name: "gap in levels", mutate: func(s *State) { s.Questions[3].Level = 7 }},
		{name: "negative level", mutate: func(s *State) { s.CurrentLevel = -1 }},
		{name: "past the end", mutate: func(s *State) { s.CurrentLevel = 16; s.FinishedAt = &finished }},
		{name: "active at the end", mutate: func(s *State) { s.CurrentLevel = 15 }},
		{name: "failed but active", mutate: func(s *State) { s.IsFailed = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState(0, testNow)
			tt.mutate(&s)
			if _, err := Restore(s); !errors.Is(err, ErrInvalidState) {
				t.Errorf("Restore() error = %v, want %v", err, ErrInvalidState)
			}
		})
	}
}

func TestStateIsACopy(t *testing.T) {
	g := newTestGame(t, 0)
	s := g.State()
	s.CurrentLevel = 9
	s.Questions[0].Hints[HintFiftyFifty] = Hint{Type: HintFiftyFifty}

	if g.CurrentLevel() != 0 {
		t.Error("changing a State copy moved the game")
	}
	if g.HintUsed(HintFiftyFifty) {
		t.Error("changing a State copy recorded a hint")
	}
}

func TestReadsDuringMutation(t *testing.T) {
	g := newTestGame(t, 0)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := g.State()
				if s.CurrentLevel < 0 || s.CurrentLevel > len(s.Questions) {
					t.Errorf("torn read: level %d", s.CurrentLevel)
					return
				}
				_ = g.Status()
			}
		}()
	}

	for i := 0; i < 15; i++ {
		if _, err := g.ApplyHint(HintAudience); err != nil {
			t.Errorf("ApplyHint() error = %v", err)
		}
		if _, err := g.Answer("d"); err != nil {
			t.Errorf("Answer() error = %v", err)
		}
	}
	close(stop)
	wg.Wait()

	if g.Status() != StatusWon {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusWon)
	}
}

func TestDeriveStatus(t *testing.T) {
	finished := testNow
	limit := DefaultTimeLimit

	tests := []struct {
		name     string
		finished *time.Time
		level    int
		failed   bool
		elapsed  time.Duration
		want     Status
	}{
		{name: "unfinished", level: 4, elapsed: time.Hour, want: StatusInProgress},
		{name: "top", finished: &finished, level: 15, want: StatusWon},
		{name: "wrong", finished: &finished, level: 4, failed: true, elapsed: time.Minute, want: StatusFail},
		{name: "late", finished: &finished, level: 4, failed: true, elapsed: time.Hour, want: StatusTimeout},
		{name: "cash out", finished: &finished, level: 4, elapsed: time.Minute, want: StatusMoney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.finished, tt.level, 15, tt.failed, tt.elapsed, limit)
			if got != tt.want {
				t.Errorf("DeriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
