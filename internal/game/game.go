// Package game implements the question ladder: assembling a game from a
// question pool, judging answers against time and correctness, computing
// prizes and applying hints.
//
// A Game does no locking of its own. Mutating calls (Answer, CashOut,
// ApplyHint, ExpireIfLate) must be serialized by the caller; read accessors
// may run concurrently with them and always see a complete state, because
// every mutation builds a new State and publishes it atomically.
package game

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// DefaultTimeLimit is how long a player has to finish a game
const DefaultTimeLimit = 35 * time.Minute

// Status is the derived lifecycle state of a game
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusFail       Status = "fail"
	StatusTimeout    Status = "timeout"
	StatusMoney      Status = "money"
)

// State is the plain data of a game, suitable for persistence
type State struct {
	ID           int64
	OwnerID      int64
	Questions    []GameQuestion
	CurrentLevel int
	IsFailed     bool
	Prize        int64
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

func (s State) clone() State {
	questions := make([]GameQuestion, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = q.clone()
	}
	s.Questions = questions
	if s.FinishedAt != nil {
		finished := *s.FinishedAt
		s.FinishedAt = &finished
	}
	return s
}

// Game is the aggregate root of one play-through
type Game struct {
	state atomic.Pointer[State]

	prizes    PrizeTable
	timeLimit time.Duration
	now       func() time.Time
	rng       Rand
}

// Option configures a Game
type Option func(*Game)

// WithPrizeTable replaces the default prize table. The ladder size equals
// the table length.
func WithPrizeTable(p PrizeTable) Option {
	return func(g *Game) { g.prizes = p }
}

// WithTimeLimit sets how long a game may run before answers are late
func WithTimeLimit(d time.Duration) Option {
	return func(g *Game) { g.timeLimit = d }
}

// WithClock injects the wall clock
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithRand injects the random source used for hints
func WithRand(r Rand) Option {
	return func(g *Game) { g.rng = r }
}

func newGame(opts ...Option) *Game {
	g := &Game{
		prizes:    DefaultPrizeTable,
		timeLimit: DefaultTimeLimit,
		now:       time.Now,
		rng:       globalRand{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Restore rebuilds a game from persisted state
func Restore(s State, opts ...Option) (*Game, error) {
	g := newGame(opts...)
	if err := g.validate(s); err != nil {
		return nil, err
	}
	restored := s.clone()
	g.state.Store(&restored)
	return g, nil
}

func (g *Game) validate(s State) error {
	n := g.prizes.Len()
	if len(s.Questions) != n {
		return fmt.Errorf("%w: ladder has %d questions, prize table has %d levels", ErrInvalidState, len(s.Questions), n)
	}
	for i, q := range s.Questions {
		if q.Level != i {
			return fmt.Errorf("%w: question %d sits at level %d", ErrInvalidState, i, q.Level)
		}
	}
	if s.CurrentLevel < 0 || s.CurrentLevel > n {
		return fmt.Errorf("%w: current level %d out of range", ErrInvalidState, s.CurrentLevel)
	}
	if s.FinishedAt == nil && (s.IsFailed || s.CurrentLevel == n) {
		return fmt.Errorf("%w: unfinished game is failed or past the last level", ErrInvalidState)
	}
	return nil
}

// State returns a copy of the game's data
func (g *Game) State() State {
	return g.load().clone()
}

func (g *Game) load() *State {
	return g.state.Load()
}

// AssignID records the identifier given by the store
func (g *Game) AssignID(id int64) {
	next := *g.load()
	next.ID = id
	g.state.Store(&next)
}

// ID returns the store identifier, 0 until saved
func (g *Game) ID() int64 {
	return g.load().ID
}

// OwnerID returns the player who owns the game
func (g *Game) OwnerID() int64 {
	return g.load().OwnerID
}

// CurrentLevel is the position of the next question to answer
func (g *Game) CurrentLevel() int {
	return g.load().CurrentLevel
}

// PreviousLevel is the position of the last question answered correctly
func (g *Game) PreviousLevel() int {
	return g.load().CurrentLevel - 1
}

// IsFailed reports whether the game ended on a wrong or late answer
func (g *Game) IsFailed() bool {
	return g.load().IsFailed
}

// Prize is the amount won; set when the game finishes
func (g *Game) Prize() int64 {
	return g.load().Prize
}

// CreatedAt returns the start time
func (g *Game) CreatedAt() time.Time {
	return g.load().CreatedAt
}

// FinishedAt returns the completion time, nil while the game is active
func (g *Game) FinishedAt() *time.Time {
	s := g.load()
	if s.FinishedAt == nil {
		return nil
	}
	finished := *s.FinishedAt
	return &finished
}

// Finished reports whether the game reached a terminal state
func (g *Game) Finished() bool {
	return g.load().FinishedAt != nil
}

// LadderSize returns the number of rungs
func (g *Game) LadderSize() int {
	return g.prizes.Len()
}

// PrizeTable returns the table the game is scored with
func (g *Game) PrizeTable() PrizeTable {
	return g.prizes
}

// TimeLimit returns the configured limit
func (g *Game) TimeLimit() time.Duration {
	return g.timeLimit
}

// TimeLeft returns the remaining time, never negative
func (g *Game) TimeLeft() time.Duration {
	left := g.timeLimit - g.now().Sub(g.load().CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Status derives the lifecycle state from the stored fields. The time limit
// is checked against the current clock, so a failed game reports timeout once
// enough time has passed since it was created.
func (g *Game) Status() Status {
	s := g.load()
	return DeriveStatus(s.FinishedAt, s.CurrentLevel, len(s.Questions), s.IsFailed, g.now().Sub(s.CreatedAt), g.timeLimit)
}

// DeriveStatus computes a status from persisted fields without a full ladder
func DeriveStatus(finishedAt *time.Time, currentLevel, ladderSize int, isFailed bool, elapsed, timeLimit time.Duration) Status {
	switch {
	case finishedAt == nil:
		return StatusInProgress
	case currentLevel >= ladderSize:
		return StatusWon
	case isFailed && elapsed > timeLimit:
		return StatusTimeout
	case isFailed:
		return StatusFail
	default:
		return StatusMoney
	}
}

// Questions returns a copy of the whole ladder
func (g *Game) Questions() []GameQuestion {
	return g.State().Questions
}

// CurrentQuestion returns the rung at the current level
func (g *Game) CurrentQuestion() (GameQuestion, error) {
	s := g.load()
	return g.questionAt(s, s.CurrentLevel)
}

// PreviousQuestion returns the rung answered last
func (g *Game) PreviousQuestion() (GameQuestion, error) {
	s := g.load()
	return g.questionAt(s, s.CurrentLevel-1)
}

func (g *Game) questionAt(s *State, level int) (GameQuestion, error) {
	if level < 0 || level >= len(s.Questions) {
		return GameQuestion{}, fmt.Errorf("%w: %d", ErrNoSuchPosition, level)
	}
	return s.Questions[level].clone(), nil
}

// HintUsed reports whether hint t was used anywhere in the game
func (g *Game) HintUsed(t HintType) bool {
	return slices.ContainsFunc(g.load().Questions, func(q GameQuestion) bool {
		return q.HintUsed(t)
	})
}

func (g *Game) isLate(s *State, now time.Time) bool {
	return now.Sub(s.CreatedAt) > g.timeLimit
}

// finish returns a finished copy of s
func finish(s *State, now time.Time, prize int64, failed bool) *State {
	next := *s
	next.Prize = prize
	next.IsFailed = failed
	next.FinishedAt = &now
	return &next
}

// Answer judges letter against the current question. It returns true when
// the answer was correct and in time. A late answer ends the game whatever
// the letter; a wrong answer ends it with the last fireproof prize.
func (g *Game) Answer(letter string) (bool, error) {
	s := g.load()
	if s.FinishedAt != nil {
		return false, ErrGameNotActive
	}

	now := g.now()
	if g.isLate(s, now) {
		g.state.Store(finish(s, now, g.prizes.FireproofPrize(s.CurrentLevel-1), true))
		return false, nil
	}

	if !s.Questions[s.CurrentLevel].Question.AnswerCorrect(letter) {
		g.state.Store(finish(s, now, g.prizes.FireproofPrize(s.CurrentLevel-1), true))
		return false, nil
	}

	next := *s
	next.CurrentLevel++
	if next.CurrentLevel == len(s.Questions) {
		g.state.Store(finish(&next, now, g.prizes.Top(), false))
		return true, nil
	}
	g.state.Store(&next)
	return true, nil
}

// CashOut ends the game and keeps the prize of the last correct answer.
// A game past its time limit is expired instead and keeps only its
// fireproof prize.
func (g *Game) CashOut() (int64, error) {
	s := g.load()
	if s.FinishedAt != nil {
		return 0, ErrGameNotActive
	}
	if g.ExpireIfLate() {
		return g.Prize(), nil
	}
	if s.CurrentLevel == 0 {
		return 0, fmt.Errorf("%w: no question answered yet", ErrGameNotActive)
	}

	prize := g.prizes.Amount(s.CurrentLevel - 1)
	g.state.Store(finish(s, g.now(), prize, false))
	return prize, nil
}

// ExpireIfLate finishes an active game whose time limit has passed and
// reports whether it did.
func (g *Game) ExpireIfLate() bool {
	s := g.load()
	now := g.now()
	if s.FinishedAt != nil || !g.isLate(s, now) {
		return false
	}
	g.state.Store(finish(s, now, g.prizes.FireproofPrize(s.CurrentLevel-1), true))
	return true
}

// ApplyHint uses hint t on the current question and records the payload
func (g *Game) ApplyHint(t HintType) (Hint, error) {
	if !t.Valid() {
		return Hint{}, fmt.Errorf("%w: %q", ErrUnknownHint, t)
	}
	s := g.load()
	if s.FinishedAt != nil {
		return Hint{}, ErrGameNotActive
	}

	rung := s.Questions[s.CurrentLevel]
	if rung.HintUsed(t) {
		return Hint{}, fmt.Errorf("%w: %s", ErrHintAlreadyUsed, t)
	}

	hint, err := BuildHint(g.rng, t, rung.CorrectAnswer())
	if err != nil {
		return Hint{}, err
	}

	next := *s
	next.Questions = slices.Clone(s.Questions)
	next.Questions[s.CurrentLevel] = rung.withHint(hint)
	g.state.Store(&next)

	return hint, nil
}
