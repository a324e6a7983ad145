package game

import (
	"context"
	"fmt"
	"time"

	"millionaire/internal/models"
)

// QuestionPool supplies candidate questions for each ladder level
type QuestionPool interface {
	QuestionsAt(ctx context.Context, level int) ([]models.Question, error)
}

// Factory assembles new games from a question pool. It keeps no state
// between calls.
type Factory struct {
	pool QuestionPool
	opts []Option
}

// NewFactory creates a factory; opts are applied to every game it builds
func NewFactory(pool QuestionPool, opts ...Option) *Factory {
	return &Factory{pool: pool, opts: opts}
}

// Create draws one question per level and returns a fresh game for owner
func (f *Factory) Create(ctx context.Context, ownerID int64) (*Game, error) {
	g := newGame(f.opts...)
	n := g.prizes.Len()

	ladder := make([]GameQuestion, n)
	for level := 0; level < n; level++ {
		candidates, err := f.pool.QuestionsAt(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for level %d: %w", level, err)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no questions at level %d", ErrInsufficientQuestions, level)
		}

		q := candidates[g.rng.IntN(len(candidates))]
		if err := q.Validate(n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientQuestions, err)
		}
		ladder[level] = newGameQuestion(level, q)
	}

	g.state.Store(&State{
		OwnerID:   ownerID,
		Questions: ladder,
		CreatedAt: g.now(),
	})
	return g, nil
}

// Restore rebuilds a persisted game with the factory's options
func (f *Factory) Restore(s State) (*Game, error) {
	return Restore(s, f.opts...)
}

// LadderSize returns the number of rungs of the games f builds
func (f *Factory) LadderSize() int {
	return newGame(f.opts...).LadderSize()
}

// TimeLimit returns the time limit of the games f builds
func (f *Factory) TimeLimit() time.Duration {
	return newGame(f.opts...).TimeLimit()
}
