package game

import (
	"context"

	"millionaire/internal/models"
)

// MemoryPool is a QuestionPool held in memory
type MemoryPool struct {
	byLevel map[int][]models.Question
}

// NewMemoryPool indexes questions by level
func NewMemoryPool(questions ...models.Question) *MemoryPool {
	p := &MemoryPool{byLevel: make(map[int][]models.Question)}
	for _, q := range questions {
		p.byLevel[q.Level] = append(p.byLevel[q.Level], q)
	}
	return p
}

// QuestionsAt returns the questions of a level
func (p *MemoryPool) QuestionsAt(_ context.Context, level int) ([]models.Question, error) {
	return p.byLevel[level], nil
}
