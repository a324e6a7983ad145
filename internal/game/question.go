package game

import (
	"maps"

	"millionaire/internal/models"
)

// GameQuestion is one rung of the ladder: a snapshot of the drawn question
// plus the hints used on it.
type GameQuestion struct {
	Level    int
	Question models.Question
	Hints    map[HintType]Hint
}

func newGameQuestion(level int, q models.Question) GameQuestion {
	return GameQuestion{
		Level:    level,
		Question: q.Clone(),
		Hints:    map[HintType]Hint{},
	}
}

// CorrectAnswer returns the letter of the correct answer
func (gq GameQuestion) CorrectAnswer() string {
	return gq.Question.CorrectAnswer
}

// HintUsed reports whether hint t has been used on this rung
func (gq GameQuestion) HintUsed(t HintType) bool {
	_, ok := gq.Hints[t]
	return ok
}

// Hint returns the payload of hint t, if it was used
func (gq GameQuestion) Hint(t HintType) (Hint, bool) {
	h, ok := gq.Hints[t]
	return h, ok
}

func (gq GameQuestion) clone() GameQuestion {
	gq.Question = gq.Question.Clone()
	gq.Hints = maps.Clone(gq.Hints)
	if gq.Hints == nil {
		gq.Hints = map[HintType]Hint{}
	}
	return gq
}

// withHint returns a copy of gq with h recorded
func (gq GameQuestion) withHint(h Hint) GameQuestion {
	next := gq
	next.Hints = maps.Clone(gq.Hints)
	if next.Hints == nil {
		next.Hints = map[HintType]Hint{}
	}
	next.Hints[h.Type] = h
	return next
}
