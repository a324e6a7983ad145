package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"millionaire/internal/models"
)

// HintType names one of the one-shot helps a player can use per rung
type HintType string

const (
	HintFiftyFifty HintType = "fifty_fifty"
	HintAudience   HintType = "audience_help"
	HintFriendCall HintType = "friend_call"
)

// HintTypes lists every hint type
var HintTypes = []HintType{HintFiftyFifty, HintAudience, HintFriendCall}

// ParseHintType converts a request value into a HintType
func ParseHintType(s string) (HintType, error) {
	t := HintType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownHint, s)
	}
	return t, nil
}

// Valid reports whether t is a known hint type
func (t HintType) Valid() bool {
	switch t {
	case HintFiftyFifty, HintAudience, HintFriendCall:
		return true
	}
	return false
}

// Hint is the payload recorded on a rung once a hint has been used.
// Exactly one of the payload fields is set, depending on Type.
type Hint struct {
	Type       HintType       `json:"type"`
	Letters    []string       `json:"letters,omitempty"`
	Poll       map[string]int `json:"poll,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Rand is the random source used for drawing questions and building hints.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// BuildHint produces the payload of hint type t for a question whose
// correct letter is correct.
func BuildHint(rng Rand, t HintType, correct string) (Hint, error) {
	switch t {
	case HintFiftyFifty:
		return Hint{Type: t, Letters: FiftyFifty(rng, correct)}, nil
	case HintAudience:
		return Hint{Type: t, Poll: AudiencePoll(rng, correct)}, nil
	case HintFriendCall:
		return Hint{Type: t, Suggestion: ExpertOpinion(rng, correct)}, nil
	}
	return Hint{}, fmt.Errorf("%w: %q", ErrUnknownHint, t)
}

// FiftyFifty keeps the correct letter and one random wrong letter, in
// display order
func FiftyFifty(rng Rand, correct string) []string {
	wrong := wrongLetters(correct)
	letters := []string{correct, wrong[rng.IntN(len(wrong))]}
	slices.Sort(letters)
	return letters
}

// AudiencePoll simulates an audience vote. Shares are percentages summing to
// 100; the correct letter draws from a higher range so it usually wins.
func AudiencePoll(rng Rand, correct string) map[string]int {
	weights := make([]int, len(models.AnswerLetters))
	total := 0
	for i, letter := range models.AnswerLetters {
		if letter == correct {
			weights[i] = 45 + rng.IntN(46)
		} else {
			weights[i] = 1 + rng.IntN(60)
		}
		total += weights[i]
	}

	poll := make(map[string]int, len(weights))
	assigned := 0
	for i, letter := range models.AnswerLetters {
		share := weights[i] * 100 / total
		poll[letter] = share
		assigned += share
	}
	// rounding leftovers go to the correct answer
	poll[correct] += 100 - assigned

	return poll
}

// ExpertOpinion returns the letter a phoned expert suggests: the correct one
// eight times out of ten, otherwise any letter.
func ExpertOpinion(rng Rand, correct string) string {
	if rng.IntN(10) < 8 {
		return correct
	}
	return models.AnswerLetters[rng.IntN(len(models.AnswerLetters))]
}

func wrongLetters(correct string) []string {
	wrong := make([]string, 0, len(models.AnswerLetters)-1)
	for _, letter := range models.AnswerLetters {
		if letter != correct {
			wrong = append(wrong, letter)
		}
	}
	return wrong
}
