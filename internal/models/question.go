package models

import (
	"fmt"
	"strings"
	"time"
)

// AnswerLetters are the keys of the four candidate answers, in display order
var AnswerLetters = []string{"a", "b", "c", "d"}

// Question represents a quiz question from the question pool
type Question struct {
	ID            int64
	Level         int // 0-based difficulty, equal to the ladder position it can fill
	Text          string
	Answers       map[string]string
	CorrectAnswer string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AnswerCorrect reports whether letter names the correct answer
func (q Question) AnswerCorrect(letter string) bool {
	return NormalizeLetter(letter) == q.CorrectAnswer
}

// Validate checks that the question is playable on a ladder of the given size
func (q Question) Validate(ladderSize int) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d: text is required", q.ID)
	}
	if q.Level < 0 || q.Level >= ladderSize {
		return fmt.Errorf("question %d: level %d out of range 0..%d", q.ID, q.Level, ladderSize-1)
	}
	for _, letter := range AnswerLetters {
		if strings.TrimSpace(q.Answers[letter]) == "" {
			return fmt.Errorf("question %d: answer %q is required", q.ID, letter)
		}
	}
	if !IsAnswerLetter(q.CorrectAnswer) {
		return fmt.Errorf("question %d: invalid correct answer %q", q.ID, q.CorrectAnswer)
	}
	return nil
}

// Clone returns a copy that shares no maps with q
func (q Question) Clone() Question {
	answers := make(map[string]string, len(q.Answers))
	for k, v := range q.Answers {
		answers[k] = v
	}
	q.Answers = answers
	return q
}

// NormalizeLetter lower-cases and trims an answer letter
func NormalizeLetter(letter string) string {
	return strings.ToLower(strings.TrimSpace(letter))
}

// IsAnswerLetter reports whether letter is one of a-d
func IsAnswerLetter(letter string) bool {
	for _, l := range AnswerLetters {
		if l == letter {
			return true
		}
	}
	return false
}
