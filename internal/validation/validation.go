package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"millionaire/internal/game"
	"millionaire/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const maxNameLength = 100

// ValidationError represents a validation error on one request field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	// bcrypt ignores anything past 72 bytes
	if len(password) > 72 {
		return ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if n > maxNameLength {
		return ValidationError{Field: "name", Message: "name is too long"}
	}
	return nil
}

// ValidateAnswerLetter checks that letter names one of the four answers
func ValidateAnswerLetter(letter string) error {
	if strings.TrimSpace(letter) == "" {
		return ValidationError{Field: "letter", Message: "letter is required"}
	}
	if !models.IsAnswerLetter(models.NormalizeLetter(letter)) {
		return ValidationError{Field: "letter", Message: "letter must be one of a, b, c, d"}
	}
	return nil
}

// ValidateHintType parses a hint name from a request
func ValidateHintType(name string) (game.HintType, error) {
	t, err := game.ParseHintType(name)
	if err != nil {
		return "", ValidationError{Field: "help_type", Message: err.Error()}
	}
	return t, nil
}
