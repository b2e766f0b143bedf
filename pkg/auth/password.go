package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	MinPasswordLen    = 8
	MaxPasswordLen    = 72 // bcrypt ignores bytes past 72
)

// PasswordValidationError lists every rule a password broke.
type PasswordValidationError struct {
	Reasons []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return "invalid password"
	}
	return "invalid password: " + strings.Join(e.Reasons, "; ")
}

var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"password1":    true,
	"password123":  true,
	"password123!": true,
	"passw0rd":     true,
	"qwerty123":    true,
	"letmein1":     true,
	"welcome1":     true,
	"changeme1!":   true,
	"trustno1":     true,
}

// HashPassword hashes with DefaultBcryptCost.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword enforces length and character class rules and rejects common passwords.
func ValidatePassword(password string) error {
	var reasons []string

	if len(password) < MinPasswordLen {
		reasons = append(reasons, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		reasons = append(reasons, fmt.Sprintf("must be at most %d bytes", MaxPasswordLen))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		reasons = append(reasons, "must contain an uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "must contain a lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "must contain a digit")
	}
	if !hasSpecial {
		reasons = append(reasons, "must contain a special character")
	}
	if commonPasswords[strings.ToLower(password)] {
		reasons = append(reasons, "is too common")
	}

	if len(reasons) > 0 {
		return &PasswordValidationError{Reasons: reasons}
	}
	return nil
}
