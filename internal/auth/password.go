package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
	maxEmailLength    = 254
)

var (
	ErrEmailRequired   = errors.New("email is required")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrPasswordTooLong = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
)

// NormalizeEmail returns the canonical lowercase admin email. Display names
// ("Jane <jane@acme.io>") are rejected.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case email == "":
		return "", ErrEmailRequired
	case len(email) > maxEmailLength:
		return "", fmt.Errorf("%w: too long", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidatePassword checks the length bounds. bcrypt rejects input past
// maxPasswordBytes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword hashes one plaintext password for persistent storage.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

var (
	decoyOnce sync.Once
	decoyHash []byte
)

// VerifyPassword compares candidate with a bcrypt hash. An empty hash (no
// such user) still runs one comparison so lookups take the same time.
func VerifyPassword(passwordHash, candidate string) bool {
	hash := []byte(strings.TrimSpace(passwordHash))
	if len(hash) == 0 {
		decoyOnce.Do(func() {
			decoyHash, _ = bcrypt.GenerateFromPassword([]byte("decoy-password"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(candidate))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}
