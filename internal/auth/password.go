package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// ValidatePassword enforces the minimum length. bcrypt ignores bytes past
// 72, so longer passwords are refused too.
func ValidatePassword(raw string) error {
	if utf8.RuneCountInString(raw) < minPasswordLength || len(raw) > 72 {
		return ErrWeakPassword
	}
	return nil
}
