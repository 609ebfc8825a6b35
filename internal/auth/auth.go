package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor. Tests lower it.
var Cost = 14

// MinUsernameLength is the shortest username accepted at registration.
const MinUsernameLength = 3

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
// It returns true if the password matches the hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateUsername returns the reason a username is rejected, or "".
func ValidateUsername(username string) string {
	username = strings.TrimSpace(username)
	if len([]rune(username)) < MinUsernameLength {
		return "Username must be at least 3 characters long"
	}
	for _, r := range username {
		if unicode.IsSpace(r) {
			return "Username cannot contain spaces"
		}
	}
	return ""
}

// PasswordProblems lists every strength rule password breaks.
func PasswordProblems(password string) []string {
	var problems []string
	if len([]rune(password)) < 6 {
		problems = append(problems, "Password must be at least 6 characters long")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain at least one number")
	}
	if hasRepeatedDigits(password, 3) {
		problems = append(problems, "Password cannot contain consecutive repeating digits (e.g., 111, 222)")
	}
	return problems
}

func hasRepeatedDigits(s string, n int) bool {
	run := 0
	var prev rune
	for _, r := range s {
		if unicode.IsDigit(r) && r == prev {
			run++
		} else if unicode.IsDigit(r) {
			run = 1
		} else {
			run = 0
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
