package account

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 40
)

var usernamePattern = regexp.MustCompile(`^[\w-]+$`)

// hasTripleRepeat reports whether s contains the same character three or more
// times in a row. Go's regexp does not support backreferences, so this is
// checked directly rather than with a pattern like `(.)\1\1`.
func hasTripleRepeat(s string) bool {
	runes := []rune(s)
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}

// defaultUsernameBlacklist holds reserved names that can never be registered.
var defaultUsernameBlacklist = map[string]struct{}{
	"admin":         {},
	"administrator": {},
	"root":          {},
	"support":       {},
	"system":        {},
	"webmaster":     {},
}

// NormalizeUsername trims surrounding whitespace and lowercases the username.
// Every lookup and uniqueness check operates on the normalized form.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks a normalized username against the registration
// rules: length bounds, allowed characters, repetition, and the blacklist.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLength {
		return fmt.Errorf("%w: the username is too short", ErrInvalidUsername)
	}
	if len(username) > usernameMaxLength {
		return fmt.Errorf("%w: the username is too long", ErrInvalidUsername)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: only letters, numbers, and -/_ characters are allowed", ErrInvalidUsername)
	}
	if hasTripleRepeat(username) {
		return fmt.Errorf("%w: too many repeating characters", ErrInvalidUsername)
	}
	if _, reserved := defaultUsernameBlacklist[username]; reserved {
		return ErrInvalidUsername
	}
	return nil
}
