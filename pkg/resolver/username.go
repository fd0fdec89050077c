package resolver

import (
	"errors"
	"fmt"
)

const MaxUsernameLength = 63

var ErrInvalidUsername = errors.New("invalid username")

// ValidateUsername checks the registry alphabet: 1 to 63 characters of a-z, 0-9 and '-'.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUsername)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: too long: %d > %d", ErrInvalidUsername, len(username), MaxUsernameLength)
	}
	for _, r := range username {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return fmt.Errorf("%w: contains invalid character %q", ErrInvalidUsername, r)
	}
	return nil
}
