package security

import (
	"errors"
	"os"
	"strings"
)

// ErrInvalidSecret is returned when a configured signing secret is empty or unreadable.
var ErrInvalidSecret = errors.New("invalid secret")

// LoadSecret resolves a configured signing secret. A value prefixed with
// "file:" is read from the named file (trailing whitespace trimmed);
// anything else is used inline as-is.
func LoadSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidSecret
	}
	if path, ok := strings.CutPrefix(s, "file:"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		b = []byte(strings.TrimRight(string(b), "\r\n"))
		if len(b) == 0 {
			return nil, ErrInvalidSecret
		}
		return b, nil
	}
	return []byte(s), nil
}
