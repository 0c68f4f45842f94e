package migrate

import (
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("empty DSN should error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should point at DATABASE_URL, got %q", err)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "sideways", "UP", "Down"} {
		if err := Run("postgres://localhost/auth", dir); err == nil {
			t.Errorf("direction %q should be rejected", dir)
		}
	}
}

func TestRun_BadDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "postgres://", "://localhost/auth"} {
		if err := Run(dsn, "up"); err == nil {
			t.Errorf("DSN %q should fail", dsn)
		}
	}
}
