package testutil

import (
	"os"
	"testing"
)

// MustSetTestEnvironment switches the process to GO_ENV=test and applies vars, so that
// config.Load in suite setups never picks up development or production settings.
// The variables stay set for the rest of the test binary.
func MustSetTestEnvironment(t *testing.T, vars map[string]string) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	for key, value := range vars {
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("Failed to set %s: %v", key, err)
		}
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}
