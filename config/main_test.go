package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run outside GO_ENV=test: Load reads .env.<GO_ENV> files, and
// ConnectDatabase would otherwise pick up a real DATABASE_URL.
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		fmt.Fprintf(os.Stderr, "SAFETY CHECK FAILED: config tests must run with GO_ENV=test (current: %q)\n"+
			"  GO_ENV=test go test ./...\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
