package auth

import (
	"io"
	"os"
	"testing"

	"github.com/FBakkensen/launcher-auth/logging"
)

// TestMain routes debug logging to a discard writer so every log call site runs
// without leaving files behind.
func TestMain(m *testing.M) {
	logging.InitWithWriter(io.Discard, logging.LevelDebug)
	code := m.Run()
	os.Exit(code)
}
