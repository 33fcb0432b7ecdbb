package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/FBakkensen/launcher-auth/config"
	"github.com/FBakkensen/launcher-auth/logging"
	keyring "github.com/zalando/go-keyring"
)

// Ensure tests use in-memory keyring and isolated namespace
func TestMain(m *testing.M) {
	keyring.MockInit()
	_ = os.Setenv("LAUNCHER_AUTH_KEYRING_NAMESPACE", "tests")
	logging.InitWithWriter(&bytes.Buffer{}, logging.LevelDebug)
	os.Exit(m.Run())
}

// Test that keyringTestNonInteractive succeeds with the mock keyring available.
func TestKeyringSelfTestOK(t *testing.T) {
	var out bytes.Buffer
	if err := keyringTestNonInteractive(config.Config{}, &out); err != nil {
		t.Fatalf("keyring self-test failed: %v", err)
	}
	if got := out.String(); got != "Keyring OK (service launcher-auth-selftest-tests)\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}
