package config

import (
	"encoding/json"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "/test/launcher-auth.json"

// clearEnv isolates a test from LAUNCHER_AUTH_* variables set on the developer machine
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envClientID, envRedirectURL, envScopes, envPremiumMode, envKeyringService, envLogLevel, envChainDump, envRedisAddr} {
		t.Setenv(k, "")
	}
}

func createTestLoader(t *testing.T) (*ConfigLoader, *MemFileSystem) {
	t.Helper()
	clearEnv(t)
	fs := NewMemFileSystem()
	return NewTestConfigLoader(fs, []string{testConfigPath, "/home/player/.config/launcher-auth/launcher-auth.json"}), fs
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestLoadConfig_DefaultValues(t *testing.T) {
	loader, _ := createTestLoader(t)

	cfg := loader.LoadWithArgs(nil)

	assert.Empty(t, cfg.OAuth2.ClientID)
	assert.Equal(t, DefaultRedirectURL, cfg.OAuth2.RedirectURL)
	assert.Equal(t, DefaultScopes, cfg.OAuth2.Scopes)
	assert.Equal(t, DefaultKeyringService, cfg.Launcher.KeyringService)
	assert.False(t, cfg.Launcher.PremiumMode)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadConfig_FileOverridesDefaultsPartially(t *testing.T) {
	loader, fs := createTestLoader(t)
	require.NoError(t, fs.WriteFile(testConfigPath, []byte(`{
		"oauth2": {"clientId": "file-client"},
		"launcher": {"premiumMode": true}
	}`), 0o600))

	cfg := loader.LoadWithArgs(nil)

	assert.Equal(t, "file-client", cfg.OAuth2.ClientID)
	assert.True(t, cfg.Launcher.PremiumMode)
	// keys absent from the file keep their defaults
	assert.Equal(t, DefaultRedirectURL, cfg.OAuth2.RedirectURL)
	assert.Equal(t, DefaultKeyringService, cfg.Launcher.KeyringService)
}

func TestLoadConfig_InvalidFileKeepsDefaults(t *testing.T) {
	loader, fs := createTestLoader(t)
	require.NoError(t, fs.WriteFile(testConfigPath, []byte(`{not json`), 0o600))

	cfg := loader.LoadWithArgs(nil)

	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadConfig_SearchPathOrder(t *testing.T) {
	loader, fs := createTestLoader(t)
	require.NoError(t, fs.WriteFile("/home/player/.config/launcher-auth/launcher-auth.json", []byte(`{"oauth2":{"clientId":"second"}}`), 0o600))

	assert.Equal(t, "second", loader.LoadWithArgs(nil).OAuth2.ClientID)

	require.NoError(t, fs.WriteFile(testConfigPath, []byte(`{"oauth2":{"clientId":"first"}}`), 0o600))
	assert.Equal(t, "first", loader.LoadWithArgs(nil).OAuth2.ClientID)
}

func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	testCases := []struct {
		name   string
		key    string
		value  string
		verify func(t *testing.T, cfg Config)
	}{
		{"client id", envClientID, "env-client", func(t *testing.T, cfg Config) {
			assert.Equal(t, "env-client", cfg.OAuth2.ClientID)
		}},
		{"scopes with commas", envScopes, "XboxLive.signin, offline_access,openid", func(t *testing.T, cfg Config) {
			assert.Equal(t, []string{"XboxLive.signin", "offline_access", "openid"}, cfg.OAuth2.Scopes)
		}},
		{"premium mode", envPremiumMode, "true", func(t *testing.T, cfg Config) {
			assert.True(t, cfg.Launcher.PremiumMode)
		}},
		{"premium mode garbage", envPremiumMode, "maybe", func(t *testing.T, cfg Config) {
			assert.False(t, cfg.Launcher.PremiumMode)
		}},
		{"keyring service", envKeyringService, "custom-service", func(t *testing.T, cfg Config) {
			assert.Equal(t, "custom-service", cfg.Launcher.KeyringService)
		}},
		{"chain dump", envChainDump, "logs/chain.yaml", func(t *testing.T, cfg Config) {
			assert.Equal(t, "logs/chain.yaml", cfg.Launcher.ChainDumpPath)
		}},
		{"redis addr", envRedisAddr, "localhost:6379", func(t *testing.T, cfg Config) {
			assert.Equal(t, "localhost:6379", cfg.Launcher.RedisAddr)
		}},
		{"whitespace ignored", envClientID, "   ", func(t *testing.T, cfg Config) {
			assert.Empty(t, cfg.OAuth2.ClientID)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loader, _ := createTestLoader(t)
			t.Setenv(tc.key, tc.value)
			tc.verify(t, loader.LoadWithArgs(nil))
		})
	}
}

func TestLoadConfig_PriorityOrder(t *testing.T) {
	loader, fs := createTestLoader(t)
	require.NoError(t, fs.WriteFile(testConfigPath, []byte(`{"oauth2":{"clientId":"file"},"logLevel":"WARN"}`), 0o600))
	t.Setenv(envClientID, "env")
	t.Setenv(envLogLevel, "ERROR")

	loader.flagParser.(*MockFlagParser).SetFlags(&ParsedFlags{
		clientID:    strPtr("flag"),
		premiumMode: boolPtr(true),
	})

	cfg := loader.LoadWithArgs(nil)

	assert.Equal(t, "flag", cfg.OAuth2.ClientID)
	assert.Equal(t, "ERROR", cfg.LogLevel)
	assert.True(t, cfg.Launcher.PremiumMode)
}

func TestLoadConfig_ExplicitConfigFileFlag(t *testing.T) {
	loader, fs := createTestLoader(t)
	require.NoError(t, fs.WriteFile("/elsewhere/custom.json", []byte(`{"oauth2":{"clientId":"explicit"}}`), 0o600))
	loader.flagParser.(*MockFlagParser).SetFlags(&ParsedFlags{configFile: strPtr("/elsewhere/custom.json")})

	assert.Equal(t, "explicit", loader.LoadWithArgs(nil).OAuth2.ClientID)
}

func TestOsFlagParser_OnlyVisitedFlagsAreSet(t *testing.T) {
	parser := &OsFlagParser{}

	flags := parser.Parse([]string{"-client-id", "abc", "-premium-mode"})

	require.NotNil(t, flags.clientID)
	assert.Equal(t, "abc", *flags.clientID)
	require.NotNil(t, flags.premiumMode)
	assert.True(t, *flags.premiumMode)
	assert.Nil(t, flags.redirectURL)
	assert.Nil(t, flags.logLevel)
}

func TestBindFlags_SharedFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	run := fs.String("run", "", "command")
	binding := BindFlags(fs)

	require.NoError(t, fs.Parse([]string{"-run", "accounts", "-log-level", "DEBUG"}))
	flags := binding.Visited(fs)

	assert.Equal(t, "accounts", *run)
	require.NotNil(t, flags.logLevel)
	assert.Equal(t, "DEBUG", *flags.logLevel)
	assert.Nil(t, flags.clientID)
}

func TestSaveConfig_WritesToUserConfigDir(t *testing.T) {
	loader, fs := createTestLoader(t)
	cfg := NewConfig()
	cfg.OAuth2.ClientID = "saved"

	path, err := loader.SaveConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/home/player/.config/launcher-auth/launcher-auth.json", path)

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, cfg, decoded)

	assert.Equal(t, "saved", loader.LoadWithArgs(nil).OAuth2.ClientID)
}

func TestConfig_Validate(t *testing.T) {
	valid := NewConfig()
	valid.OAuth2.ClientID = "client"
	require.NoError(t, valid.Validate())

	missing := NewConfig()
	assert.ErrorIs(t, missing.Validate(), ErrMissingClientID)

	badRedirect := valid
	badRedirect.OAuth2.RedirectURL = "not a url"
	assert.Error(t, badRedirect.Validate())

	noScopes := valid
	noScopes.OAuth2.Scopes = nil
	assert.Error(t, noScopes.Validate())
}
