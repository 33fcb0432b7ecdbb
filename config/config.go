package config

// Launcher authentication configuration

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/FBakkensen/launcher-auth/internal/util"
)

const (
	// DefaultRedirectURL is the native-client redirect registered for desktop launchers.
	DefaultRedirectURL = "https://login.microsoftonline.com/common/oauth2/nativeclient"
	// DefaultKeyringService is the keyring service accounts are stored under.
	DefaultKeyringService = "launcher-auth"

	envClientID       = "LAUNCHER_AUTH_CLIENT_ID"
	envRedirectURL    = "LAUNCHER_AUTH_REDIRECT_URL"
	envScopes         = "LAUNCHER_AUTH_SCOPES"
	envPremiumMode    = "LAUNCHER_AUTH_PREMIUM_MODE"
	envKeyringService = "LAUNCHER_AUTH_KEYRING_SERVICE"
	envLogLevel       = "LAUNCHER_AUTH_LOG_LEVEL"
	envChainDump      = "LAUNCHER_AUTH_CHAIN_DUMP"
	envRedisAddr      = "LAUNCHER_AUTH_REDIS_ADDR"
)

// ErrMissingClientID is returned by Validate when no OAuth client id is configured.
var ErrMissingClientID = errors.New("oauth2 client id is required")

// DefaultScopes are requested for the federated login; offline_access yields a refresh token.
var DefaultScopes = []string{"XboxLive.signin", "offline_access"}

// OAuth2Config holds the federated provider application registration
type OAuth2Config struct {
	ClientID    string   `json:"clientId"`
	RedirectURL string   `json:"redirectUrl"`
	Scopes      []string `json:"scopes"`
}

// LauncherConfig holds launcher-wide account policy
type LauncherConfig struct {
	// PremiumMode disables offline (cracked) accounts.
	PremiumMode    bool   `json:"premiumMode"`
	KeyringService string `json:"keyringService"`
	// ChainDumpPath enables YAML captures of every federated exchange chain run.
	ChainDumpPath string `json:"chainDumpPath,omitempty"`
	// RedisAddr stores accounts in Redis instead of the OS keyring.
	RedisAddr string `json:"redisAddr,omitempty"`
}

// Config holds application settings
type Config struct {
	OAuth2   OAuth2Config   `json:"oauth2"`
	Launcher LauncherConfig `json:"launcher"`
	LogLevel string         `json:"logLevel"`
}

// NewConfig returns a Config populated with defaults
func NewConfig() Config {
	return Config{
		OAuth2: OAuth2Config{
			RedirectURL: DefaultRedirectURL,
			Scopes:      append([]string(nil), DefaultScopes...),
		},
		Launcher: LauncherConfig{
			KeyringService: DefaultKeyringService,
		},
		LogLevel: "INFO",
	}
}

// Validate checks the settings required before any federated login can start
func (c Config) Validate() error {
	if strings.TrimSpace(c.OAuth2.ClientID) == "" {
		return ErrMissingClientID
	}
	u, err := url.Parse(c.OAuth2.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect url %q: %w", c.OAuth2.RedirectURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid redirect url %q: scheme and host are required", c.OAuth2.RedirectURL)
	}
	if len(c.OAuth2.Scopes) == 0 {
		return fmt.Errorf("at least one oauth2 scope is required")
	}
	return nil
}

// applyEnvironmentVariables overlays LAUNCHER_AUTH_* variables onto cfg
func applyEnvironmentVariables(cfg *Config) {
	cfg.OAuth2.ClientID = util.FirstNonEmpty(os.Getenv(envClientID), cfg.OAuth2.ClientID)
	cfg.OAuth2.RedirectURL = util.FirstNonEmpty(os.Getenv(envRedirectURL), cfg.OAuth2.RedirectURL)
	if scopes := splitScopes(os.Getenv(envScopes)); len(scopes) > 0 {
		cfg.OAuth2.Scopes = scopes
	}
	if v := strings.TrimSpace(os.Getenv(envPremiumMode)); v != "" {
		// Unparseable values leave the current setting untouched
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Launcher.PremiumMode = parsed
		}
	}
	cfg.Launcher.KeyringService = util.FirstNonEmpty(os.Getenv(envKeyringService), cfg.Launcher.KeyringService)
	cfg.Launcher.ChainDumpPath = util.FirstNonEmpty(os.Getenv(envChainDump), cfg.Launcher.ChainDumpPath)
	cfg.Launcher.RedisAddr = util.FirstNonEmpty(os.Getenv(envRedisAddr), cfg.Launcher.RedisAddr)
	cfg.LogLevel = util.FirstNonEmpty(os.Getenv(envLogLevel), cfg.LogLevel)
}

// splitScopes accepts space or comma separated scope lists
func splitScopes(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
