package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
)

const (
	flagConfig      = "config"
	flagClientID    = "client-id"
	flagRedirectURL = "redirect-url"
	flagPremiumMode = "premium-mode"
	flagLogLevel    = "log-level"

	configFileName = "launcher-auth.json"
	appDirName     = "launcher-auth"
)

// FlagParser abstracts command line flag parsing for testability
type FlagParser interface {
	Parse(args []string) *ParsedFlags
}

// ParsedFlags holds the flags that were explicitly provided; nil means "not set"
type ParsedFlags struct {
	configFile  *string
	clientID    *string
	redirectURL *string
	premiumMode *bool
	logLevel    *string
}

// FlagBinding ties config flags to a flag.FlagSet owned by the caller
type FlagBinding struct {
	configFile  *string
	clientID    *string
	redirectURL *string
	premiumMode *bool
	logLevel    *string
}

// BindFlags registers the configuration flags on fs
func BindFlags(fs *flag.FlagSet) *FlagBinding {
	return &FlagBinding{
		configFile:  fs.String(flagConfig, "", "Configuration file path"),
		clientID:    fs.String(flagClientID, "", "OAuth2 client id of the launcher application"),
		redirectURL: fs.String(flagRedirectURL, "", "OAuth2 redirect URL"),
		premiumMode: fs.Bool(flagPremiumMode, false, "Disable offline accounts"),
		logLevel:    fs.String(flagLogLevel, "", "Log level (DEBUG, INFO, WARN, ERROR)"),
	}
}

// Visited returns the subset of bound flags that were set on fs
func (b *FlagBinding) Visited(fs *flag.FlagSet) *ParsedFlags {
	flags := &ParsedFlags{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case flagConfig:
			flags.configFile = b.configFile
		case flagClientID:
			flags.clientID = b.clientID
		case flagRedirectURL:
			flags.redirectURL = b.redirectURL
		case flagPremiumMode:
			flags.premiumMode = b.premiumMode
		case flagLogLevel:
			flags.logLevel = b.logLevel
		}
	})
	return flags
}

// OsFlagParser implements FlagParser using the real flag package
type OsFlagParser struct{}

// Parse implements FlagParser.Parse on a private flag set
func (fp *OsFlagParser) Parse(args []string) *ParsedFlags {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	binding := BindFlags(fs)
	_ = fs.Parse(args) // flags after the first unknown one are ignored
	return binding.Visited(fs)
}

// ConfigLoader handles configuration loading with injected dependencies
type ConfigLoader struct {
	fs          FileSystem
	flagParser  FlagParser
	searchPaths []string
}

// NewConfigLoader creates a ConfigLoader for production use
func NewConfigLoader() *ConfigLoader {
	osFS := &OsFileSystem{}
	return &ConfigLoader{
		fs:          osFS,
		flagParser:  &OsFlagParser{},
		searchPaths: getDefaultSearchPaths(osFS),
	}
}

// NewTestConfigLoader creates a ConfigLoader for testing with custom dependencies
func NewTestConfigLoader(fs FileSystem, searchPaths []string) *ConfigLoader {
	return &ConfigLoader{
		fs:          fs,
		flagParser:  &MockFlagParser{},
		searchPaths: searchPaths,
	}
}

// LoadWithArgs loads configuration with the specified command line arguments
func (cl *ConfigLoader) LoadWithArgs(args []string) Config {
	return cl.LoadWithFlags(cl.flagParser.Parse(args))
}

// LoadWithFlags applies defaults < file < environment < flags
func (cl *ConfigLoader) LoadWithFlags(flags *ParsedFlags) Config {
	cfg := NewConfig()
	if flags == nil {
		flags = &ParsedFlags{}
	}

	cl.loadFromFile(&cfg, flags.configFile)
	applyEnvironmentVariables(&cfg)
	cl.applyFlags(&cfg, flags)

	return cfg
}

// SaveConfig writes cfg to the user config directory and returns the path written
func (cl *ConfigLoader) SaveConfig(cfg Config) (string, error) {
	dir, err := cl.fs.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	appDir := filepath.Join(dir, appDirName)
	if err := cl.fs.MkdirAll(appDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir %s: %w", appDir, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(appDir, configFileName)
	if err := cl.fs.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return path, nil
}

func (cl *ConfigLoader) loadFromFile(cfg *Config, configFile *string) {
	filePath := ""
	if configFile != nil && *configFile != "" {
		filePath = *configFile
	} else {
		filePath = cl.findConfigFile()
	}
	if filePath == "" {
		return
	}
	// A broken file leaves the defaults in place
	_ = cl.loadConfigFromFile(cfg, filePath)
}

// findConfigFile returns the first existing search path
func (cl *ConfigLoader) findConfigFile() string {
	for _, path := range cl.searchPaths {
		if _, err := cl.fs.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadConfigFromFile decodes the JSON file over cfg so absent keys keep their current value
func (cl *ConfigLoader) loadConfigFromFile(cfg *Config, filename string) error {
	data, err := cl.fs.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	decoded := *cfg
	decoded.OAuth2.Scopes = append([]string(nil), cfg.OAuth2.Scopes...)
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	*cfg = decoded
	return nil
}

func (cl *ConfigLoader) applyFlags(cfg *Config, flags *ParsedFlags) {
	if flags.clientID != nil && *flags.clientID != "" {
		cfg.OAuth2.ClientID = *flags.clientID
	}
	if flags.redirectURL != nil && *flags.redirectURL != "" {
		cfg.OAuth2.RedirectURL = *flags.redirectURL
	}
	if flags.premiumMode != nil {
		cfg.Launcher.PremiumMode = *flags.premiumMode
	}
	if flags.logLevel != nil && *flags.logLevel != "" {
		cfg.LogLevel = *flags.logLevel
	}
}

// getDefaultSearchPaths returns the default search paths for config files
func getDefaultSearchPaths(fs FileSystem) []string {
	var paths []string

	if cwd, err := fs.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, configFileName))
	}
	if configDir, err := fs.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, appDirName, configFileName))
	}
	if home, err := fs.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+appDirName, configFileName))
	}

	return paths
}

// MockFlagParser implements FlagParser for testing
type MockFlagParser struct {
	flags *ParsedFlags
}

// SetFlags allows tests to set mock flag values
func (mfp *MockFlagParser) SetFlags(flags *ParsedFlags) {
	mfp.flags = flags
}

// Parse implements FlagParser.Parse returning mock values
func (mfp *MockFlagParser) Parse(args []string) *ParsedFlags {
	if mfp.flags != nil {
		return mfp.flags
	}
	return &ParsedFlags{}
}
