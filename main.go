package main

// Entry point for launcher-auth
import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/FBakkensen/launcher-auth/accounts"
	"github.com/FBakkensen/launcher-auth/auth"
	"github.com/FBakkensen/launcher-auth/config"
	"github.com/FBakkensen/launcher-auth/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	keyring "github.com/zalando/go-keyring"
)

const chainCaptureKeep = 5

const availableCommands = "accounts, select, add-cracked, add-legacy, login-url, login, remove, validate, keyring-test"

// app bundles what the commands operate on
type app struct {
	cfg     config.Config
	store   *accounts.Store
	manager *auth.Manager
	out     io.Writer
}

func main() {
	// Parse command line flags
	runCmd := flag.String("run", "", "Run a command non-interactively ("+availableCommands+")")
	binding := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg := config.NewConfigLoader().LoadWithFlags(binding.Visited(flag.CommandLine))

	if err := logging.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Warning: Failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	logging.Info("Starting launcher-auth", "premiumMode", fmt.Sprintf("%t", cfg.Launcher.PremiumMode))

	if *runCmd == "" {
		flag.Usage()
		return
	}

	a, err := newApp(cfg, newPersister(cfg), unavailableProvider{}, os.Stdout)
	if err != nil {
		logging.Error("Failed to start", "error", err.Error())
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	if err := runNonInteractiveCommand(context.Background(), a, *runCmd, flag.Args()); err != nil {
		logging.Error("Non-interactive command failed", "command", *runCmd, "error", err.Error())
		fmt.Printf("Error running command '%s': %v\n", *runCmd, err)
		os.Exit(1)
	}
}

// newPersister picks Redis when an address is configured, the OS keyring otherwise
func newPersister(cfg config.Config) accounts.Persister {
	if cfg.Launcher.RedisAddr != "" {
		logging.Info("Storing accounts in redis", "addr", cfg.Launcher.RedisAddr)
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Launcher.RedisAddr})
		return accounts.NewRedisPersister(rdb, cfg.Launcher.KeyringService)
	}
	return accounts.NewKeyringPersister(cfg.Launcher.KeyringService)
}

func newApp(cfg config.Config, p accounts.Persister, client auth.IdentityProviderClient, out io.Writer) (*app, error) {
	store := accounts.NewStore(p)
	if err := store.Load(); err != nil {
		return nil, err
	}

	opts := []auth.ManagerOption{auth.WithPremiumMode(cfg.Launcher.PremiumMode)}
	if cfg.OAuth2.ClientID != "" {
		opts = append(opts, auth.WithOAuth2Config(auth.NewOAuth2Config(cfg.OAuth2)))
	}
	if cfg.Launcher.ChainDumpPath != "" {
		opts = append(opts, auth.WithChainCapture(cfg.Launcher.ChainDumpPath, chainCaptureKeep))
	}
	m, err := auth.NewManager(store, client, opts...)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, store: store, manager: m, out: out}, nil
}

// runNonInteractiveCommand executes one command against the stored accounts
func runNonInteractiveCommand(ctx context.Context, a *app, command string, args []string) error {
	logging.Info("Running non-interactive command", "command", command)

	switch command {
	case "accounts":
		return listAccounts(a)
	case "select":
		return selectAccount(a, args)
	case "add-cracked":
		return addCrackedAccount(a, args)
	case "add-legacy":
		return addLegacyAccount(ctx, a, args)
	case "login-url":
		return printLoginURL(a, args)
	case "login":
		return loginWithRedirect(ctx, a, args)
	case "remove":
		return removeAccount(ctx, a, args)
	case "validate":
		return validateAccount(ctx, a, args)
	case "keyring-test":
		return keyringTestNonInteractive(a.cfg, a.out)
	default:
		return fmt.Errorf("unknown command: %s. Available commands: %s", command, availableCommands)
	}
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func listAccounts(a *app) error {
	all := a.store.Accounts()
	selected := a.store.SelectedUUID()

	fmt.Fprintf(a.out, "Found %d accounts:\n", len(all))
	for i, acc := range all {
		marker := " "
		if acc.UUID == selected {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %d. %s (%s) - Type: %s\n", marker, i+1, acc.DisplayName, acc.UUID, acc.Kind)
	}
	return nil
}

func selectAccount(a *app, args []string) error {
	if err := requireArgs(args, 1, "-run=select <uuid>"); err != nil {
		return err
	}
	if err := a.store.Select(args[0]); err != nil {
		return err
	}
	if err := a.store.Persist(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Selected %s\n", args[0])
	return nil
}

func addCrackedAccount(a *app, args []string) error {
	if err := requireArgs(args, 1, "-run=add-cracked <username>"); err != nil {
		return err
	}
	acc, err := a.manager.AddCrackedAccount(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added offline account %s (profile %s)\n", acc.DisplayName, acc.ProfileID)
	return nil
}

func addLegacyAccount(ctx context.Context, a *app, args []string) error {
	if err := requireArgs(args, 1, "-run=add-legacy <username>  (password from LAUNCHER_AUTH_PASSWORD)"); err != nil {
		return err
	}
	password := os.Getenv("LAUNCHER_AUTH_PASSWORD")
	if password == "" {
		return errors.New("LAUNCHER_AUTH_PASSWORD is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	acc, err := a.manager.AddLegacyAccount(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added account %s (%s)\n", acc.DisplayName, acc.UUID)
	return nil
}

func printLoginURL(a *app, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	state := uuid.NewString()
	if len(args) > 0 {
		state = args[0]
	}
	u, err := a.manager.LoginURL(state)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Open this URL to sign in, then run -run=login <redirect-url> "+state)
	fmt.Fprintln(a.out, u)
	return nil
}

func loginWithRedirect(ctx context.Context, a *app, args []string) error {
	if err := requireArgs(args, 1, "-run=login <redirect-url> [state]"); err != nil {
		return err
	}
	state := ""
	if len(args) > 1 {
		state = args[1]
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	acc, err := a.manager.AddFederatedAccountFromRedirect(ctx, args[0], state)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added account %s (%s)\n", acc.DisplayName, acc.UUID)
	return nil
}

func removeAccount(ctx context.Context, a *app, args []string) error {
	if err := requireArgs(args, 1, "-run=remove <uuid>"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := a.manager.RemoveAccount(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s\n", args[0])
	return nil
}

func validateAccount(ctx context.Context, a *app, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var ok bool
	target := "selected account"
	if len(args) > 0 {
		target = args[0]
		ok = a.manager.ValidateAccount(ctx, target)
	} else {
		ok = a.manager.ValidateSelected(ctx)
	}

	if !ok {
		return fmt.Errorf("%s is not usable: %w", target, auth.ErrReauthenticationRequired)
	}
	fmt.Fprintf(a.out, "%s is valid\n", target)
	return nil
}

// keyringTestNonInteractive checks that the OS keyring can store, read back and delete an entry
func keyringTestNonInteractive(cfg config.Config, out io.Writer) error {
	service := strings.TrimSpace(cfg.Launcher.KeyringService)
	if service == "" {
		service = config.DefaultKeyringService
	}
	service += "-selftest"
	if ns := strings.TrimSpace(os.Getenv("LAUNCHER_AUTH_KEYRING_NAMESPACE")); ns != "" {
		service += "-" + ns
	}
	const key = "probe"
	probe := uuid.NewString()

	if err := keyring.Set(service, key, probe); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	got, err := keyring.Get(service, key)
	if err != nil {
		return fmt.Errorf("keyring read failed: %w", err)
	}
	if got != probe {
		return errors.New("keyring returned a different value than was written")
	}
	if err := keyring.Delete(service, key); err != nil {
		return fmt.Errorf("keyring delete failed: %w", err)
	}

	fmt.Fprintf(out, "Keyring OK (service %s)\n", service)
	logging.Info("Keyring self-test passed", "service", service)
	return nil
}
