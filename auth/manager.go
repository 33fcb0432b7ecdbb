package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/FBakkensen/launcher-auth/accounts"
	"github.com/FBakkensen/launcher-auth/internal/util"
	"github.com/FBakkensen/launcher-auth/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var offlineUsername = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// CredentialStore is the account storage the manager drives. *accounts.Store implements it.
type CredentialStore interface {
	AddLegacyAccount(uuid, accessToken, username, displayName string) (*accounts.Account, error)
	AddFederatedAccount(uuid, gameAccessToken, displayName string, gameExpiresAt int64, msAccessToken, msRefreshToken string, msExpiresAt int64) (*accounts.Account, error)
	AddCrackedAccount(username string) (*accounts.Account, error)
	GetAccount(uuid string) (*accounts.Account, error)
	GetSelectedAccount() (*accounts.Account, error)
	UpdateLegacyAccount(uuid, accessToken string) (*accounts.Account, error)
	UpdateFederatedAccount(uuid, gameAccessToken, msAccessToken, msRefreshToken string, msExpiresAt, gameExpiresAt int64) (*accounts.Account, error)
	RemoveAccount(uuid string) bool
	GetClientToken() string
	SetClientToken(token string)
	Persist() error
}

var _ CredentialStore = (*accounts.Store)(nil)

// Manager is the account lifecycle entry point: add, remove and validate accounts of
// every kind, persisting after each successful mutation.
type Manager struct {
	store     CredentialStore
	legacy    *LegacyFlow
	federated *FederatedFlow

	catalog        Catalog
	oauth          *oauth2.Config
	premiumMode    bool
	capturePath    string
	captureKeep    int
	now            func() time.Time
	newClientToken func() string
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithNowFunc overrides the clock used for expiry decisions
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithCatalog replaces the displayable error wording
func WithCatalog(c Catalog) ManagerOption {
	return func(m *Manager) { m.catalog = c }
}

// WithPremiumMode disables offline accounts when enabled
func WithPremiumMode(enabled bool) ManagerOption {
	return func(m *Manager) { m.premiumMode = enabled }
}

// WithOAuth2Config sets the application used by LoginURL
func WithOAuth2Config(cfg *oauth2.Config) ManagerOption {
	return func(m *Manager) { m.oauth = cfg }
}

// WithClientTokenGenerator overrides how a missing legacy client token is minted
func WithClientTokenGenerator(gen func() string) ManagerOption {
	return func(m *Manager) { m.newClientToken = gen }
}

// WithChainCapture writes a redacted YAML capture of every exchange chain run
// next to path, keeping the newest keep files.
func WithChainCapture(path string, keep int) ManagerOption {
	return func(m *Manager) {
		m.capturePath = path
		m.captureKeep = keep
	}
}

// NewManager wires a manager over store and client
func NewManager(store CredentialStore, client IdentityProviderClient, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	if client == nil {
		return nil, errors.New("identity provider client is required")
	}

	m := &Manager{
		store:          store,
		now:            time.Now,
		newClientToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}

	classifier := NewClassifier(m.catalog)
	m.legacy = NewLegacyFlow(client, classifier)
	m.federated = NewFederatedFlow(client, classifier)
	if m.capturePath != "" {
		m.federated.EnableCapture(m.capturePath, m.captureKeep)
	}
	return m, nil
}

// AddLegacyAccount signs in with username and password and stores the resulting account
func (m *Manager) AddLegacyAccount(ctx context.Context, username, password string) (*accounts.Account, error) {
	clientToken := m.store.GetClientToken()
	if clientToken == "" {
		clientToken = m.newClientToken()
	}

	session, err := m.legacy.Authenticate(ctx, username, password, clientToken)
	if err != nil {
		return nil, err
	}

	profile := session.SelectedProfile
	acc, err := m.store.AddLegacyAccount(profile.ID, session.AccessToken, username, profile.Name)
	if err != nil {
		return nil, err
	}
	if m.store.GetClientToken() == "" {
		m.store.SetClientToken(util.FirstNonEmpty(session.ClientToken, clientToken))
	}
	if err := m.store.Persist(); err != nil {
		return nil, err
	}

	logging.Info("Added legacy account", "uuid", acc.UUID, "displayName", acc.DisplayName)
	return acc, nil
}

// AddCrackedAccount stores an offline account. No network is involved.
func (m *Manager) AddCrackedAccount(username string) (*accounts.Account, error) {
	if m.premiumMode {
		return nil, ErrCrackedDisabled
	}
	if !offlineUsername.MatchString(username) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	acc, err := m.store.AddCrackedAccount(username)
	if err != nil {
		return nil, err
	}
	if err := m.store.Persist(); err != nil {
		return nil, err
	}

	logging.Info("Added offline account", "uuid", acc.UUID)
	return acc, nil
}

// AddFederatedAccount runs the full exchange chain for authCode and stores the account
func (m *Manager) AddFederatedAccount(ctx context.Context, authCode string) (*accounts.Account, error) {
	res, err := m.federated.ExchangeChain(ctx, authCode, ModeFull)
	if err != nil {
		return nil, err
	}

	now := nowMillis(m.now)
	acc, err := m.store.AddFederatedAccount(
		res.Profile.ID,
		res.GameToken.AccessToken,
		res.Profile.Name,
		ComputeExpiry(now, res.GameToken.ExpiresIn),
		res.MSToken.AccessToken,
		res.MSToken.RefreshToken,
		ComputeExpiry(now, res.MSToken.ExpiresIn),
	)
	if err != nil {
		return nil, err
	}
	if err := m.store.Persist(); err != nil {
		return nil, err
	}

	logging.Info("Added federated account", "uuid", acc.UUID, "displayName", acc.DisplayName)
	return acc, nil
}

// AddFederatedAccountFromRedirect extracts the code from a login redirect and adds the account
func (m *Manager) AddFederatedAccountFromRedirect(ctx context.Context, redirectURL, state string) (*accounts.Account, error) {
	code, err := ParseRedirect(redirectURL, state)
	if err != nil {
		return nil, err
	}
	return m.AddFederatedAccount(ctx, code)
}

// LoginURL returns the federated login URL for state
func (m *Manager) LoginURL(state string) (string, error) {
	if m.oauth == nil {
		return "", ErrOAuthNotConfigured
	}
	return LoginURL(m.oauth, state), nil
}

// RemoveLegacyAccount invalidates the account's token remotely and removes it locally.
// The local record is kept when invalidation fails.
func (m *Manager) RemoveLegacyAccount(ctx context.Context, uuid string) error {
	acc, err := m.store.GetAccount(uuid)
	if err != nil {
		return err
	}
	if acc.Kind != accounts.KindLegacy {
		return fmt.Errorf("%w: %s is %s", accounts.ErrWrongKind, uuid, acc.Kind)
	}

	if err := m.legacy.Invalidate(ctx, acc.AccessToken, m.store.GetClientToken()); err != nil {
		logging.Warn("Keeping legacy account, invalidation failed", "uuid", uuid, "error", err.Error())
		return err
	}

	m.store.RemoveAccount(uuid)
	if err := m.store.Persist(); err != nil {
		return err
	}
	logging.Info("Removed legacy account", "uuid", uuid)
	return nil
}

// RemoveCrackedAccount removes an offline account. A missing account is not an error.
func (m *Manager) RemoveCrackedAccount(uuid string) error {
	return m.removeLocal(uuid, accounts.KindCracked)
}

// RemoveFederatedAccount removes a federated account locally; its tokens simply expire.
func (m *Manager) RemoveFederatedAccount(uuid string) error {
	return m.removeLocal(uuid, accounts.KindFederated)
}

// RemoveAccount removes uuid using the removal rules of its kind
func (m *Manager) RemoveAccount(ctx context.Context, uuid string) error {
	acc, err := m.store.GetAccount(uuid)
	if err != nil {
		return err
	}
	switch acc.Kind {
	case accounts.KindLegacy:
		return m.RemoveLegacyAccount(ctx, uuid)
	case accounts.KindFederated:
		return m.RemoveFederatedAccount(uuid)
	default:
		return m.RemoveCrackedAccount(uuid)
	}
}

func (m *Manager) removeLocal(uuid string, kind accounts.Kind) error {
	acc, err := m.store.GetAccount(uuid)
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		logging.Debug("Account already removed", "uuid", uuid)
	case err != nil:
		return err
	case acc.Kind != kind:
		return fmt.Errorf("%w: %s is %s", accounts.ErrWrongKind, uuid, acc.Kind)
	default:
		m.store.RemoveAccount(uuid)
	}

	if err := m.store.Persist(); err != nil {
		return err
	}
	logging.Info("Removed account", "uuid", uuid, "type", string(kind))
	return nil
}

// ValidateSelected reports whether the selected account can be used right now,
// refreshing its tokens when needed. Every failure collapses to false.
func (m *Manager) ValidateSelected(ctx context.Context) bool {
	acc, err := m.store.GetSelectedAccount()
	if err != nil {
		logging.Debug("No account to validate", "error", err.Error())
		return false
	}
	return m.validate(ctx, acc)
}

// ValidateAccount is ValidateSelected for an arbitrary stored account
func (m *Manager) ValidateAccount(ctx context.Context, uuid string) bool {
	acc, err := m.store.GetAccount(uuid)
	if err != nil {
		logging.Debug("No account to validate", "uuid", uuid, "error", err.Error())
		return false
	}
	return m.validate(ctx, acc)
}

func (m *Manager) validate(ctx context.Context, acc *accounts.Account) bool {
	switch acc.Kind {
	case accounts.KindFederated:
		return m.validateFederated(ctx, acc)
	case accounts.KindLegacy:
		return m.validateLegacy(ctx, acc)
	case accounts.KindCracked:
		// offline accounts carry no credentials
		return true
	default:
		logging.Warn("Unknown account type", "uuid", acc.UUID, "type", string(acc.Kind))
		return false
	}
}

// validateLegacy asks the server first and attempts one refresh when the token is
// rejected. A failed validate call is treated like a rejected token.
func (m *Manager) validateLegacy(ctx context.Context, acc *accounts.Account) bool {
	clientToken := m.store.GetClientToken()

	valid, err := m.legacy.Validate(ctx, acc.AccessToken, clientToken)
	if err != nil {
		logging.Warn("Legacy validate failed, attempting refresh", "uuid", acc.UUID, "error", err.Error())
		valid = false
	}
	if valid {
		return true
	}

	session, err := m.legacy.Refresh(ctx, acc.AccessToken, clientToken)
	if err != nil {
		logging.Warn("Legacy refresh failed", "uuid", acc.UUID, "error", err.Error())
		return false
	}
	if _, err := m.store.UpdateLegacyAccount(acc.UUID, session.AccessToken); err != nil {
		logging.Error("Failed to update legacy account", "uuid", acc.UUID, "error", err.Error())
		return false
	}
	return m.persistValidated(acc.UUID)
}

func (m *Manager) validateFederated(ctx context.Context, acc *accounts.Account) bool {
	if acc.Federated == nil {
		logging.Error("Federated account has no provider session", "uuid", acc.UUID)
		return false
	}
	ms := acc.Federated

	now := nowMillis(m.now)
	path := DecideRefresh(now, acc.GameExpiresAt, ms.ExpiresAt)
	logging.Debug("Federated validation", "uuid", acc.UUID, "refresh", path.String())

	switch path {
	case RefreshNone:
		return true

	case RefreshGame:
		res, err := m.federated.ExchangeChain(ctx, ms.AccessToken, ModeGameRefresh)
		if err != nil {
			logging.Warn("Game token refresh failed", "uuid", acc.UUID, "error", err.Error())
			return false
		}
		_, err = m.store.UpdateFederatedAccount(acc.UUID,
			res.GameToken.AccessToken,
			ms.AccessToken,
			ms.RefreshToken,
			ms.ExpiresAt,
			ComputeExpiry(now, res.GameToken.ExpiresIn))
		if err != nil {
			logging.Error("Failed to update federated account", "uuid", acc.UUID, "error", err.Error())
			return false
		}

	default:
		res, err := m.federated.ExchangeChain(ctx, ms.RefreshToken, ModeMSRefresh)
		if err != nil {
			logging.Warn("Full refresh failed", "uuid", acc.UUID, "error", err.Error())
			return false
		}
		// keep the old refresh token if the provider did not rotate it
		_, err = m.store.UpdateFederatedAccount(acc.UUID,
			res.GameToken.AccessToken,
			res.MSToken.AccessToken,
			util.FirstNonEmpty(res.MSToken.RefreshToken, ms.RefreshToken),
			ComputeExpiry(now, res.MSToken.ExpiresIn),
			ComputeExpiry(now, res.GameToken.ExpiresIn))
		if err != nil {
			logging.Error("Failed to update federated account", "uuid", acc.UUID, "error", err.Error())
			return false
		}
	}

	return m.persistValidated(acc.UUID)
}

func (m *Manager) persistValidated(uuid string) bool {
	if err := m.store.Persist(); err != nil {
		logging.Error("Failed to persist refreshed account", "uuid", uuid, "error", err.Error())
		return false
	}
	logging.Info("Account refreshed", "uuid", uuid)
	return true
}
