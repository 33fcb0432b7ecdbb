package accounts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/FBakkensen/launcher-auth/logging"
)

// Store is the account aggregate: every account, the single selection and the
// shared legacy client token. All getters hand out copies.
type Store struct {
	mu          sync.RWMutex
	accounts    map[string]*Account
	order       []string // insertion order, drives listing and reselection
	selected    string
	clientToken string
	persister   Persister
}

// NewStore creates an empty store flushing to p. A nil persister keeps everything in memory.
func NewStore(p Persister) *Store {
	if p == nil {
		p = NewMemoryPersister()
	}
	return &Store{
		accounts:  make(map[string]*Account),
		persister: p,
	}
}

// Load replaces the in-memory state with the persisted snapshot. A missing snapshot
// leaves the store empty.
func (s *Store) Load() error {
	snap, err := s.persister.Load()
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			logging.Info("No persisted accounts found; starting empty")
			return nil
		}
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string]*Account, len(snap.Accounts))
	s.order = s.order[:0]
	for i := range snap.Accounts {
		acc := snap.Accounts[i]
		if acc.UUID == "" {
			continue
		}
		if _, dup := s.accounts[acc.UUID]; !dup {
			s.order = append(s.order, acc.UUID)
		}
		s.accounts[acc.UUID] = acc.Clone()
	}
	s.clientToken = snap.ClientToken
	s.selected = ""
	if _, ok := s.accounts[snap.SelectedAccount]; ok {
		s.selected = snap.SelectedAccount
	}
	logging.Info("Accounts loaded", "count", fmt.Sprintf("%d", len(s.accounts)), "selected", s.selected)
	return nil
}

// put stores acc, replacing any record with the same uuid. Caller holds the write lock.
func (s *Store) put(acc *Account) *Account {
	if _, exists := s.accounts[acc.UUID]; !exists {
		s.order = append(s.order, acc.UUID)
	}
	s.accounts[acc.UUID] = acc
	return acc.Clone()
}

// AddLegacyAccount stores a legacy-provider account
func (s *Store) AddLegacyAccount(uuid, accessToken, username, displayName string) (*Account, error) {
	if uuid == "" {
		return nil, fmt.Errorf("legacy account requires a uuid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(&Account{
		UUID:        uuid,
		DisplayName: displayName,
		Username:    username,
		Kind:        KindLegacy,
		AccessToken: accessToken,
	}), nil
}

// AddFederatedAccount stores a federated account together with its provider session
func (s *Store) AddFederatedAccount(uuid, gameAccessToken, displayName string, gameExpiresAt int64, msAccessToken, msRefreshToken string, msExpiresAt int64) (*Account, error) {
	if uuid == "" {
		return nil, fmt.Errorf("federated account requires a uuid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(&Account{
		UUID:            uuid,
		DisplayName:     displayName,
		Username:        displayName,
		Kind:            KindFederated,
		GameAccessToken: gameAccessToken,
		GameExpiresAt:   gameExpiresAt,
		Federated: &FederatedSession{
			AccessToken:  msAccessToken,
			RefreshToken: msRefreshToken,
			ExpiresAt:    msExpiresAt,
		},
	}), nil
}

// AddCrackedAccount stores a token-less offline account keyed by its username
func (s *Store) AddCrackedAccount(username string) (*Account, error) {
	if username == "" {
		return nil, fmt.Errorf("cracked account requires a username")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(&Account{
		UUID:        username,
		DisplayName: username,
		Username:    username,
		Kind:        KindCracked,
		ProfileID:   OfflineProfileID(username).String(),
	}), nil
}

// GetAccount returns a copy of the account stored under uuid
func (s *Store) GetAccount(uuid string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, uuid)
	}
	return acc.Clone(), nil
}

// GetSelectedAccount returns a copy of the selected account
func (s *Store) GetSelectedAccount() (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return nil, ErrNoSelectedAccount
	}
	acc, ok := s.accounts[s.selected]
	if !ok {
		return nil, ErrNoSelectedAccount
	}
	return acc.Clone(), nil
}

// Select makes uuid the selected account, deselecting the previous one
func (s *Store) Select(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[uuid]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, uuid)
	}
	s.selected = uuid
	return nil
}

// SelectedUUID returns the selected uuid or "" when nothing is selected
func (s *Store) SelectedUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// UpdateLegacyAccount replaces the access token of a legacy account
func (s *Store) UpdateLegacyAccount(uuid, accessToken string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.lookupKind(uuid, KindLegacy)
	if err != nil {
		return nil, err
	}
	acc.AccessToken = accessToken
	return acc.Clone(), nil
}

// UpdateFederatedAccount replaces the tokens and expiries of a federated account.
// Identity fields are never touched.
func (s *Store) UpdateFederatedAccount(uuid, gameAccessToken, msAccessToken, msRefreshToken string, msExpiresAt, gameExpiresAt int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.lookupKind(uuid, KindFederated)
	if err != nil {
		return nil, err
	}
	acc.GameAccessToken = gameAccessToken
	acc.GameExpiresAt = gameExpiresAt
	acc.Federated = &FederatedSession{
		AccessToken:  msAccessToken,
		RefreshToken: msRefreshToken,
		ExpiresAt:    msExpiresAt,
	}
	return acc.Clone(), nil
}

func (s *Store) lookupKind(uuid string, kind Kind) (*Account, error) {
	acc, ok := s.accounts[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, uuid)
	}
	if acc.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrWrongKind, uuid, acc.Kind, kind)
	}
	return acc, nil
}

// RemoveAccount deletes uuid and reports whether it existed. Removing the selected
// account selects the earliest remaining one, if any.
func (s *Store) RemoveAccount(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[uuid]; !ok {
		return false
	}
	delete(s.accounts, uuid)
	for i, id := range s.order {
		if id == uuid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.selected == uuid {
		s.selected = ""
		if len(s.order) > 0 {
			s.selected = s.order[0]
		}
	}
	return true
}

// Accounts lists copies of all accounts in insertion order
func (s *Store) Accounts() []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id].Clone())
	}
	return out
}

// GetClientToken returns the shared legacy client token, "" when unassigned
func (s *Store) GetClientToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientToken
}

// SetClientToken assigns the shared legacy client token
func (s *Store) SetClientToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientToken = token
}

// Persist flushes a consistent snapshot to the persister
func (s *Store) Persist() error {
	s.mu.RLock()
	snap := Snapshot{
		ClientToken:     s.clientToken,
		SelectedAccount: s.selected,
		Accounts:        make([]Account, 0, len(s.order)),
	}
	for _, id := range s.order {
		snap.Accounts = append(snap.Accounts, *s.accounts[id].Clone())
	}
	s.mu.RUnlock()

	if err := s.persister.Save(snap); err != nil {
		logging.Error("Failed to persist accounts", "error", err.Error())
		return fmt.Errorf("failed to persist accounts: %w", err)
	}
	logging.Debug("Accounts persisted", "count", fmt.Sprintf("%d", len(snap.Accounts)))
	return nil
}
