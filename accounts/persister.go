package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/FBakkensen/launcher-auth/logging"
	"github.com/zalando/go-keyring"
)

// ErrNoSnapshot indicates nothing has been persisted yet
var ErrNoSnapshot = errors.New("no persisted accounts found")

const (
	// snapshotKey is a key name in the system keyring, not a credential
	snapshotKey = "accounts" // #nosec G101
	// backupSnapshotKey keeps a second copy against sporadic keyring entry loss
	backupSnapshotKey = "accounts-backup" // #nosec G101
)

// Snapshot is the persisted form of a Store
type Snapshot struct {
	ClientToken     string    `json:"clientToken,omitempty"`
	SelectedAccount string    `json:"selectedAccount,omitempty"`
	Accounts        []Account `json:"accounts"`
}

// Persister saves and restores store snapshots
type Persister interface {
	Save(snap Snapshot) error
	Load() (Snapshot, error)
}

// MemoryPersister keeps the last snapshot in memory
type MemoryPersister struct {
	mu    sync.Mutex
	snap  *Snapshot
	saves int
	// FailWith, when set, is returned by Save
	FailWith error
}

// NewMemoryPersister creates an empty in-memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Save implements Persister
func (p *MemoryPersister) Save(snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	cp := snap
	cp.Accounts = make([]Account, len(snap.Accounts))
	for i := range snap.Accounts {
		cp.Accounts[i] = *snap.Accounts[i].Clone()
	}
	p.snap = &cp
	p.saves++
	return nil
}

// Load implements Persister
func (p *MemoryPersister) Load() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *p.snap, nil
}

// Saves reports how many snapshots were written successfully
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// KeyringPersister stores the snapshot as JSON in the OS credential manager
type KeyringPersister struct {
	service string
}

// NewKeyringPersister creates a persister under the given keyring service name.
// LAUNCHER_AUTH_KEYRING_NAMESPACE appends a suffix so tests and dev builds stay isolated.
func NewKeyringPersister(service string) *KeyringPersister {
	if strings.TrimSpace(service) == "" {
		service = "launcher-auth"
	}
	if ns := strings.TrimSpace(os.Getenv("LAUNCHER_AUTH_KEYRING_NAMESPACE")); ns != "" {
		service = service + "-" + ns
	}
	return &KeyringPersister{service: service}
}

// EntryInfo returns the effective keyring service and key. Exported for diagnostics only.
func (p *KeyringPersister) EntryInfo() (service, key string) {
	return p.service, snapshotKey
}

// Save implements Persister, writing the primary entry and then a best-effort backup
func (p *KeyringPersister) Save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := keyring.Set(p.service, snapshotKey, string(data)); err != nil {
		logging.Error("Failed to store accounts in keyring", "error", err.Error())
		return fmt.Errorf("failed to store accounts in keyring: %w", err)
	}
	if err := keyring.Set(p.service, backupSnapshotKey, string(data)); err != nil {
		logging.Warn("Failed to store backup accounts entry in keyring", "error", err.Error())
	}
	return nil
}

// Load implements Persister. A missing primary entry falls back to the backup and
// restores the primary from it.
func (p *KeyringPersister) Load() (Snapshot, error) {
	raw, err := keyring.Get(p.service, snapshotKey)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			return Snapshot{}, fmt.Errorf("failed to read accounts from keyring: %w", err)
		}
		logging.Info("No primary accounts entry in keyring; attempting backup")
		backup, bErr := keyring.Get(p.service, backupSnapshotKey)
		if bErr != nil {
			if errors.Is(bErr, keyring.ErrNotFound) {
				return Snapshot{}, ErrNoSnapshot
			}
			return Snapshot{}, fmt.Errorf("failed to read backup accounts from keyring: %w", bErr)
		}
		if setErr := keyring.Set(p.service, snapshotKey, backup); setErr != nil {
			logging.Warn("Failed to restore primary accounts entry from backup", "error", setErr.Error())
		} else {
			logging.Info("Restored primary accounts entry from backup")
		}
		raw = backup
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode accounts from keyring: %w", err)
	}
	return snap, nil
}

// Clear removes both keyring entries; missing entries are not an error
func (p *KeyringPersister) Clear() error {
	var firstErr error
	for _, key := range []string{snapshotKey, backupSnapshotKey} {
		if err := keyring.Delete(p.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			logging.Warn("Failed to delete keyring entry", "key", key, "error", err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("failed to clear one or more keyring entries: %w", firstErr)
	}
	return nil
}
