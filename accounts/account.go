// Package accounts holds the launcher's account records and the store that keeps them.
package accounts

import (
	"crypto/md5" // #nosec G501 -- offline profile ids are defined as name-based MD5 UUIDs
	"errors"

	"github.com/google/uuid"
)

// Kind identifies which provider an account was obtained from
type Kind string

const (
	KindLegacy    Kind = "legacy"
	KindFederated Kind = "federated"
	KindCracked   Kind = "cracked"
)

var (
	// ErrAccountNotFound indicates no account is stored under the requested uuid
	ErrAccountNotFound = errors.New("account not found")
	// ErrNoSelectedAccount indicates no account is currently selected
	ErrNoSelectedAccount = errors.New("no account selected")
	// ErrWrongKind indicates an update targeted an account of another kind
	ErrWrongKind = errors.New("account kind mismatch")
)

// FederatedSession is the identity provider session backing a federated account.
// ExpiresAt is epoch milliseconds.
type FederatedSession struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// Account is a stored launcher account. Which token fields are populated depends on Kind.
type Account struct {
	UUID        string `json:"uuid"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Kind        Kind   `json:"type"`

	// Legacy
	AccessToken string `json:"accessToken,omitempty"`

	// Federated; GameExpiresAt is epoch milliseconds
	GameAccessToken string            `json:"gameAccessToken,omitempty"`
	GameExpiresAt   int64             `json:"gameExpiresAt,omitempty"`
	Federated       *FederatedSession `json:"federated,omitempty"`

	// Cracked
	ProfileID string `json:"profileId,omitempty"`
}

// Clone returns a deep copy so callers never share the stored record.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Federated != nil {
		fs := *a.Federated
		c.Federated = &fs
	}
	return &c
}

// OfflineProfileID returns the name-based (version 3) profile id game servers
// assign to an unauthenticated player name.
func OfflineProfileID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name)) // #nosec G401
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:]) // 16 bytes never fails
	return id
}
