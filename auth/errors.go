package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnclassifiedCode is returned by the legacy classifier for a code it does not know.
	ErrUnclassifiedCode = errors.New("unclassified provider error code")
	// ErrInvalidUsername rejects offline account names outside [A-Za-z0-9_]{3,16}
	ErrInvalidUsername = errors.New("invalid username")
	// ErrCrackedDisabled rejects offline accounts while premium mode is on
	ErrCrackedDisabled = errors.New("offline accounts are disabled in premium mode")
	// ErrReauthenticationRequired means the stored credentials could not be refreshed
	ErrReauthenticationRequired = errors.New("re-authentication required")
	// ErrNoCredentials means the account kind carries no token to hand out
	ErrNoCredentials = errors.New("account has no credentials")
	// ErrOAuthNotConfigured means no OAuth2 application was configured on the manager
	ErrOAuthNotConfigured = errors.New("oauth2 is not configured")
	// ErrLoginCancelled means the user dismissed the federated login
	ErrLoginCancelled = errors.New("login cancelled")
	// ErrLoginFailed means the federated login redirect carried no usable code
	ErrLoginFailed = errors.New("login failed")
	// ErrStateMismatch means the redirect state differs from the one sent
	ErrStateMismatch = errors.New("login state mismatch")

	errUnexpectedResponse = errors.New("provider returned no payload")
)

// Slot identifies one displayable error message, independent of its wording.
type Slot string

const (
	SlotLegacyMethodNotAllowed      Slot = "legacy.methodNotAllowed"
	SlotLegacyNotFound              Slot = "legacy.notFound"
	SlotLegacyUserMigrated          Slot = "legacy.userMigrated"
	SlotLegacyInvalidCredentials    Slot = "legacy.invalidCredentials"
	SlotLegacyRateLimit             Slot = "legacy.rateLimit"
	SlotLegacyInvalidToken          Slot = "legacy.invalidToken"
	SlotLegacyAccessTokenHasProfile Slot = "legacy.accessTokenHasProfile"
	SlotLegacyCredentialsMissing    Slot = "legacy.credentialsMissing"
	SlotLegacyInvalidSaltVersion    Slot = "legacy.invalidSaltVersion"
	SlotLegacyUnsupportedMediaType  Slot = "legacy.unsupportedMediaType"
	SlotLegacyGone                  Slot = "legacy.gone"
	SlotLegacyUnreachable           Slot = "legacy.unreachable"
	SlotLegacyNotPaid               Slot = "legacy.notPaid"
	SlotLegacyUnknown               Slot = "legacy.unknown"

	SlotFederatedNoProfile     Slot = "federated.noProfile"
	SlotFederatedNoXboxAccount Slot = "federated.noXboxAccount"
	SlotFederatedXblBanned     Slot = "federated.xblBanned"
	SlotFederatedUnder18       Slot = "federated.under18"
	SlotFederatedUnknown       Slot = "federated.unknown"
)

// DisplayableError is a user-facing failure: a title and description chosen by Slot.
type DisplayableError struct {
	Slot        Slot
	Title       string
	Description string
}

func (e *DisplayableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Description)
}

// Is matches another DisplayableError with the same slot, so callers can write
// errors.Is(err, &DisplayableError{Slot: SlotLegacyNotPaid}).
func (e *DisplayableError) Is(target error) bool {
	t, ok := target.(*DisplayableError)
	return ok && t.Slot == e.Slot
}

// SlotOf extracts the slot of a displayable error anywhere in err's chain
func SlotOf(err error) (Slot, bool) {
	var de *DisplayableError
	if errors.As(err, &de) {
		return de.Slot, true
	}
	return "", false
}

// LegacyErrorCode is a failure reported by the legacy auth server.
// The zero value is not a valid code.
type LegacyErrorCode int

const (
	LegacyMethodNotAllowed LegacyErrorCode = iota + 1
	LegacyNotFound
	LegacyUserMigrated
	LegacyInvalidCredentials
	LegacyRateLimit
	LegacyInvalidToken
	LegacyAccessTokenHasProfile
	LegacyCredentialsMissing
	LegacyInvalidSaltVersion
	LegacyUnsupportedMediaType
	LegacyGone
	LegacyUnreachable
	LegacyNotPaid
	LegacyUnknown
)

// FederatedErrorCode is a failure reported somewhere along the federated exchange chain.
type FederatedErrorCode int

const (
	FederatedNoProfile FederatedErrorCode = iota + 1
	FederatedNoXboxAccount
	FederatedXblBanned
	FederatedUnder18
	FederatedUnknown
)

// LegacyProviderError is how a LegacyClient reports a classified failure
type LegacyProviderError struct {
	Code LegacyErrorCode
	Err  error
}

func (e *LegacyProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("legacy provider error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("legacy provider error %d", e.Code)
}

func (e *LegacyProviderError) Unwrap() error { return e.Err }

// FederatedProviderError is how a FederatedClient reports a classified failure
type FederatedProviderError struct {
	Code FederatedErrorCode
	Err  error
}

func (e *FederatedProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("federated provider error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("federated provider error %d", e.Code)
}

func (e *FederatedProviderError) Unwrap() error { return e.Err }

// Classifier turns provider codes into displayable errors using a message catalog
type Classifier struct {
	catalog Catalog
}

// NewClassifier builds a classifier over c; nil selects DefaultCatalog
func NewClassifier(c Catalog) *Classifier {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Classifier{catalog: c}
}

func (c *Classifier) display(slot Slot) *DisplayableError {
	msg, ok := c.catalog[slot]
	if !ok {
		msg, ok = defaultMessages[slot]
	}
	if !ok {
		msg = Message{Title: string(slot), Description: string(slot)}
	}
	return &DisplayableError{Slot: slot, Title: msg.Title, Description: msg.Description}
}

// Legacy maps a legacy code to its slot. Unknown codes are an error, never a default.
func (c *Classifier) Legacy(code LegacyErrorCode) (*DisplayableError, error) {
	var slot Slot
	switch code {
	case LegacyMethodNotAllowed:
		slot = SlotLegacyMethodNotAllowed
	case LegacyNotFound:
		slot = SlotLegacyNotFound
	case LegacyUserMigrated:
		slot = SlotLegacyUserMigrated
	case LegacyInvalidCredentials:
		slot = SlotLegacyInvalidCredentials
	case LegacyRateLimit:
		slot = SlotLegacyRateLimit
	case LegacyInvalidToken:
		slot = SlotLegacyInvalidToken
	case LegacyAccessTokenHasProfile:
		slot = SlotLegacyAccessTokenHasProfile
	case LegacyCredentialsMissing:
		slot = SlotLegacyCredentialsMissing
	case LegacyInvalidSaltVersion:
		slot = SlotLegacyInvalidSaltVersion
	case LegacyUnsupportedMediaType:
		slot = SlotLegacyUnsupportedMediaType
	case LegacyGone:
		slot = SlotLegacyGone
	case LegacyUnreachable:
		slot = SlotLegacyUnreachable
	case LegacyNotPaid:
		slot = SlotLegacyNotPaid
	case LegacyUnknown:
		slot = SlotLegacyUnknown
	default:
		return nil, fmt.Errorf("%w: legacy code %d", ErrUnclassifiedCode, code)
	}
	return c.display(slot), nil
}

// Federated maps a federated code to its slot; unrecognized codes land on the unknown slot.
func (c *Classifier) Federated(code FederatedErrorCode) *DisplayableError {
	switch code {
	case FederatedNoProfile:
		return c.display(SlotFederatedNoProfile)
	case FederatedNoXboxAccount:
		return c.display(SlotFederatedNoXboxAccount)
	case FederatedXblBanned:
		return c.display(SlotFederatedXblBanned)
	case FederatedUnder18:
		return c.display(SlotFederatedUnder18)
	default:
		return c.display(SlotFederatedUnknown)
	}
}
