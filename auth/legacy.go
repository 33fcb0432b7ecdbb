package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/FBakkensen/launcher-auth/logging"
)

// LegacyFlow wraps the legacy provider calls and converts every failure into a
// DisplayableError.
type LegacyFlow struct {
	client     LegacyClient
	classifier *Classifier
}

// NewLegacyFlow creates a flow over client; a nil classifier uses the default catalog
func NewLegacyFlow(client LegacyClient, classifier *Classifier) *LegacyFlow {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &LegacyFlow{client: client, classifier: classifier}
}

// Authenticate signs in with username and password. An account without a selected
// profile does not own the game and fails with the NotPaid slot.
func (f *LegacyFlow) Authenticate(ctx context.Context, username, password, clientToken string) (session *LegacySession, err error) {
	defer f.recoverUnknown("authenticate", &err)

	logging.Debug("Legacy authenticate", "username", username)
	session, err = f.client.Authenticate(ctx, username, password, clientToken)
	if err != nil {
		return nil, f.classify("authenticate", err)
	}
	if session == nil {
		return nil, f.classify("authenticate", errUnexpectedResponse)
	}
	if session.SelectedProfile == nil {
		logging.Warn("Legacy account has no selected profile", "username", username)
		return nil, f.classify("authenticate", &LegacyProviderError{Code: LegacyNotPaid})
	}
	return session, nil
}

// Validate reports whether accessToken is still accepted by the server
func (f *LegacyFlow) Validate(ctx context.Context, accessToken, clientToken string) (valid bool, err error) {
	defer f.recoverUnknown("validate", &err)

	valid, err = f.client.Validate(ctx, accessToken, clientToken)
	if err != nil {
		return false, f.classify("validate", err)
	}
	return valid, nil
}

// Refresh exchanges accessToken for a new one
func (f *LegacyFlow) Refresh(ctx context.Context, accessToken, clientToken string) (session *LegacySession, err error) {
	defer f.recoverUnknown("refresh", &err)

	session, err = f.client.Refresh(ctx, accessToken, clientToken)
	if err != nil {
		return nil, f.classify("refresh", err)
	}
	if session == nil || session.AccessToken == "" {
		return nil, f.classify("refresh", errUnexpectedResponse)
	}
	return session, nil
}

// Invalidate revokes accessToken on the server
func (f *LegacyFlow) Invalidate(ctx context.Context, accessToken, clientToken string) (err error) {
	defer f.recoverUnknown("invalidate", &err)

	if err = f.client.Invalidate(ctx, accessToken, clientToken); err != nil {
		return f.classify("invalidate", err)
	}
	return nil
}

func (f *LegacyFlow) classify(op string, err error) error {
	var de *DisplayableError
	if errors.As(err, &de) {
		return de
	}

	var pe *LegacyProviderError
	if !errors.As(err, &pe) {
		logging.Error("Legacy call failed", "op", op, "error", err.Error())
		return f.unknown()
	}

	display, cerr := f.classifier.Legacy(pe.Code)
	if cerr != nil {
		logging.Error("Legacy call failed with unclassifiable code", "op", op, "error", cerr.Error())
		return f.unknown()
	}
	logging.Warn("Legacy call failed", "op", op, "slot", string(display.Slot), "error", err.Error())
	return display
}

func (f *LegacyFlow) unknown() *DisplayableError {
	de, _ := f.classifier.Legacy(LegacyUnknown)
	return de
}

func (f *LegacyFlow) recoverUnknown(op string, err *error) {
	if r := recover(); r != nil {
		logging.Error("Legacy call panicked", "op", op, "panic", fmt.Sprint(r))
		*err = f.unknown()
	}
}
