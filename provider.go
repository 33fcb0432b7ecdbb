package main

import (
	"context"
	"errors"

	"github.com/FBakkensen/launcher-auth/auth"
	"golang.org/x/oauth2"
)

var errProviderUnavailable = errors.New("no identity provider transport is configured")

// unavailableProvider stands in for the HTTP transport, which this binary does not ship.
// Every call fails, so network-bound commands surface the provider's unknown error.
type unavailableProvider struct{}

var _ auth.IdentityProviderClient = unavailableProvider{}

func (unavailableProvider) Authenticate(context.Context, string, string, string) (*auth.LegacySession, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) Validate(context.Context, string, string) (bool, error) {
	return false, errProviderUnavailable
}

func (unavailableProvider) Refresh(context.Context, string, string) (*auth.LegacySession, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) Invalidate(context.Context, string, string) error {
	return errProviderUnavailable
}

func (unavailableProvider) GetAccessToken(context.Context, string, bool) (*oauth2.Token, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) GetXBLToken(context.Context, string) (*auth.XboxToken, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) GetXSTSToken(context.Context, *auth.XboxToken) (*auth.XboxToken, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) GetGameAccessToken(context.Context, *auth.XboxToken) (*auth.GameToken, error) {
	return nil, errProviderUnavailable
}

func (unavailableProvider) GetGameProfile(context.Context, string) (*auth.GameProfile, error) {
	return nil, errProviderUnavailable
}
