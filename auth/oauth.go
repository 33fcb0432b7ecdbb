package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/FBakkensen/launcher-auth/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// consumerTenant restricts the Microsoft identity platform to personal accounts
const consumerTenant = "consumers"

// NewOAuth2Config builds the OAuth2 application used for the federated login
func NewOAuth2Config(cfg config.OAuth2Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURL,
		Scopes:      append([]string(nil), cfg.Scopes...),
		Endpoint:    microsoft.AzureADEndpoint(consumerTenant),
	}
}

// LoginURL returns the URL the user opens to start a federated login
func LoginURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// ParseRedirect extracts the authorization code from the redirect the login window
// landed on. expectedState is compared only when non-empty.
func ParseRedirect(rawURL, expectedState string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	q := u.Query()

	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return "", ErrLoginCancelled
		}
		if desc := q.Get("error_description"); desc != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrLoginFailed, e, desc)
		}
		return "", fmt.Errorf("%w: %s", ErrLoginFailed, e)
	}

	if expectedState != "" && q.Get("state") != expectedState {
		return "", ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: redirect has no code", ErrLoginFailed)
	}
	return code, nil
}
