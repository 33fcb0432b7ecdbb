package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/FBakkensen/launcher-auth/accounts"
	"golang.org/x/oauth2"
)

// accountTokenSource hands out the game access token of one account, validating
// (and refreshing) the account on every call.
type accountTokenSource struct {
	ctx  context.Context
	m    *Manager
	uuid string
}

// TokenSource returns an oauth2.TokenSource over the stored account uuid. Tokens are
// reused until their recorded expiry; legacy tokens carry no expiry and are validated once.
func (m *Manager) TokenSource(ctx context.Context, uuid string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &accountTokenSource{ctx: ctx, m: m, uuid: uuid})
}

func (s *accountTokenSource) Token() (*oauth2.Token, error) {
	acc, err := s.m.store.GetAccount(s.uuid)
	if err != nil {
		return nil, err
	}
	if acc.Kind == accounts.KindCracked {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, s.uuid)
	}

	if !s.m.validate(s.ctx, acc) {
		return nil, fmt.Errorf("%w: %s", ErrReauthenticationRequired, s.uuid)
	}

	// re-read, validation may have refreshed the record
	acc, err = s.m.store.GetAccount(s.uuid)
	if err != nil {
		return nil, err
	}

	if acc.Kind == accounts.KindLegacy {
		return &oauth2.Token{AccessToken: acc.AccessToken, TokenType: "Bearer"}, nil
	}
	return &oauth2.Token{
		AccessToken: acc.GameAccessToken,
		TokenType:   "Bearer",
		Expiry:      time.UnixMilli(acc.GameExpiresAt),
	}, nil
}
