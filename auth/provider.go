package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// GameProfile is the game identity owned by an account
type GameProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LegacySession is a successful legacy authenticate or refresh response.
// SelectedProfile is nil when the account owns no game license.
type LegacySession struct {
	AccessToken       string
	ClientToken       string
	SelectedProfile   *GameProfile
	AvailableProfiles []GameProfile
}

// XboxToken is an Xbox-network token (XBL or XSTS) and the user hash it was issued for
type XboxToken struct {
	Token    string
	UserHash string
	NotAfter time.Time
}

// GameToken is the game service access token; ExpiresIn is seconds
type GameToken struct {
	AccessToken string
	ExpiresIn   int64
	Username    string
}

// LegacyClient performs the legacy auth server calls. Classified failures are
// returned as *LegacyProviderError.
type LegacyClient interface {
	Authenticate(ctx context.Context, username, password, clientToken string) (*LegacySession, error)
	Validate(ctx context.Context, accessToken, clientToken string) (bool, error)
	Refresh(ctx context.Context, accessToken, clientToken string) (*LegacySession, error)
	Invalidate(ctx context.Context, accessToken, clientToken string) error
}

// FederatedClient performs one call per exchange-chain stage. Classified failures are
// returned as *FederatedProviderError.
type FederatedClient interface {
	// GetAccessToken redeems an authorization code, or a refresh token when refresh is set.
	GetAccessToken(ctx context.Context, code string, refresh bool) (*oauth2.Token, error)
	GetXBLToken(ctx context.Context, msAccessToken string) (*XboxToken, error)
	GetXSTSToken(ctx context.Context, xbl *XboxToken) (*XboxToken, error)
	GetGameAccessToken(ctx context.Context, xsts *XboxToken) (*GameToken, error)
	GetGameProfile(ctx context.Context, gameAccessToken string) (*GameProfile, error)
}

// IdentityProviderClient is the transport for both providers
type IdentityProviderClient interface {
	LegacyClient
	FederatedClient
}
