// Package providerfake is a scripted, call-counting auth.IdentityProviderClient for tests
// and offline runs.
package providerfake

import (
	"context"
	"sync"

	"github.com/FBakkensen/launcher-auth/auth"
	"golang.org/x/oauth2"
)

// Call names one provider method
type Call string

const (
	CallAuthenticate  Call = "authenticate"
	CallValidate      Call = "validate"
	CallRefresh       Call = "refresh"
	CallInvalidate    Call = "invalidate"
	CallMSAccessToken Call = "ms_access_token"
	CallXBLToken      Call = "xbl"
	CallXSTSToken     Call = "xsts"
	CallGameToken     Call = "game_token"
	CallGameProfile   Call = "game_profile"
)

// AccessTokenRequest records the arguments of the last GetAccessToken call
type AccessTokenRequest struct {
	Code    string
	Refresh bool
}

// Provider returns the scripted payload or error for each call. Change the exported
// fields only while no call is in flight.
type Provider struct {
	mu    sync.Mutex
	calls map[Call]int

	Session         *auth.LegacySession
	AuthenticateErr error
	Valid           bool
	ValidateErr     error
	Refreshed       *auth.LegacySession
	RefreshErr      error
	InvalidateErr   error

	MSToken    *oauth2.Token
	MSTokenErr error
	XBL        *auth.XboxToken
	XBLErr     error
	XSTS       *auth.XboxToken
	XSTSErr    error
	Game       *auth.GameToken
	GameErr    error
	Profile    *auth.GameProfile
	ProfileErr error

	// PanicOn makes the named call panic
	PanicOn Call

	lastAccessToken AccessTokenRequest
	lastXBLInput    string
}

var _ auth.IdentityProviderClient = (*Provider)(nil)

// New returns a provider whose every call succeeds
func New() *Provider {
	profile := &auth.GameProfile{ID: "0f1e2d3c4b5a69788796a5b4c3d2e1f0", Name: "Alex"}
	return &Provider{
		calls: make(map[Call]int),
		Session: &auth.LegacySession{
			AccessToken:     "legacy-access",
			ClientToken:     "server-client-token",
			SelectedProfile: profile,
		},
		Valid:     true,
		Refreshed: &auth.LegacySession{AccessToken: "legacy-refreshed", SelectedProfile: profile},
		MSToken: &oauth2.Token{
			AccessToken:  "ms-access",
			RefreshToken: "ms-refresh",
			ExpiresIn:    3600,
		},
		XBL:     &auth.XboxToken{Token: "xbl-token", UserHash: "uhs"},
		XSTS:    &auth.XboxToken{Token: "xsts-token", UserHash: "uhs"},
		Game:    &auth.GameToken{AccessToken: "game-access", ExpiresIn: 86400, Username: "Alex"},
		Profile: profile,
	}
}

func (p *Provider) record(c Call) {
	p.mu.Lock()
	p.calls[c]++
	panicking := p.PanicOn == c
	p.mu.Unlock()
	if panicking {
		panic("providerfake: scripted panic in " + string(c))
	}
}

// Calls returns how often c was invoked
func (p *Provider) Calls(c Call) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[c]
}

// TotalCalls returns the number of provider calls of any kind
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.calls {
		n += v
	}
	return n
}

// LastAccessTokenRequest returns the arguments of the last GetAccessToken call
func (p *Provider) LastAccessTokenRequest() AccessTokenRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAccessToken
}

// LastXBLInput returns the MS access token passed to the last GetXBLToken call
func (p *Provider) LastXBLInput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastXBLInput
}

func (p *Provider) Authenticate(_ context.Context, _, _, _ string) (*auth.LegacySession, error) {
	p.record(CallAuthenticate)
	if p.AuthenticateErr != nil {
		return nil, p.AuthenticateErr
	}
	return p.Session, nil
}

func (p *Provider) Validate(_ context.Context, _, _ string) (bool, error) {
	p.record(CallValidate)
	if p.ValidateErr != nil {
		return false, p.ValidateErr
	}
	return p.Valid, nil
}

func (p *Provider) Refresh(_ context.Context, _, _ string) (*auth.LegacySession, error) {
	p.record(CallRefresh)
	if p.RefreshErr != nil {
		return nil, p.RefreshErr
	}
	return p.Refreshed, nil
}

func (p *Provider) Invalidate(_ context.Context, _, _ string) error {
	p.record(CallInvalidate)
	return p.InvalidateErr
}

func (p *Provider) GetAccessToken(_ context.Context, code string, refresh bool) (*oauth2.Token, error) {
	p.record(CallMSAccessToken)
	p.mu.Lock()
	p.lastAccessToken = AccessTokenRequest{Code: code, Refresh: refresh}
	p.mu.Unlock()
	if p.MSTokenErr != nil {
		return nil, p.MSTokenErr
	}
	return p.MSToken, nil
}

func (p *Provider) GetXBLToken(_ context.Context, msAccessToken string) (*auth.XboxToken, error) {
	p.record(CallXBLToken)
	p.mu.Lock()
	p.lastXBLInput = msAccessToken
	p.mu.Unlock()
	if p.XBLErr != nil {
		return nil, p.XBLErr
	}
	return p.XBL, nil
}

func (p *Provider) GetXSTSToken(_ context.Context, _ *auth.XboxToken) (*auth.XboxToken, error) {
	p.record(CallXSTSToken)
	if p.XSTSErr != nil {
		return nil, p.XSTSErr
	}
	return p.XSTS, nil
}

func (p *Provider) GetGameAccessToken(_ context.Context, _ *auth.XboxToken) (*auth.GameToken, error) {
	p.record(CallGameToken)
	if p.GameErr != nil {
		return nil, p.GameErr
	}
	return p.Game, nil
}

func (p *Provider) GetGameProfile(_ context.Context, _ string) (*auth.GameProfile, error) {
	p.record(CallGameProfile)
	if p.ProfileErr != nil {
		return nil, p.ProfileErr
	}
	return p.Profile, nil
}
