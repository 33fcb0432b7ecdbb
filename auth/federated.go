package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FBakkensen/launcher-auth/debugdump"
	"github.com/FBakkensen/launcher-auth/logging"
	"golang.org/x/oauth2"
)

// Mode selects where the exchange chain starts
type Mode int

const (
	// ModeFull redeems an authorization code
	ModeFull Mode = iota
	// ModeMSRefresh redeems a stored MS refresh token
	ModeMSRefresh
	// ModeGameRefresh skips stage 0 and reuses a stored MS access token
	ModeGameRefresh
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "FULL"
	case ModeMSRefresh:
		return "MS_REFRESH"
	case ModeGameRefresh:
		return "MC_REFRESH"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stage names one step of the exchange chain
type Stage string

const (
	StageMSAccessToken Stage = "ms_access_token"
	StageXBL           Stage = "xbl"
	StageXSTS          Stage = "xsts"
	StageGameToken     Stage = "game_token"
	StageGameProfile   Stage = "game_profile"
)

// ChainResult holds every stage output of a successful exchange.
// MSToken is nil in ModeGameRefresh; MSAccessToken is always set.
type ChainResult struct {
	MSToken       *oauth2.Token
	MSAccessToken string
	XBL           *XboxToken
	XSTS          *XboxToken
	GameToken     *GameToken
	Profile       *GameProfile
}

// FederatedFlow runs the five-stage exchange chain
type FederatedFlow struct {
	client     FederatedClient
	classifier *Classifier

	dumpPath string
	dumpKeep int
}

// NewFederatedFlow creates a flow over client; a nil classifier uses the default catalog
func NewFederatedFlow(client FederatedClient, classifier *Classifier) *FederatedFlow {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &FederatedFlow{client: client, classifier: classifier}
}

// EnableCapture writes a redacted YAML capture of every run next to path, keeping the
// newest keep files.
func (f *FederatedFlow) EnableCapture(path string, keep int) {
	f.dumpPath = debugdump.ResolvePath(path)
	f.dumpKeep = keep
}

// ExchangeChain runs the stages in order and stops at the first failure. entry is an
// authorization code (ModeFull), an MS refresh token (ModeMSRefresh) or an MS access
// token (ModeGameRefresh).
func (f *FederatedFlow) ExchangeChain(ctx context.Context, entry string, mode Mode) (res *ChainResult, err error) {
	trace := &chainTrace{capture: debugdump.ChainCapture{
		Version:    debugdump.CaptureVersion,
		CapturedAt: debugdump.Now(),
		Mode:       mode.String(),
	}}
	defer func() { f.writeCapture(trace, err) }()
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Exchange chain panicked", "mode", mode.String(), "panic", fmt.Sprint(r))
			res, err = nil, f.classifier.Federated(FederatedUnknown)
		}
	}()

	logging.Debug("Starting exchange chain", "mode", mode.String())
	res = &ChainResult{}

	switch mode {
	case ModeFull, ModeMSRefresh:
		start := time.Now()
		tok, err := f.client.GetAccessToken(ctx, entry, mode == ModeMSRefresh)
		if err = f.check(trace, StageMSAccessToken, start, tok == nil, err, tokenOf(tok)); err != nil {
			return nil, err
		}
		res.MSToken = tok
		res.MSAccessToken = tok.AccessToken
	case ModeGameRefresh:
		res.MSAccessToken = entry
	default:
		return nil, f.check(trace, StageMSAccessToken, time.Now(), false, fmt.Errorf("unsupported mode %s", mode), "")
	}

	start := time.Now()
	xbl, err := f.client.GetXBLToken(ctx, res.MSAccessToken)
	if err = f.check(trace, StageXBL, start, xbl == nil, err, xboxTokenOf(xbl)); err != nil {
		return nil, err
	}
	res.XBL = xbl

	start = time.Now()
	xsts, err := f.client.GetXSTSToken(ctx, xbl)
	if err = f.check(trace, StageXSTS, start, xsts == nil, err, xboxTokenOf(xsts)); err != nil {
		return nil, err
	}
	res.XSTS = xsts

	start = time.Now()
	game, err := f.client.GetGameAccessToken(ctx, xsts)
	if err = f.check(trace, StageGameToken, start, game == nil, err, gameTokenOf(game)); err != nil {
		return nil, err
	}
	res.GameToken = game
	logGameTokenClaims(game.AccessToken, game.ExpiresIn)

	start = time.Now()
	profile, err := f.client.GetGameProfile(ctx, game.AccessToken)
	if err = f.check(trace, StageGameProfile, start, profile == nil, err, ""); err != nil {
		return nil, err
	}
	res.Profile = profile

	logging.Info("Exchange chain completed", "mode", mode.String(), "profile", profile.Name)
	return res, nil
}

// check records the stage and converts a failure into a displayable error. A nil
// payload without an error counts as a failure too.
func (f *FederatedFlow) check(trace *chainTrace, stage Stage, start time.Time, missing bool, err error, token string) error {
	rec := debugdump.StageRecord{
		Stage:      string(stage),
		StartedAt:  start.UTC().Format(time.RFC3339Nano),
		DurationMs: time.Since(start).Milliseconds(),
		Outcome:    debugdump.OutcomeOK,
	}

	if err == nil && !missing {
		rec.Token = debugdump.RedactToken(token)
		trace.add(rec)
		logging.Debug("Exchange stage completed", "stage", string(stage))
		return nil
	}
	if err == nil {
		err = errUnexpectedResponse
	}
	rec.Outcome = debugdump.OutcomeFailed
	rec.Error = err.Error()
	trace.add(rec)

	var de *DisplayableError
	if errors.As(err, &de) {
		return de
	}

	code := FederatedUnknown
	var pe *FederatedProviderError
	if errors.As(err, &pe) {
		code = pe.Code
	}
	display := f.classifier.Federated(code)
	logging.Error("Exchange stage failed", "stage", string(stage), "slot", string(display.Slot), "error", err.Error())
	return display
}

func (f *FederatedFlow) writeCapture(trace *chainTrace, err error) {
	if f.dumpPath == "" {
		return
	}
	if slot, ok := SlotOf(err); ok {
		trace.capture.Slot = string(slot)
	}
	if werr := debugdump.WriteCaptureRotating(f.dumpPath, f.dumpKeep, trace.capture); werr != nil {
		logging.Warn("Failed to write exchange chain capture", "path", f.dumpPath, "error", werr.Error())
	}
}

// chainTrace collects stage records for one run
type chainTrace struct {
	capture debugdump.ChainCapture
}

func (t *chainTrace) add(r debugdump.StageRecord) {
	t.capture.Stages = append(t.capture.Stages, r)
}

func tokenOf(t *oauth2.Token) string {
	if t == nil {
		return ""
	}
	return t.AccessToken
}

func xboxTokenOf(t *XboxToken) string {
	if t == nil {
		return ""
	}
	return t.Token
}

func gameTokenOf(t *GameToken) string {
	if t == nil {
		return ""
	}
	return t.AccessToken
}
