package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
)

// Gateway is the slice of the identity provider client the orchestrator
// uses. *authsdk.SDKClient implements it.
type Gateway interface {
	BuildAuthorizeURL(realm string, req authsdk.AuthorizeRequest) string
	BeginAuthorization(ctx context.Context, authorizeURL string) (string, error)
	Authenticate(ctx context.Context, realm string, params authsdk.AuthenticateParams) (*authsdk.AuthenticateResponse, error)
	RefreshGrant(ctx context.Context, realm, clientID, refreshToken string) (*authsdk.TokenResponse, error)
	ExchangeAuthorizationCode(ctx context.Context, realm, clientID, code, redirectURI string) (*authsdk.TokenResponse, error)
	SetupOTP(ctx context.Context, realm, bearer string) (*authsdk.SetupOTPResponse, error)
	VerifyOTP(ctx context.Context, realm, bearer string, req authsdk.VerifyOTPRequest) (*authsdk.MessageResponse, error)
	ChallengeOTP(ctx context.Context, realm, bearer, sessionCode, code string) (*authsdk.ChallengeOTPResponse, error)
	UpdatePassword(ctx context.Context, realm, bearer, password string) (*authsdk.MessageResponse, error)
}

// SessionCodeReader yields the session code of the open authorization
// transaction. *authsdk.CookieStore implements it.
type SessionCodeReader interface {
	ReadSessionCode(ctx context.Context) string
}

var (
	_ Gateway           = (*authsdk.SDKClient)(nil)
	_ SessionCodeReader = (*authsdk.CookieStore)(nil)
)

// DecodeOutcome maps the authenticate response onto the closed outcome set.
// An unknown status, or a status without the fields it promises, is an error.
func DecodeOutcome(resp *authsdk.AuthenticateResponse) (domain.AuthenticationOutcome, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty authenticate response", ErrMalformedResponse)
	}

	switch resp.Status {
	case authsdk.StatusSuccess:
		if resp.URL == "" {
			return nil, fmt.Errorf("%w: success without url", ErrMalformedResponse)
		}
		return domain.Success{URL: resp.URL}, nil

	case authsdk.StatusRequiresActions:
		if len(resp.RequiredActions) == 0 {
			return nil, fmt.Errorf("%w: required actions list is empty", ErrMalformedResponse)
		}
		return domain.RequiresActions{
			Actions: append([]string(nil), resp.RequiredActions...),
			Token:   resp.Token,
		}, nil

	case authsdk.StatusRequiresOtpChallenge:
		return domain.RequiresOtpChallenge{Token: resp.Token}, nil

	case authsdk.StatusFailed:
		return domain.Failed{Message: resp.Message}, nil

	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrMalformedResponse, resp.Status)
	}
}

// InstrumentGateway records the duration of every network call in m.
func InstrumentGateway(gw Gateway, m *Metrics) Gateway {
	if m == nil {
		return gw
	}
	return &instrumentedGateway{next: gw, metrics: m}
}

type instrumentedGateway struct {
	next    Gateway
	metrics *Metrics
}

func (g *instrumentedGateway) BuildAuthorizeURL(realm string, req authsdk.AuthorizeRequest) string {
	return g.next.BuildAuthorizeURL(realm, req)
}

func (g *instrumentedGateway) BeginAuthorization(ctx context.Context, authorizeURL string) (string, error) {
	defer g.metrics.ObserveGateway("authorize", time.Now())
	return g.next.BeginAuthorization(ctx, authorizeURL)
}

func (g *instrumentedGateway) Authenticate(ctx context.Context, realm string, params authsdk.AuthenticateParams) (*authsdk.AuthenticateResponse, error) {
	defer g.metrics.ObserveGateway("authenticate", time.Now())
	return g.next.Authenticate(ctx, realm, params)
}

func (g *instrumentedGateway) RefreshGrant(ctx context.Context, realm, clientID, refreshToken string) (*authsdk.TokenResponse, error) {
	defer g.metrics.ObserveGateway("refresh", time.Now())
	return g.next.RefreshGrant(ctx, realm, clientID, refreshToken)
}

func (g *instrumentedGateway) ExchangeAuthorizationCode(ctx context.Context, realm, clientID, code, redirectURI string) (*authsdk.TokenResponse, error) {
	defer g.metrics.ObserveGateway("exchange_code", time.Now())
	return g.next.ExchangeAuthorizationCode(ctx, realm, clientID, code, redirectURI)
}

func (g *instrumentedGateway) SetupOTP(ctx context.Context, realm, bearer string) (*authsdk.SetupOTPResponse, error) {
	defer g.metrics.ObserveGateway("setup_otp", time.Now())
	return g.next.SetupOTP(ctx, realm, bearer)
}

func (g *instrumentedGateway) VerifyOTP(ctx context.Context, realm, bearer string, req authsdk.VerifyOTPRequest) (*authsdk.MessageResponse, error) {
	defer g.metrics.ObserveGateway("verify_otp", time.Now())
	return g.next.VerifyOTP(ctx, realm, bearer, req)
}

func (g *instrumentedGateway) ChallengeOTP(ctx context.Context, realm, bearer, sessionCode, code string) (*authsdk.ChallengeOTPResponse, error) {
	defer g.metrics.ObserveGateway("challenge_otp", time.Now())
	return g.next.ChallengeOTP(ctx, realm, bearer, sessionCode, code)
}

func (g *instrumentedGateway) UpdatePassword(ctx context.Context, realm, bearer, password string) (*authsdk.MessageResponse, error) {
	defer g.metrics.ObserveGateway("update_password", time.Now())
	return g.next.UpdatePassword(ctx, realm, bearer, password)
}
