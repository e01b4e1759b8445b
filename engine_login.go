package goLogin

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/MrEthical07/goLogin/internal/flows"
)

// LoginAnonymously starts an anonymous session.
func (e *Engine) LoginAnonymously(ctx context.Context, handler AuthHandler) *Pending[*Identity] {
	return e.tokenLogin(ctx, "login_anonymous", ProviderAnonymous, flows.PathAnonymousLogin, map[string]string{}, nil, handler)
}

// LoginWithEmail authenticates an email/password account. An invalid email or blank password
// fails with [KindInvalidEmail] or [KindInvalidPassword] before any request is sent.
func (e *Engine) LoginWithEmail(ctx context.Context, email, password string, handler AuthHandler) *Pending[*Identity] {
	return e.tokenLogin(ctx, "login_password", ProviderPassword, flows.PathPasswordLogin,
		map[string]string{
			flows.FieldEmail:    email,
			flows.FieldPassword: password,
		},
		func() *flows.Failure { return flows.CheckCredentials(email, password) },
		handler)
}

// LoginWithFacebook exchanges a Facebook access token for a session. Both arguments are
// required; the app id is checked but not sent.
func (e *Engine) LoginWithFacebook(ctx context.Context, appID, accessToken string, handler AuthHandler) *Pending[*Identity] {
	return e.tokenLogin(ctx, "login_facebook", ProviderFacebook, flows.PathFacebookToken,
		map[string]string{flows.FieldAccessToken: accessToken},
		func() *flows.Failure { return flows.CheckProviderArgs(appID, accessToken) },
		handler)
}

// LoginWithGoogle exchanges a Google access token for a session.
func (e *Engine) LoginWithGoogle(ctx context.Context, accessToken string, handler AuthHandler) *Pending[*Identity] {
	return e.tokenLogin(ctx, "login_google", ProviderGoogle, flows.PathGoogleToken,
		map[string]string{flows.FieldAccessToken: accessToken},
		func() *flows.Failure { return flows.CheckProviderArgs(accessToken) },
		handler)
}

// LoginWithTwitter exchanges Twitter OAuth credentials for a session. A nil userID counts as
// absent and fails with [KindBadProviderToken].
func (e *Engine) LoginWithTwitter(ctx context.Context, oauthToken, oauthTokenSecret string, userID *int64, handler AuthHandler) *Pending[*Identity] {
	fields := map[string]string{
		flows.FieldOAuthToken:       oauthToken,
		flows.FieldOAuthTokenSecret: oauthTokenSecret,
	}
	if userID != nil {
		fields[flows.FieldUserID] = strconv.FormatInt(*userID, 10)
	}
	return e.tokenLogin(ctx, "login_twitter", ProviderTwitter, flows.PathTwitterToken, fields,
		func() *flows.Failure {
			if userID == nil {
				return &flows.Failure{Kind: flows.FailureBadProviderToken}
			}
			return flows.CheckProviderArgs(oauthToken, oauthTokenSecret)
		},
		handler)
}

// tokenLogin is the shared token/user login for every provider.
func (e *Engine) tokenLogin(
	ctx context.Context,
	name string,
	provider Provider,
	path string,
	fields map[string]string,
	check func() *flows.Failure,
	handler AuthHandler,
) *Pending[*Identity] {
	return runFlow[*Identity](e, ctx, name, handler, func(ctx context.Context, log *slog.Logger) (*Identity, error) {
		log = log.With("provider", provider.String())
		if check != nil {
			if f := check(); f != nil {
				err := failureError(f)
				e.loginFailed(ctx, log, provider, f, err)
				return nil, err
			}
		}
		res := flows.RunTokenLogin(ctx, path, fields, provider == ProviderPassword, e.loginDeps(log))
		return e.finishExchange(ctx, log, provider, res)
	})
}
