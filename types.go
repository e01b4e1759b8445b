package goLogin

import (
	"strings"
	"time"

	"github.com/MrEthical07/goLogin/jwt"
	"github.com/MrEthical07/goLogin/session"
	"github.com/samber/oops"
)

const sdkVersion = "1.2.0"

// SDKVersion returns the semantic version of this client.
func SDKVersion() string {
	return sdkVersion
}

// Provider identifies the authentication method that produced a session.
type Provider uint8

const (
	ProviderInvalid Provider = iota
	ProviderPassword
	ProviderAnonymous
	ProviderFacebook
	ProviderGoogle
	ProviderTwitter
)

var providerNames = [...]string{
	ProviderInvalid:   "invalid",
	ProviderPassword:  "password",
	ProviderAnonymous: "anonymous",
	ProviderFacebook:  "facebook",
	ProviderGoogle:    "google",
	ProviderTwitter:   "twitter",
}

// String returns the provider's wire name.
func (p Provider) String() string {
	if int(p) < len(providerNames) {
		return providerNames[p]
	}
	return providerNames[ProviderInvalid]
}

// ParseProvider parses a wire name, ignoring case and surrounding space. Unknown names return
// ProviderInvalid and an error matching [ErrUnknownProvider].
func ParseProvider(s string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p := ProviderPassword; int(p) < len(providerNames); p++ {
		if providerNames[p] == name {
			return p, nil
		}
	}
	return ProviderInvalid, oops.Code("UNKNOWN_PROVIDER").With("provider", s).Wrap(ErrUnknownProvider)
}

func knownProvider(s string) bool {
	_, err := ParseProvider(s)
	return err == nil
}

// Identity is the authenticated user produced by a login flow. It is immutable.
type Identity struct {
	userID     string
	uid        string
	provider   Provider
	authToken  string
	email      string
	hasEmail   bool
	thirdParty map[string]any
}

// UserID returns the identifier unique within the provider.
func (i *Identity) UserID() string { return i.userID }

// UID returns the identifier unique across providers.
func (i *Identity) UID() string { return i.uid }

// Provider returns the provider that authenticated the user.
func (i *Identity) Provider() Provider { return i.provider }

// AuthToken returns the token that authenticated the connection. It is empty for identities
// returned by CreateUser.
func (i *Identity) AuthToken() string { return i.authToken }

// Email returns the email of a password identity.
func (i *Identity) Email() (string, bool) { return i.email, i.hasEmail }

// ThirdPartyData returns a copy of the provider's user object. It is empty for password identities.
func (i *Identity) ThirdPartyData() map[string]any {
	out := session.CloneMap(i.thirdParty)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// ExpiresAt returns the expiry claim of the auth token when the token is a JWT.
func (i *Identity) ExpiresAt() (time.Time, bool) {
	if i.authToken == "" {
		return time.Time{}, false
	}
	return jwt.ExpiresAt(i.authToken)
}

func (i *Identity) String() string {
	return "UserId: " + i.userID + "(" + i.provider.String() + ")"
}

func newPasswordIdentity(userID, uid, token, email string) *Identity {
	return &Identity{
		userID:     userID,
		uid:        uid,
		provider:   ProviderPassword,
		authToken:  token,
		email:      email,
		hasEmail:   true,
		thirdParty: map[string]any{},
	}
}

func newDelegatedIdentity(userID, uid string, provider Provider, token string, data map[string]any) *Identity {
	return &Identity{
		userID:     userID,
		uid:        uid,
		provider:   provider,
		authToken:  token,
		thirdParty: session.CloneMap(data),
	}
}
