package flows

import (
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Request paths served by the auth backend.
const (
	PathCreateUser     = "/auth/firebase/create"
	PathRemoveUser     = "/auth/firebase/remove"
	PathChangePassword = "/auth/firebase/update"
	PathResetPassword  = "/auth/firebase/reset_password"
	PathPasswordLogin  = "/auth/firebase"
	PathFacebookToken  = "/auth/facebook/token"
	PathGoogleToken    = "/auth/google/token"
	PathTwitterReverse = "/auth/twitter/reverse"
	PathTwitterToken   = "/auth/twitter/token"
	PathAnonymousLogin = "/auth/anonymous"
)

// Request field names.
const (
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldOldPassword      = "oldPassword"
	FieldNewPassword      = "newPassword"
	FieldAccessToken      = "access_token"
	FieldOAuthToken       = "oauth_token"
	FieldOAuthTokenSecret = "oauth_token_secret"
	FieldUserID           = "user_id"
)

// Query parameters added to every request.
const (
	ParamNamespace = "firebase"
	ParamPlatform  = "mobile"
	ParamTransport = "transport"
	ParamDebug     = "debug"

	transportJSON = "json"
)

// RequestConfig is the per-engine request context.
type RequestConfig struct {
	APIHost   string
	Namespace string
	Platform  string
	Debug     bool
}

// Request is an outbound credential request.
type Request struct {
	APIHost string
	Path    string
	Query   url.Values
}

// NamespaceFromTarget returns the first host label of target. The host must have at least
// two labels and a non-blank first label.
func NamespaceFromTarget(target string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", oops.Code("INVALID_TARGET").With("target", target).Wrap(err)
	}
	labels := strings.Split(u.Hostname(), ".")
	if len(labels) < 2 || strings.TrimSpace(labels[0]) == "" {
		return "", oops.Code("INVALID_TARGET").With("target", target).Errorf("target has no multi-label host")
	}
	return labels[0], nil
}

// BuildRequest assembles the request for path. Field values are sent as given.
func BuildRequest(path string, fields map[string]string, cfg RequestConfig) Request {
	q := url.Values{}
	q.Set(ParamNamespace, cfg.Namespace)
	q.Set(ParamPlatform, cfg.Platform)
	q.Set(ParamTransport, transportJSON)
	if cfg.Debug {
		q.Set(ParamDebug, "1")
	}
	for k, v := range fields {
		q.Set(k, v)
	}
	return Request{APIHost: cfg.APIHost, Path: path, Query: q}
}

// URL renders the request as "<apiHost><path>?<query>". The path replaces any path on the host.
func (r Request) URL() string {
	u, err := url.Parse(r.APIHost)
	if err != nil {
		return strings.TrimRight(r.APIHost, "/") + r.Path + "?" + r.Query.Encode()
	}
	u.Path = r.Path
	u.RawPath = ""
	u.RawQuery = r.Query.Encode()
	u.Fragment = ""
	return u.String()
}
