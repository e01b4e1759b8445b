// Package stubbackend is an in-process HTTP stand-in for the hosted auth backend. It serves
// every credential path, keeps accounts in memory and issues session tokens with a
// [jwt.Manager], so a connection.Local built on the same manager accepts them.
package stubbackend

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goLogin/internal/flows"
	"github.com/MrEthical07/goLogin/jwt"
	"github.com/MrEthical07/goLogin/password"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Backend error codes.
const (
	CodeInvalidUser     = "INVALID_USER"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeEmailTaken      = "EMAIL_TAKEN"
	CodeNoAccess        = "NO_ACCESS"
	CodeNoAccount       = "NO_ACCOUNT"
	CodeDisabled        = "AUTHENTICATION_DISABLED"
	CodeInvalidFirebase = "INVALID_FIREBASE"
	CodeBadSystemToken  = "190"
)

// Config configures a [Server].
type Config struct {
	// Namespace is the required value of the "firebase" query parameter.
	Namespace string
	// Tokens issues session tokens. It must hold a signing key.
	Tokens *jwt.Manager
	// Hasher hashes account passwords. Nil uses password.LightConfig.
	Hasher *password.Hasher
	Logger *slog.Logger
}

type account struct {
	id    string
	email string
	hash  string
}

// Server is the stub backend. It implements http.Handler.
type Server struct {
	cfg    Config
	mux    *http.ServeMux
	logger *slog.Logger

	mu        sync.Mutex
	accounts  map[string]*account
	disabled  map[string]bool
	rejected  map[string]string
	failNext  []int
	resets    map[string]int
	lastQuery url.Values
	nextID    int

	requests atomic.Int64
}

// New returns a Server with no accounts.
func New(cfg Config) (*Server, error) {
	if cfg.Namespace == "" {
		return nil, oops.Code("STUB_CONFIG_INVALID").Errorf("namespace required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Code("STUB_CONFIG_INVALID").Errorf("token manager required")
	}
	if cfg.Hasher == nil {
		h, err := password.NewHasher(password.LightConfig())
		if err != nil {
			return nil, err
		}
		cfg.Hasher = h
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		logger:   logger,
		accounts: map[string]*account{},
		disabled: map[string]bool{},
		rejected: map[string]string{},
		resets:   map[string]int{},
	}
	s.mux.HandleFunc("GET "+flows.PathAnonymousLogin, s.handleAnonymous)
	s.mux.HandleFunc("GET "+flows.PathPasswordLogin, s.handlePasswordLogin)
	s.mux.HandleFunc("GET "+flows.PathCreateUser, s.handleCreate)
	s.mux.HandleFunc("GET "+flows.PathRemoveUser, s.handleRemove)
	s.mux.HandleFunc("GET "+flows.PathChangePassword, s.handleChangePassword)
	s.mux.HandleFunc("GET "+flows.PathResetPassword, s.handleReset)
	s.mux.HandleFunc("GET "+flows.PathFacebookToken, s.delegated("facebook", flows.FieldAccessToken))
	s.mux.HandleFunc("GET "+flows.PathGoogleToken, s.delegated("google", flows.FieldAccessToken))
	s.mux.HandleFunc("GET "+flows.PathTwitterToken, s.handleTwitter)
	s.mux.HandleFunc("GET "+flows.PathTwitterReverse, s.handleTwitterReverse)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	q := r.URL.Query()

	s.mu.Lock()
	s.lastQuery = q
	status := 0
	if len(s.failNext) > 0 {
		status = s.failNext[0]
		s.failNext = s.failNext[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		s.logger.Debug("stub injected failure", "path", r.URL.Path, "status", status)
		http.Error(w, http.StatusText(status), status)
		return
	}
	if q.Get(flows.ParamNamespace) != s.cfg.Namespace {
		writeError(w, CodeInvalidFirebase)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// LastQuery returns the query of the most recent request.
func (s *Server) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// FailNext makes the next requests fail with the given HTTP statuses, in order.
func (s *Server) FailNext(statuses ...int) {
	s.mu.Lock()
	s.failNext = append(s.failNext, statuses...)
	s.mu.Unlock()
}

// DisableProvider makes logins through provider fail with AUTHENTICATION_DISABLED.
func (s *Server) DisableProvider(provider string) {
	s.mu.Lock()
	s.disabled[provider] = true
	s.mu.Unlock()
}

// RejectCredential makes delegated logins presenting credential fail with code.
func (s *Server) RejectCredential(credential, code string) {
	s.mu.Lock()
	s.rejected[credential] = code
	s.mu.Unlock()
}

// ResetsSent returns how many password resets were sent to email.
func (s *Server) ResetsSent(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets[strings.ToLower(email)]
}

// AddAccount registers an email/password account directly and returns its id.
func (s *Server) AddAccount(email, pw string) (string, error) {
	hash, err := s.cfg.Hasher.Hash(pw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := s.accounts[key]; ok {
		return "", oops.Code("STUB_EMAIL_TAKEN").With("email", email).Errorf("account exists")
	}
	s.nextID++
	acct := &account{id: strconv.Itoa(s.nextID), email: email, hash: hash}
	s.accounts[key] = acct
	return acct.id, nil
}

func (s *Server) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	if s.isDisabled("anonymous") {
		writeError(w, CodeDisabled)
		return
	}
	id := uuid.NewString()
	s.writeSession(w, map[string]any{
		"id":       id,
		"uid":      "anonymous:" + id,
		"provider": "anonymous",
	})
}

func (s *Server) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	if s.isDisabled("password") {
		writeError(w, CodeDisabled)
		return
	}
	q := r.URL.Query()
	acct, code := s.authenticate(q.Get(flows.FieldEmail), q.Get(flows.FieldPassword))
	if code != "" {
		writeError(w, code)
		return
	}
	s.writeSession(w, passwordUser(acct))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, pw := q.Get(flows.FieldEmail), q.Get(flows.FieldPassword)
	if !flows.ValidEmail(email) {
		writeError(w, CodeInvalidEmail)
		return
	}
	if _, taken := s.lookup(email); taken {
		writeError(w, CodeEmailTaken)
		return
	}
	if _, err := s.AddAccount(email, pw); err != nil {
		s.logger.Debug("stub account create failed", "error", err)
		writeError(w, CodeInvalidPassword)
		return
	}
	acct, _ := s.lookup(email)
	writeJSON(w, map[string]any{"user": passwordUser(acct)})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	acct, code := s.authenticate(q.Get(flows.FieldEmail), q.Get(flows.FieldPassword))
	if code != "" {
		writeError(w, code)
		return
	}
	s.mu.Lock()
	delete(s.accounts, strings.ToLower(acct.email))
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	acct, code := s.authenticate(q.Get(flows.FieldEmail), q.Get(flows.FieldOldPassword))
	if code != "" {
		writeError(w, code)
		return
	}
	hash, err := s.cfg.Hasher.Hash(q.Get(flows.FieldNewPassword))
	if err != nil {
		writeError(w, CodeInvalidPassword)
		return
	}
	s.mu.Lock()
	acct.hash = hash
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(flows.FieldEmail)
	if !flows.ValidEmail(email) {
		writeError(w, CodeInvalidEmail)
		return
	}
	if _, ok := s.lookup(email); !ok {
		writeError(w, CodeInvalidUser)
		return
	}
	s.mu.Lock()
	s.resets[strings.ToLower(email)]++
	s.mu.Unlock()
	writeJSON(w, map[string]any{})
}

func (s *Server) delegated(provider, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := r.URL.Query().Get(field)
		if code := s.checkDelegated(provider, credential); code != "" {
			writeError(w, code)
			return
		}
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(provider+":"+credential)).String()
		s.writeSession(w, map[string]any{
			"id":          id,
			"uid":         provider + ":" + id,
			"provider":    provider,
			"accessToken": credential,
			"displayName": provider + " user",
		})
	}
}

func (s *Server) handleTwitter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get(flows.FieldOAuthToken)
	if code := s.checkDelegated("twitter", token); code != "" {
		writeError(w, code)
		return
	}
	userID := q.Get(flows.FieldUserID)
	numericID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || q.Get(flows.FieldOAuthTokenSecret) == "" {
		writeError(w, CodeBadSystemToken)
		return
	}
	// Twitter ids are JSON numbers on the wire.
	s.writeSession(w, map[string]any{
		"id":                numericID,
		"uid":               "twitter:" + userID,
		"provider":          "twitter",
		"accessToken":       token,
		"accessTokenSecret": q.Get(flows.FieldOAuthTokenSecret),
		"username":          "user" + userID,
	})
}

func (s *Server) handleTwitterReverse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		flows.FieldOAuthToken:       uuid.NewString(),
		flows.FieldOAuthTokenSecret: uuid.NewString(),
	})
}

func (s *Server) checkDelegated(provider, credential string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled[provider] {
		return CodeDisabled
	}
	if credential == "" {
		return CodeNoAccess
	}
	return s.rejected[credential]
}

func (s *Server) isDisabled(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled[provider]
}

func (s *Server) lookup(email string) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(email)]
	return acct, ok
}

// authenticate returns the account or the backend error code.
func (s *Server) authenticate(email, pw string) (*account, string) {
	if !flows.ValidEmail(email) {
		return nil, CodeInvalidEmail
	}
	acct, ok := s.lookup(email)
	if !ok {
		return nil, CodeInvalidUser
	}
	s.mu.Lock()
	hash := acct.hash
	s.mu.Unlock()
	match, err := s.cfg.Hasher.Verify(pw, hash)
	if err != nil || !match {
		return nil, CodeInvalidPassword
	}
	return acct, ""
}

func (s *Server) writeSession(w http.ResponseWriter, user map[string]any) {
	uid, _ := user["uid"].(string)
	provider, _ := user["provider"].(string)
	token, err := s.cfg.Tokens.Issue(uid, provider)
	if err != nil {
		s.logger.Error("stub token issue failed", "error", err)
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"token": token, "user": user})
}

func passwordUser(acct *account) map[string]any {
	return map[string]any{
		"id":       acct.id,
		"uid":      "simplelogin:" + acct.id,
		"email":    acct.email,
		"provider": "password",
	}
}

func writeError(w http.ResponseWriter, code string) {
	writeJSON(w, map[string]any{"error": map[string]any{"code": code, "message": strings.ToLower(strings.ReplaceAll(code, "_", " "))}})
}

func writeJSON(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// NewTokenManager returns an HS256 manager for stub tokens. The same manager verifies them.
func NewTokenManager(secret []byte, ttl time.Duration) (*jwt.Manager, error) {
	return jwt.NewManager(jwt.Config{
		TTL:           ttl,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    secret,
		Issuer:        "gologin-stub",
	})
}
