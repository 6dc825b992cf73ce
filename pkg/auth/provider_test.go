package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "fragments-ui"
	testRedirectURL = "http://localhost:1234"
	testKeyID       = "test-key"
)

// fakeProvider is a minimal OIDC provider serving discovery, keys and a
// token endpoint.
type fakeProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	mu            sync.Mutex
	grants        map[string]jwt.MapClaims
	verifiers     []string
	tokenRequests int
	discoveries   int
	failDiscovery int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{
		key:    key,
		grants: make(map[string]jwt.MapClaims),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("/.well-known/jwks.json", p.jwks)
	mux.HandleFunc("/oauth2/token", p.token)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	return p
}

func (p *fakeProvider) issuer() string {
	return p.server.URL
}

// grant registers an authorization code that yields an ID token with the
// default claims merged with overrides.
func (p *fakeProvider) grant(code string, overrides jwt.MapClaims) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":              p.issuer(),
		"aud":              testClientID,
		"sub":              "0f9c2a4e-user",
		"email":            "alice@example.com",
		"cognito:username": "alice",
		"iat":              now.Unix(),
		"exp":              now.Add(time.Hour).Unix(),
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants[code] = claims
}

func (p *fakeProvider) sign(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(p.key)
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *fakeProvider) discovery(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.discoveries++
	fail := p.discoveries <= p.failDiscovery
	p.mu.Unlock()

	if fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                p.issuer(),
		"authorization_endpoint":                p.issuer() + "/oauth2/authorize",
		"token_endpoint":                        p.issuer() + "/oauth2/token",
		"jwks_uri":                              p.issuer() + "/.well-known/jwks.json",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (p *fakeProvider) jwks(w http.ResponseWriter, r *http.Request) {
	pub := p.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	p.mu.Lock()
	p.tokenRequests++
	p.verifiers = append(p.verifiers, r.PostForm.Get("code_verifier"))
	claims, ok := p.grants[r.PostForm.Get("code")]
	delete(p.grants, r.PostForm.Get("code"))
	p.mu.Unlock()

	if !ok || r.PostForm.Get("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "access-" + r.PostForm.Get("code"),
		"id_token":     p.sign(claims),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (p *fakeProvider) requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

func (p *fakeProvider) discoveryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.discoveries
}

func (p *fakeProvider) lastVerifier() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.verifiers) == 0 {
		return ""
	}
	return p.verifiers[len(p.verifiers)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// testClock is an adjustable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNavigator keeps every URL it is asked to open.
type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(u string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, u)
	return nil
}

func (n *recordingNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.urls) == 0 {
		return ""
	}
	return n.urls[len(n.urls)-1]
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.urls)
}

// s256 computes the PKCE S256 challenge for verifier.
func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// callbackURL builds the redirect the provider would send for code and state.
func callbackURL(code, state string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)
	return testRedirectURL + "/?" + q.Encode()
}
