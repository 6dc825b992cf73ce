package fragments

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testToken = "test-id-token"

// fakeService is an in-memory fragments service.
type fakeService struct {
	mu        sync.Mutex
	fragments map[string]*storedFragment
	order     []string
	nextID    int
	token     string
	owner     string
}

type storedFragment struct {
	meta Fragment
	data []byte
}

func newFakeService() *fakeService {
	return &fakeService{
		fragments: make(map[string]*storedFragment),
		token:     testToken,
		owner:     "owner-hash",
	}
}

func (s *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.token {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, fragmentsPath)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case rest == "" && r.Method == http.MethodGet:
		s.list(w, r)
	case rest == "" && r.Method == http.MethodPost:
		s.create(w, r)
	case strings.HasSuffix(rest, "/info") && r.Method == http.MethodGet:
		s.info(w, strings.TrimSuffix(strings.TrimPrefix(rest, "/"), "/info"))
	default:
		id := strings.TrimPrefix(rest, "/")
		switch r.Method {
		case http.MethodGet:
			s.get(w, id)
		case http.MethodPut:
			s.update(w, r, id)
		case http.MethodDelete:
			s.delete(w, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *fakeService) list(w http.ResponseWriter, r *http.Request) {
	expand := r.URL.Query().Get("expand") == "1"
	items := make([]any, 0, len(s.order))
	for _, id := range s.order {
		if expand {
			items = append(items, s.fragments[id].meta)
		} else {
			items = append(items, id)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "fragments": items})
}

func (s *fakeService) create(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	s.nextID++
	id := fmt.Sprintf("frag-%d", s.nextID)
	now := time.Now().UTC().Truncate(time.Millisecond)
	frag := &storedFragment{
		meta: Fragment{
			ID:      id,
			OwnerID: s.owner,
			Created: now,
			Updated: now,
			Type:    r.Header.Get("Content-Type"),
			Size:    int64(len(data)),
		},
		data: data,
	}
	s.fragments[id] = frag
	s.order = append(s.order, id)

	w.Header().Set("Location", "/v1/fragments/"+id)
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "fragment": frag.meta})
}

func (s *fakeService) info(w http.ResponseWriter, id string) {
	frag, ok := s.fragments[id]
	if !ok {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "fragment": frag.meta})
}

func (s *fakeService) get(w http.ResponseWriter, id string) {
	frag, ok := s.fragments[id]
	if !ok {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	w.Header().Set("Content-Type", frag.meta.Type)
	w.WriteHeader(http.StatusOK)
	w.Write(frag.data)
}

func (s *fakeService) update(w http.ResponseWriter, r *http.Request, id string) {
	frag, ok := s.fragments[id]
	if !ok {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	ct := r.Header.Get("Content-Type")
	if ct != frag.meta.Type {
		writeError(w, http.StatusBadRequest, "fragment type cannot be changed")
		return
	}
	data, _ := io.ReadAll(r.Body)
	frag.data = data
	frag.meta.Size = int64(len(data))
	frag.meta.Updated = time.Now().UTC().Truncate(time.Millisecond)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "fragment": frag.meta})
}

func (s *fakeService) delete(w http.ResponseWriter, id string) {
	if _, ok := s.fragments[id]; !ok {
		writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	delete(s.fragments, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status": "error",
		"error":  map[string]any{"code": status, "message": message},
	})
}

// countingTransport counts the requests that reach the network.
type countingTransport struct {
	base  http.RoundTripper
	calls atomic.Int64
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return t.base.RoundTrip(req)
}

// errTokenSource never has a token.
type errTokenSource struct{}

func (errTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("not signed in")
}

func staticTokens() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: testToken, TokenType: "Bearer"})
}

// newTestClient starts handler on an httptest server and returns a client
// pointed at it, along with the transport call counter.
func newTestClient(t *testing.T, handler http.Handler, tokens oauth2.TokenSource) (*Client, *countingTransport) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport := &countingTransport{base: http.DefaultTransport}
	client, err := NewClient(
		&Config{BaseURL: server.URL, Concurrency: 3},
		tokens,
		WithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second}),
	)
	require.NoError(t, err)

	return client, transport
}
