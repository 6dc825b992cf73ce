package auth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><title>Fragments</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

type callbackResult struct {
	session *Session
	err     error
}

// CallbackServer receives the provider redirect on the local redirect URL
// and completes the sign-in.
type CallbackServer struct {
	client   *Client
	logger   hclog.Logger
	addr     string
	path     string
	server   *http.Server
	listener net.Listener

	once    sync.Once
	results chan callbackResult

	mu       sync.Mutex
	username string
	failure  string
}

// NewCallbackServer creates a server listening on the host and path of
// redirectURL.
func NewCallbackServer(client *Client, redirectURL string, logger hclog.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, WrapError(CodeConfigInvalid, "invalid redirect_url", err)
	}
	if u.Scheme != "http" {
		return nil, NewError(CodeConfigInvalid, "callback server requires an http redirect_url")
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &CallbackServer{
		client:  client,
		logger:  logger.Named("callback"),
		addr:    addr,
		path:    path,
		results: make(chan callbackResult, 1),
	}

	r := mux.NewRouter()
	r.HandleFunc(path, s.handleCallback).Methods(http.MethodGet)
	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Start begins listening. It returns once the listener is bound.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", "error", err)
		}
	}()

	s.logger.Debug("listening for sign-in callback", "addr", ln.Addr().String(), "path", s.path)
	return nil
}

// Addr returns the bound listen address.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until a sign-in completes or fails, or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (*Session, error) {
	select {
	case r := <-s.results:
		return r.session, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !HasCallbackParams(r.URL.String()) {
		s.renderStatus(w)
		return
	}

	session, err := s.client.CompleteLoginIfPending(r.Context(), r.URL.String())
	s.mu.Lock()
	if err != nil {
		s.failure = err.Error()
	} else if session != nil {
		s.username = session.Username
		s.failure = ""
	}
	s.mu.Unlock()

	s.once.Do(func() {
		s.results <- callbackResult{session: session, err: err}
	})

	if err != nil {
		s.logger.Warn("sign-in failed", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		s.renderPage(w, map[string]string{
			"Title":   "Sign-in failed",
			"Message": err.Error(),
		})
		return
	}

	// Drop the code and state from the address bar.
	http.Redirect(w, r, StripCallbackParams(r.URL.String()), http.StatusSeeOther)
}

func (s *CallbackServer) renderStatus(w http.ResponseWriter) {
	s.mu.Lock()
	username, failure := s.username, s.failure
	s.mu.Unlock()

	data := map[string]string{
		"Title":   "Waiting for sign-in",
		"Message": "Complete sign-in in the identity provider window.",
	}
	switch {
	case failure != "":
		data["Title"] = "Sign-in failed"
		data["Message"] = failure
	case username != "":
		data["Title"] = "Signed in"
		data["Message"] = fmt.Sprintf("Signed in as %s. You can close this window.", username)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.renderPage(w, data)
}

func (s *CallbackServer) renderPage(w http.ResponseWriter, data map[string]string) {
	if err := resultPage.Execute(w, data); err != nil {
		s.logger.Debug("error rendering callback page", "error", err)
	}
}
