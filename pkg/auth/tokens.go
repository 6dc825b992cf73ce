package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// StoreTokenSource serves the ID token of the session held in a store. It
// needs no provider, so commands that only call the fragments service can
// authorize without discovery.
type StoreTokenSource struct {
	Store SessionStore

	// Now defaults to time.Now.
	Now func() time.Time
}

// Token implements oauth2.TokenSource.
func (s *StoreTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.Store.Get()
	if err != nil {
		return nil, WrapError(CodeStoreFailed, "failed to read session", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if !session.Valid(now()) {
		return nil, ErrNoSession
	}
	return sessionToken(session)
}

func sessionToken(s *Session) (*oauth2.Token, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	return &oauth2.Token{
		AccessToken: s.IDToken,
		TokenType:   "Bearer",
		Expiry:      s.Expiry,
	}, nil
}
