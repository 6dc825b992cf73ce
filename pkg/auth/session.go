package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated state held after a successful sign-in.
type Session struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IDToken     string    `json:"idToken"`
	AccessToken string    `json:"accessToken,omitempty"`
	Expiry      time.Time `json:"-"`
}

// Valid reports whether the session carries an ID token that has not expired
// at now. A session without a known expiry is not valid.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.IDToken == "" || s.Expiry.IsZero() {
		return false
	}
	return now.Before(s.Expiry)
}

// User returns the public view of the session.
func (s *Session) User() *User {
	if s == nil {
		return nil
	}
	return &User{
		Username:    s.Username,
		Email:       s.Email,
		IDToken:     s.IDToken,
		AccessToken: s.AccessToken,
	}
}

// User describes the signed-in user.
type User struct {
	Username    string `json:"username" yaml:"username"`
	Email       string `json:"email" yaml:"email"`
	IDToken     string `json:"-" yaml:"-"`
	AccessToken string `json:"-" yaml:"-"`
}

// idTokenClaims are the ID token claims mapped onto a Session.
type idTokenClaims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	CognitoUsername   string `json:"cognito:username"`
	PreferredUsername string `json:"preferred_username"`
}

func (c idTokenClaims) username() string {
	switch {
	case c.CognitoUsername != "":
		return c.CognitoUsername
	case c.PreferredUsername != "":
		return c.PreferredUsername
	default:
		return c.Subject
	}
}

// ExpiryFromIDToken reads the exp claim of a raw ID token without verifying
// its signature. It is used to restore a persisted session, whose token was
// verified when it was first issued.
func ExpiryFromIDToken(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("id token has no exp claim")
	}
	return exp.Time, nil
}
