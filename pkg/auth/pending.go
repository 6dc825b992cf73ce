package auth

import (
	"sync"
	"time"
)

// pendingLoginTTL bounds how long a started sign-in can be completed.
const pendingLoginTTL = 10 * time.Minute

type pendingLogin struct {
	verifier string
	started  time.Time
}

// pendingLogins maps the state of each started sign-in to its PKCE verifier.
type pendingLogins struct {
	mu     sync.Mutex
	logins map[string]pendingLogin
}

func newPendingLogins() *pendingLogins {
	return &pendingLogins{logins: make(map[string]pendingLogin)}
}

func (p *pendingLogins) add(state, verifier string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for s, l := range p.logins {
		if now.Sub(l.started) > pendingLoginTTL {
			delete(p.logins, s)
		}
	}
	p.logins[state] = pendingLogin{verifier: verifier, started: now}
}

// take removes the login for state and returns its verifier. A state can be
// taken once.
func (p *pendingLogins) take(state string, now time.Time) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.logins[state]
	if !ok {
		return "", false
	}
	delete(p.logins, state)

	if now.Sub(l.started) > pendingLoginTTL {
		return "", false
	}
	return l.verifier, true
}

func (p *pendingLogins) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logins = make(map[string]pendingLogin)
}
