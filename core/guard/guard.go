// Package guard decides, per navigation, whether a protected view renders.
package guard

import (
	"github.com/EduardoBullon/SEM16-PC04/core/role"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Decision is either Allow or a Redirect target. From carries the location the user tried
// to reach when sent to the login page; the login flow does not act on it yet.
type Decision struct {
	Allow    bool
	Redirect string
	From     string
}

// SessionReader is the read side of session.Store.
type SessionReader interface {
	Snapshot() session.Session
}

type Guard struct {
	sessions SessionReader
}

func New(sessions SessionReader) *Guard {
	return &Guard{sessions: sessions}
}

// Evaluate decides access to location. An empty required role admits any authenticated user.
// It never mutates the session.
func (g *Guard) Evaluate(required, location string) Decision {
	return Evaluate(g.sessions.Snapshot(), required, location)
}

// Evaluate is the pure form of Guard.Evaluate over a session snapshot.
func Evaluate(sess session.Session, required, location string) Decision {
	if !sess.Authenticated() {
		return Decision{Redirect: LoginPath, From: location}
	}
	if required == "" {
		return Decision{Allow: true}
	}
	var actual string
	if sess.Identity != nil {
		actual = sess.Identity.Role
	}
	if !role.Decide(required, actual) {
		return Decision{Redirect: UnauthorizedPath}
	}
	return Decision{Allow: true}
}
