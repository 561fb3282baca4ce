// Package session holds the client-side credential and identity of the current user.
//
// A single Store is built at the composition root and handed to every component that needs
// the session: the backend client, the route guard and the pages. Nothing reaches it through
// a package-level variable.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/role"
)

const persistTimeout = 5 * time.Second

// Identity is the resolved user behind a credential, as returned by GET /users/me.
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"` // as issued; guard decisions compare it literally
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// CanonicalRole is the identity's role with legacy aliases folded.
func (i Identity) CanonicalRole() role.Role {
	return role.Canonicalize(i.Role)
}

func (i Identity) IsProfessor() bool {
	return i.CanonicalRole() == role.Professor
}

// Session is the credential/identity pair. Both are expected to be present or absent together.
type Session struct {
	Credential string    `json:"token,omitempty"`
	Identity   *Identity `json:"user,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Credential != ""
}

// Persister is durable client storage for the session, keyed by a single storage key.
// Load returns a zero Session and no error when nothing was stored.
type Persister interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, sess Session) error
	Clear(ctx context.Context) error
}

// Store is the only owner of the current Session. Reads always observe the latest write;
// there is no cache in front of it.
type Store struct {
	mu        sync.RWMutex
	sess      Session
	persister Persister
	logger    core.Logger
}

// NewStore builds a Store seeded from p, so a restart does not force a new login.
// A load failure is logged and yields an empty session.
func NewStore(p Persister, logger core.Logger) *Store {
	if logger == nil {
		logger = core.NopLogger{}
	}
	s := &Store{persister: p, logger: logger}
	if p != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		sess, err := p.Load(ctx)
		if err != nil {
			logger.Warn("could not restore persisted session", errors.Wrap(err, "loading session"))
		} else {
			s.sess = copySession(sess)
		}
	}
	return s
}

// Credential returns the bearer credential, or "" when absent.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Credential
}

// Identity returns a copy of the current identity, or nil when absent.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess.Identity == nil {
		return nil
	}
	id := *s.sess.Identity
	return &id
}

// Snapshot returns a consistent copy of both fields.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.sess)
}

// Set replaces the session and persists it.
func (s *Store) Set(credential string, identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = copySession(Session{Credential: credential, Identity: identity})
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, s.sess); err != nil {
		s.logger.Error("could not persist session", errors.Wrap(err, "saving session"))
	}
}

// Logout clears both fields unconditionally. Calling it on an empty store is a no-op
// apart from clearing the persisted copy again.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = Session{}
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Error("could not erase persisted session", errors.Wrap(err, "clearing session"))
	}
}

func copySession(sess Session) Session {
	out := Session{Credential: sess.Credential}
	if sess.Identity != nil {
		id := *sess.Identity
		out.Identity = &id
	}
	return out
}

// TokenExpiry reads the exp claim of a JWT credential without verifying its signature.
// It is informational only: the backend stays the sole judge of validity.
func TokenExpiry(credential string) (time.Time, bool) {
	if credential == "" {
		return time.Time{}, false
	}
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(credential, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0).UTC(), true
}
