package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	stored  Session
	saves   int
	clears  int
	loadErr error
	saveErr error
}

func (p *recordingPersister) Load(context.Context) (Session, error) {
	return p.stored, p.loadErr
}

func (p *recordingPersister) Save(_ context.Context, sess Session) error {
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.stored = sess
	return nil
}

func (p *recordingPersister) Clear(context.Context) error {
	p.clears++
	p.stored = Session{}
	return nil
}

var ana = &Identity{ID: 7, Username: "ana", Role: "PROFESSOR", Email: "ana@tecsup.test"}

func TestStoreSetAndRead(t *testing.T) {
	p := new(recordingPersister)
	s := NewStore(p, nil)

	assert.Equal(t, "", s.Credential())
	assert.Nil(t, s.Identity())

	s.Set("abc", ana)
	assert.Equal(t, "abc", s.Credential())
	require.NotNil(t, s.Identity())
	assert.Equal(t, "ana", s.Identity().Username)
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, "abc", p.stored.Credential)

	// the last write wins, no caching
	s.Set("def", &Identity{ID: 8, Username: "luis", Role: "STUDENT"})
	assert.Equal(t, "def", s.Credential())
	assert.Equal(t, "luis", s.Identity().Username)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore(nil, nil)
	id := *ana
	s.Set("abc", &id)

	id.Username = "mutated"
	got := s.Identity()
	got.Role = "ADMIN"

	assert.Equal(t, "ana", s.Identity().Username)
	assert.Equal(t, "PROFESSOR", s.Identity().Role)
}

func TestStoreLogoutIsIdempotent(t *testing.T) {
	p := new(recordingPersister)
	s := NewStore(p, nil)
	s.Set("abc", ana)

	s.Logout()
	s.Logout()

	assert.Equal(t, "", s.Credential())
	assert.Nil(t, s.Identity())
	assert.False(t, s.Snapshot().Authenticated())
	assert.Equal(t, 2, p.clears)
	assert.Equal(t, Session{}, p.stored)
}

func TestStoreRestoresPersistedSession(t *testing.T) {
	p := &recordingPersister{stored: Session{Credential: "persisted", Identity: ana}}
	s := NewStore(p, nil)

	assert.Equal(t, "persisted", s.Credential())
	assert.Equal(t, ana.Email, s.Identity().Email)
}

func TestStorePersistenceFailuresDoNotBlock(t *testing.T) {
	p := &recordingPersister{loadErr: errors.New("disk gone"), saveErr: errors.New("disk gone")}
	s := NewStore(p, nil)
	assert.False(t, s.Snapshot().Authenticated())

	s.Set("abc", ana)
	assert.Equal(t, "abc", s.Credential())
}

func TestIdentityCanonicalRole(t *testing.T) {
	assert.True(t, Identity{Role: "professor"}.IsProfessor())
	assert.True(t, Identity{Role: "TEACHER"}.IsProfessor())
	assert.False(t, Identity{Role: "STUDENT"}.IsProfessor())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: exp.Unix(), Subject: "ana"})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("not-a-jwt")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}
