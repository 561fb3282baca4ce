// Package sessionstore provides the durable backends behind session.Store.
// Each backend keeps the whole session under one storage key.
package sessionstore

import (
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

// Persister is a session.Persister holding a resource that must be released.
type Persister interface {
	session.Persister
	Close() error
}

// Open returns the persister selected by conf.Driver.
func Open(conf core.SessionConfig) (Persister, error) {
	switch conf.Driver {
	case core.SessionDriverFile, "":
		return NewFilePersister(conf.Dir, conf.StorageKey)
	case core.SessionDriverRedis:
		return NewRedisPersister(conf.RedisURL, conf.StorageKey)
	case core.SessionDriverMemory:
		return NewMemoryPersister(), nil
	default:
		return nil, errors.Errorf("unknown session driver %q", conf.Driver)
	}
}
