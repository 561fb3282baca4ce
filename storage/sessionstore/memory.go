package sessionstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

// MemoryPersister keeps the encoded session in process memory. Used in TEST mode.
type MemoryPersister struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryPersister() *MemoryPersister {
	return new(MemoryPersister)
}

func (p *MemoryPersister) Load(context.Context) (session.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var sess session.Session
	if p.data == nil {
		return sess, nil
	}
	err := json.Unmarshal(p.data, &sess)
	return sess, errors.Wrap(err, "decoding session")
}

func (p *MemoryPersister) Save(_ context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = data
	return nil
}

func (p *MemoryPersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	return nil
}

func (p *MemoryPersister) Close() error { return nil }
