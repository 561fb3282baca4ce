package sessionstore

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

// FilePersister keeps the session as JSON in <dir>/<key>.json, readable by the owner only.
type FilePersister struct {
	path string
}

func NewFilePersister(dir, key string) (*FilePersister, error) {
	if key == "" {
		return nil, errors.New("session storage key must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "creating session dir %s", dir)
	}
	return &FilePersister{path: filepath.Join(dir, key+".json")}, nil
}

func (p *FilePersister) Path() string { return p.path }

func (p *FilePersister) Load(context.Context) (session.Session, error) {
	var sess session.Session
	data, err := ioutil.ReadFile(p.path)
	if os.IsNotExist(err) {
		return sess, nil
	}
	if err != nil {
		return sess, errors.Wrap(err, "reading session file")
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session file")
	}
	return sess, nil
}

// Save replaces the file atomically so a crash never leaves a half written session.
func (p *FilePersister) Save(_ context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	tmp, err := ioutil.TempFile(filepath.Dir(p.path), ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp session file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "securing session file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing session file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p.path), "replacing session file")
}

func (p *FilePersister) Clear(context.Context) error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}

func (p *FilePersister) Close() error { return nil }
