package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/EduardoBullon/SEM16-PC04/core/session"
)

const redisPingAttempts = 5

// RedisPersister keeps the session as a JSON string under a single redis key.
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister connects to rawURL (redis://[:password@]host:port/db) and waits for the
// server to answer.
func NewRedisPersister(rawURL, key string) (*RedisPersister, error) {
	if key == "" {
		return nil, errors.New("session storage key must not be empty")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisPersister{client: client, key: key}, nil
}

// NewRedisPersisterWithClient wraps an existing client; the caller keeps ownership of it.
func NewRedisPersisterWithClient(client *redis.Client, key string) *RedisPersister {
	return &RedisPersister{client: client, key: key}
}

// ping waits for redis to be ready. Waits 100ms longer between each attempt.
func ping(client *redis.Client) error {
	var err error
	for attempts := 1; attempts <= redisPingAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = client.Ping(ctx).Err()
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "redis ping timeout")
}

func (p *RedisPersister) Load(ctx context.Context) (session.Session, error) {
	var sess session.Session
	value, err := p.client.Get(ctx, p.key).Bytes()
	if err == redis.Nil {
		return sess, nil
	}
	if err != nil {
		return sess, errors.Wrap(err, "reading session from redis")
	}
	if err := json.Unmarshal(value, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (p *RedisPersister) Save(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(p.client.Set(ctx, p.key, data, 0).Err(), "writing session to redis")
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	return errors.Wrap(p.client.Del(ctx, p.key).Err(), "removing session from redis")
}

func (p *RedisPersister) Close() error {
	return p.client.Close()
}
