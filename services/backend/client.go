// Package backend is the HTTP client for the task/submission REST API.
//
// Every call goes through Client.Do, which attaches the session credential, bounds the call with
// a fixed timeout and maps non-2xx statuses onto the core error taxonomy. A 401 response ends
// the session: the store is cleared and every OnSessionInvalidated subscriber is told once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/core/task"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
)

// DefaultTimeout bounds every backend call. Timeouts are not retried.
const DefaultTimeout = 10 * time.Second

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 1 << 20
)

// SessionStore is the part of session.Store the client needs.
type SessionStore interface {
	Credential() string
	Set(credential string, identity *session.Identity)
	Logout()
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithValidator(v *core.Validator) Option {
	return func(c *Client) { c.validator = v }
}

type Client struct {
	baseURL   string
	http      *http.Client
	sessions  SessionStore
	logger    core.Logger
	validator *core.Validator

	mu          sync.Mutex
	subscribers map[int]func()
	nextSub     int

	Auth        *AuthService
	Tasks       *TaskService
	Submissions *SubmissionService
	Users       *UserService
	Statistics  *StatisticsService
}

// New returns a client for the API rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, sessions SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        newHTTPClient(),
		sessions:    sessions,
		logger:      core.NopLogger{},
		subscribers: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		c.validator = core.NewValidator(task.RegisterValidators, user.RegisterValidators)
	}

	c.Auth = &AuthService{c}
	c.Tasks = &TaskService{c}
	c.Submissions = &SubmissionService{c}
	c.Users = &UserService{c}
	c.Statistics = &StatisticsService{c}
	return c
}

// newHTTPClient returns a pooled client with its own transport, bounded by DefaultTimeout.
func newHTTPClient() *http.Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	return hc
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Validator() *core.Validator { return c.validator }

// OnSessionInvalidated registers fn to run after a 401 response has cleared the session.
// The returned func unregisters it.
func (c *Client) OnSessionInvalidated(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Client) invalidateSession() {
	c.sessions.Logout()

	c.mu.Lock()
	ids := make([]int, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = c.subscribers[id]
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// request describes one call. token overrides the stored credential when set.
type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	token  string
}

// Do sends a JSON request and decodes a 2xx body into out (nil to discard).
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, request{method: method, path: path, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	endpoint := r.method + " " + r.path
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	c.logger.Debug(fmt.Sprintf("%s -> %d (%s)", endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("backend rejected the session credential", map[string]interface{}{"endpoint": endpoint})
		c.invalidateSession()
		return core.ErrAuthentication
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return statusError(endpoint, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return core.NewNetworkError(endpoint, resp.StatusCode, "invalid response from "+endpoint, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s %s", r.method, r.path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", r.method, r.path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.New().String())

	// read right before dispatch so the latest login or logout applies
	token := r.token
	if token == "" {
		token = c.sessions.Credential()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Status  int               `json:"status"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func statusError(endpoint string, resp *http.Response) error {
	var eb errorBody
	data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return &core.AuthorizationError{Message: msg}
	case http.StatusNotFound:
		if msg == "" {
			msg = "resource not found: " + endpoint
		}
		return &core.NotFoundError{Message: msg}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		flds := make([]core.FieldError, 0, len(eb.Details))
		for field, text := range eb.Details {
			flds = append(flds, core.FieldError{Field: field, Error: text})
		}
		sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
		var err error
		if msg != "" {
			err = errors.New(msg)
		} else if len(flds) == 0 {
			err = errors.New("invalid request to " + endpoint)
		}
		return core.NewValidationError(err, flds...)
	}

	if msg == "" {
		msg = fmt.Sprintf("request to %s failed with status %d", endpoint, resp.StatusCode)
	}
	return core.NewNetworkError(endpoint, resp.StatusCode, msg, nil)
}

func transportError(endpoint string, err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return core.NewTimeoutError(endpoint, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeoutError(endpoint, err)
	}
	return core.NewNetworkError(endpoint, 0, "could not reach "+endpoint, err)
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
