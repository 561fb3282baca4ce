package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
	"github.com/EduardoBullon/SEM16-PC04/tests"
)

var (
	professor = user.User{Username: "ana", Email: "ana@tecsup.edu", FirstName: "Ana", LastName: "Pérez", Role: "PROFESSOR"}
	student   = user.User{Username: "luis", Email: "luis@tecsup.edu", FirstName: "Luis", LastName: "Rojas", Role: "STUDENT"}
)

func setup(t *testing.T) (*testutil.Backend, *session.Store, *Client) {
	t.Helper()
	fake := testutil.NewBackend(t)
	store := session.NewStore(nil, nil)
	return fake, store, New(fake.URL(), store)
}

func TestBearerHeader(t *testing.T) {
	fake, store, client := setup(t)
	ctx := context.Background()

	store.Set("abc", &session.Identity{ID: 1, Username: "ana", Role: "PROFESSOR"})
	_, _ = client.Tasks.List(ctx)
	assert.Equal(t, "Bearer abc", fake.LastRequest().Authorization)

	store.Logout()
	_, _ = client.Tasks.List(ctx)
	assert.Equal(t, "", fake.LastRequest().Authorization)
}

func TestRequestID(t *testing.T) {
	fake, _, client := setup(t)
	ctx := context.Background()

	_, _ = client.Tasks.List(ctx)
	_, _ = client.Tasks.List(ctx)
	reqs := fake.Requests()
	require.Len(t, reqs, 2)

	for _, r := range reqs {
		_, err := uuid.Parse(r.RequestID)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	fake, store, client := setup(t)
	usr := fake.AddUser(professor, "secret")
	store.Set(fake.Token(usr), usr.Identity())

	var navigations int
	client.OnSessionInvalidated(func() { navigations++ })

	fake.Fail("GET /tasks", http.StatusUnauthorized, "Token expirado")
	_, err := client.Tasks.List(context.Background())

	assert.Equal(t, core.ErrAuthentication, err)
	assert.True(t, core.IsAuthentication(err))
	assert.Equal(t, "", store.Credential())
	assert.Nil(t, store.Identity())
	assert.Equal(t, 1, navigations)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	_, store, client := setup(t)

	var navigations int
	unsubscribe := client.OnSessionInvalidated(func() { navigations++ })

	_, err := client.Users.Me(context.Background())
	assert.True(t, core.IsAuthentication(err))
	assert.Equal(t, 1, navigations)
	assert.False(t, store.Snapshot().Authenticated())

	unsubscribe()
	_, err = client.Users.Me(context.Background())
	assert.True(t, core.IsAuthentication(err))
	assert.Equal(t, 1, navigations)
}

func TestStatusMapping(t *testing.T) {
	fake, store, client := setup(t)
	usr := fake.AddUser(student, "secret")
	token := fake.Token(usr)
	ctx := context.Background()

	tests := []struct {
		name   string
		status int
		msg    string
		check  func(t *testing.T, err error)
	}{
		{
			name: "forbidden", status: http.StatusForbidden, msg: "Acceso denegado",
			check: func(t *testing.T, err error) {
				aErr, ok := err.(*core.AuthorizationError)
				require.True(t, ok, "got %T", err)
				assert.Equal(t, "Acceso denegado", aErr.Message)
			},
		},
		{
			name: "not found", status: http.StatusNotFound, msg: "Tarea no encontrada con id: 9",
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsNotFound(err))
				assert.EqualError(t, err, "Tarea no encontrada con id: 9")
			},
		},
		{
			name: "bad request", status: http.StatusBadRequest, msg: "Error de validación",
			check: func(t *testing.T, err error) {
				_, ok := err.(*core.ValidationError)
				require.True(t, ok, "got %T", err)
				assert.EqualError(t, err, "Error de validación")
			},
		},
		{
			name: "conflict", status: http.StatusConflict, msg: "Ya existe",
			check: func(t *testing.T, err error) {
				nErr, ok := err.(*core.NetworkError)
				require.True(t, ok, "got %T", err)
				assert.Equal(t, http.StatusConflict, nErr.Status)
				assert.Equal(t, "Ya existe", nErr.Message)
				assert.False(t, nErr.Timeout())
			},
		},
		{
			name: "server error without message", status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsNetwork(err))
				assert.EqualError(t, err, "Internal Server Error")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.Set(token, usr.Identity())
			fake.Fail("GET /tasks/9", tt.status, tt.msg)
			_, err := client.Tasks.Get(ctx, 9)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, token, store.Credential(), "only a 401 touches the session")
		})
	}
}

func TestValidationDetails(t *testing.T) {
	fake, _, client := setup(t)
	fake.Fail("GET /tasks", http.StatusUnprocessableEntity, "", map[string]string{"title": "too short", "dueDate": "must be future"})

	_, err := client.Tasks.List(context.Background())
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, []core.FieldError{
		{Field: "dueDate", Error: "must be future"},
		{Field: "title", Error: "too short"},
	}, vErr.Fields)
}

func TestGenericMessageWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, session.NewStore(nil, nil))
	err := client.Do(context.Background(), http.MethodGet, "/statistics", nil, nil)
	assert.EqualError(t, err, "request to GET /statistics failed with status 502")
}

func TestTimeout(t *testing.T) {
	fake, _, _ := setup(t)
	fake.Delay("GET /tasks", time.Second)

	client := New(fake.URL(), session.NewStore(nil, nil), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := client.Tasks.List(context.Background())

	nErr, ok := err.(*core.NetworkError)
	require.True(t, ok, "got %T", err)
	assert.True(t, nErr.Timeout())
	assert.Len(t, fake.Requests(), 1, "timeouts are not retried")
}

func TestDefaultTimeout(t *testing.T) {
	client := New("http://localhost:8080/api/", session.NewStore(nil, nil))
	assert.Equal(t, DefaultTimeout, client.http.Timeout)
	assert.Equal(t, 10*time.Second, client.http.Timeout)
	assert.Equal(t, "http://localhost:8080/api", client.BaseURL())
}

func TestOwnTransport(t *testing.T) {
	a := New("http://localhost:8080/api", session.NewStore(nil, nil))
	b := New("http://localhost:8080/api", session.NewStore(nil, nil))

	require.NotNil(t, a.http.Transport)
	assert.NotSame(t, http.DefaultTransport, a.http.Transport)
	assert.NotSame(t, a.http.Transport, b.http.Transport)

	custom := &http.Client{Timeout: time.Second}
	c := New("http://localhost:8080/api", session.NewStore(nil, nil), WithHTTPClient(custom))
	assert.Same(t, custom, c.http)
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, session.NewStore(nil, nil))
	_, err := client.Tasks.List(context.Background())
	nErr, ok := err.(*core.NetworkError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, 0, nErr.Status)
	assert.False(t, nErr.Timeout())
}

func TestConcurrentUnauthorized(t *testing.T) {
	fake, store, client := setup(t)
	store.Set("abc", &session.Identity{ID: 1, Role: "STUDENT"})

	var (
		mu          sync.Mutex
		navigations int
	)
	client.OnSessionInvalidated(func() {
		mu.Lock()
		navigations++
		mu.Unlock()
	})

	const calls = 5
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		fake.Fail("GET /tasks", http.StatusUnauthorized, "")
	}
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Tasks.List(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, calls, navigations, "one event per 401 response")
	assert.False(t, store.Snapshot().Authenticated())
}
