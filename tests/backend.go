package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/submission"
	"github.com/EduardoBullon/SEM16-PC04/core/task"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
)

const (
	backendSecret  = "test-secret"
	claimsKey      = "userToken"
	tokenLifetime  = 24 * time.Hour
	apiPrefix      = "/api"
	requestIDKey   = "X-Request-ID"
	authHeaderName = "Authorization"
)

// Claims are the JWT claims issued by the fake backend.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role,omitempty"`
}

// RecordedRequest is one request as the backend saw it.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type failure struct {
	status  int
	message string
	details map[string]string
}

type account struct {
	user     user.User
	password string
}

// Backend is an in-memory stand-in for the task REST API, served by httptest.
type Backend struct {
	t      *testing.T
	server *httptest.Server
	jwt    middleware.JWTConfig
	valid  *core.Validator

	mu          sync.Mutex
	lastID      int64
	accounts    map[string]*account
	tasks       map[int64]task.Task
	submissions map[int64]submission.Submission
	failures    map[string][]failure
	delays      map[string]time.Duration
	requests    []RecordedRequest
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		t: t,
		jwt: middleware.JWTConfig{
			SigningKey:    []byte(backendSecret),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    claimsKey,
			Claims:        new(Claims),
		},
		valid:       core.NewValidator(task.RegisterValidators, user.RegisterValidators),
		accounts:    make(map[string]*account),
		tasks:       make(map[int64]task.Task),
		submissions: make(map[int64]submission.Submission),
		failures:    make(map[string][]failure),
		delays:      make(map[string]time.Duration),
	}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API base URL, ready for backend.New.
func (b *Backend) URL() string { return b.server.URL + apiPrefix }

func (b *Backend) router() *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.HTTPErrorHandler = backendErrorHandler
	app.Pre(middleware.RemoveTrailingSlash())
	app.Use(b.record, b.inject)

	api := app.Group(apiPrefix)
	api.POST("/auth/login", b.login)
	api.POST("/auth/verify", b.verify)

	auth := api.Group("", middleware.JWTWithConfig(b.jwt))
	auth.GET("/users/me", b.me)
	auth.GET("/users", b.listUsers)
	auth.GET("/users/:id", b.getUser)

	auth.GET("/tasks", b.listTasks)
	auth.GET("/tasks/status/:status", b.listTasks)
	auth.GET("/tasks/:id", b.getTask)
	auth.POST("/tasks", b.saveTask, requireRole("PROFESSOR", "ADMIN"))
	auth.PUT("/tasks/:id", b.saveTask, requireRole("PROFESSOR", "ADMIN"))
	auth.DELETE("/tasks/:id", b.deleteTask, requireRole("PROFESSOR", "ADMIN"))

	auth.GET("/submissions", b.listSubmissions)
	auth.GET("/submissions/task/:id", b.listSubmissions)
	auth.GET("/submissions/:id", b.getSubmission)
	auth.POST("/submissions", b.createSubmission)
	auth.PUT("/submissions/:id/grade", b.gradeSubmission, requireRole("PROFESSOR", "ADMIN"))

	auth.GET("/statistics", b.statistics)
	return app
}

// AddUser registers an account. ID is assigned when zero.
func (b *Backend) AddUser(usr user.User, password string) user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if usr.ID == 0 {
		b.lastID++
		usr.ID = b.lastID
	}
	usr.Active = true
	b.accounts[usr.Username] = &account{user: usr, password: password}
	return usr
}

// AddTask stores t as is, assigning an ID when zero.
func (b *Backend) AddTask(t task.Task) task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.ID == 0 {
		b.lastID++
		t.ID = b.lastID
	}
	b.tasks[t.ID] = t
	return t
}

func (b *Backend) Task(id int64) (task.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	return t, ok
}

func (b *Backend) Submission(id int64) (submission.Submission, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.submissions[id]
	return s, ok
}

// Token issues a valid credential for usr.
func (b *Backend) Token(usr user.User) string {
	b.t.Helper()
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.Username,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
		Role: usr.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.jwt.SigningKey)
	if err != nil {
		b.t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// Fail makes the next request to "METHOD /path" (path below /api) answer with status.
func (b *Backend) Fail(route string, status int, message string, details ...map[string]string) {
	f := failure{status: status, message: message}
	if len(details) > 0 {
		f.details = details[0]
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], f)
}

// Delay holds every request to route for d before answering.
func (b *Backend) Delay(route string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[route] = d
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() RecordedRequest {
	reqs := b.Requests()
	if len(reqs) == 0 {
		b.t.Fatal("LastRequest(): no request received")
	}
	return reqs[len(reqs)-1]
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        req.Method,
			Path:          strings.TrimPrefix(req.URL.Path, apiPrefix),
			Authorization: req.Header.Get(authHeaderName),
			RequestID:     req.Header.Get(requestIDKey),
		})
		b.mu.Unlock()
		return next(ctx)
	}
}

func (b *Backend) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		route := req.Method + " " + strings.TrimPrefix(req.URL.Path, apiPrefix)

		b.mu.Lock()
		delay := b.delays[route]
		var f *failure
		if queue := b.failures[route]; len(queue) > 0 {
			f = &queue[0]
			b.failures[route] = queue[1:]
		}
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return nil
			}
		}
		if f != nil {
			return errorResponse(ctx, f.status, f.message, f.details)
		}
		return next(ctx)
	}
}

func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims := contextClaims(ctx)
			for _, r := range roles {
				if claims != nil && claims.Role == r {
					return next(ctx)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Acceso denegado")
		}
	}
}

func contextClaims(ctx echo.Context) *Claims {
	if token, ok := ctx.Get(claimsKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims
		}
	}
	return nil
}

func (b *Backend) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return err
	}
	b.mu.Lock()
	acc, ok := b.accounts[creds.Username]
	b.mu.Unlock()
	if !ok || acc.password != creds.Password {
		return echo.NewHTTPError(http.StatusUnauthorized, "Credenciales inválidas")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"token":     b.Token(acc.user),
		"message":   "Autenticación exitosa",
		"type":      "Bearer",
		"expiresIn": tokenLifetime.Milliseconds(),
	})
}

func (b *Backend) verify(ctx echo.Context) error {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(ctx.QueryParam("token"), claims, func(*jwt.Token) (interface{}, error) {
		return b.jwt.SigningKey, nil
	})
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, false)
	}
	return ctx.JSON(http.StatusOK, true)
}

func (b *Backend) me(ctx echo.Context) error {
	claims := contextClaims(ctx)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}
	b.mu.Lock()
	acc, ok := b.accounts[claims.Subject]
	b.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado")
	}
	return ctx.JSON(http.StatusOK, acc.user)
}

func (b *Backend) listUsers(ctx echo.Context) error {
	b.mu.Lock()
	users := make([]user.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		users = append(users, acc.user)
	}
	b.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return ctx.JSON(http.StatusOK, users)
}

func (b *Backend) getUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == id {
			return ctx.JSON(http.StatusOK, acc.user)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Usuario no encontrado con id: %d", id))
}

func (b *Backend) listTasks(ctx echo.Context) error {
	status := task.Status(ctx.Param("status"))
	b.mu.Lock()
	tasks := make([]task.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if status == "" || t.Status == status {
			tasks = append(tasks, t)
		}
	}
	b.mu.Unlock()
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return ctx.JSON(http.StatusOK, tasks)
}

func (b *Backend) getTask(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	t, ok := b.Task(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Tarea no encontrada con id: %d", id))
	}
	return ctx.JSON(http.StatusOK, t)
}

func (b *Backend) saveTask(ctx echo.Context) error {
	var nt task.NewTask
	if err := ctx.Bind(&nt); err != nil {
		return err
	}
	if err := nt.Validate(b.valid); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC()
	t := task.Task{
		Title:           nt.Title,
		Description:     nt.Description,
		PublicationDate: nt.PublicationDate,
		DueDate:         nt.DueDate,
		Status:          nt.Status,
		MaxGrade:        *nt.MaxGrade,
		UpdatedAt:       now,
	}
	code := http.StatusCreated
	if ctx.Request().Method == http.MethodPut {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		orig, ok := b.tasks[id]
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Tarea no encontrada con id: %d", id))
		}
		t.ID, t.CreatedAt, code = id, orig.CreatedAt, http.StatusOK
	} else {
		b.lastID++
		t.ID, t.CreatedAt = b.lastID, now
	}
	b.tasks[t.ID] = t
	return ctx.JSON(code, t)
}

func (b *Backend) deleteTask(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tasks[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Tarea no encontrada con id: %d", id))
	}
	delete(b.tasks, id)
	return ctx.NoContent(http.StatusNoContent)
}

func (b *Backend) listSubmissions(ctx echo.Context) error {
	var taskID int64
	if ctx.Param("id") != "" {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		taskID = id
	}
	b.mu.Lock()
	subs := make([]submission.Submission, 0, len(b.submissions))
	for _, s := range b.submissions {
		if taskID == 0 || s.TaskID == taskID {
			subs = append(subs, s)
		}
	}
	b.mu.Unlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return ctx.JSON(http.StatusOK, subs)
}

func (b *Backend) getSubmission(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	s, ok := b.Submission(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Entrega no encontrada con id: %d", id))
	}
	return ctx.JSON(http.StatusOK, s)
}

func (b *Backend) createSubmission(ctx echo.Context) error {
	var ns submission.NewSubmission
	if err := ctx.Bind(&ns); err != nil {
		return err
	}
	if err := ns.Validate(b.valid); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tasks[ns.TaskID]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Tarea no encontrada con id: %d", ns.TaskID))
	}
	b.lastID++
	s := submission.Submission{
		ID:             b.lastID,
		TaskID:         ns.TaskID,
		UserID:         ns.UserID,
		SubmissionDate: ns.SubmissionDate,
		Status:         ns.Status,
		Comments:       ns.Comments,
		FileURL:        ns.FileURL,
		FileName:       ns.FileName,
		FileSize:       ns.FileSize,
		CreatedAt:      time.Now().UTC(),
	}
	b.submissions[s.ID] = s
	return ctx.JSON(http.StatusCreated, s)
}

func (b *Backend) gradeSubmission(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var gs submission.GradeSubmission
	if err := ctx.Bind(&gs); err != nil {
		return err
	}
	if err := gs.Validate(b.valid); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.submissions[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Entrega no encontrada con id: %d", id))
	}
	s.Grade = gs.Grade
	s.Comments = gs.Feedback
	s.Status = submission.StatusGraded
	s.UpdatedAt = time.Now().UTC()
	b.submissions[id] = s
	return ctx.JSON(http.StatusOK, s)
}

func (b *Backend) statistics(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ctx.JSON(http.StatusOK, echo.Map{
		"totalUsers":       len(b.accounts),
		"totalTasks":       len(b.tasks),
		"totalSubmissions": len(b.submissions),
	})
}

func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func errorResponse(ctx echo.Context, status int, message string, details map[string]string) error {
	return ctx.JSON(status, echo.Map{
		"timestamp": time.Now().UTC(),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"details":   details,
	})
}

// backendErrorHandler renders errors with the backend's error envelope.
func backendErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var details map[string]string

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		code = origErr.Code
		if origErr == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
		}
		message = fmt.Sprint(origErr.Message)
	case *core.ValidationError:
		code = http.StatusBadRequest
		message = "Error de validación"
		details = make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			details[fErr.Field] = fErr.Error
		}
	}

	if !ctx.Response().Committed {
		if err := errorResponse(ctx, code, message, details); err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
