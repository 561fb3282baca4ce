package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/task"
)

type TaskService struct {
	c *Client
}

func (s *TaskService) List(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	return tasks, s.c.Do(ctx, http.MethodGet, "/tasks", nil, &tasks)
}

// Query lists tasks through the first filter that is set.
func (s *TaskService) Query(ctx context.Context, qf task.QueryFilter) ([]task.Task, error) {
	qf.Clean()
	switch {
	case qf.Status != "":
		return s.ByStatus(ctx, qf.Status)
	case qf.UserID != 0:
		return s.ByUser(ctx, qf.UserID)
	case qf.Category != "":
		return s.ByCategory(ctx, qf.Category)
	}
	return s.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id int64) (*task.Task, error) {
	var t task.Task
	if err := s.c.Do(ctx, http.MethodGet, idPath("/tasks", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create validates nt locally; nothing is sent when it is invalid.
func (s *TaskService) Create(ctx context.Context, nt task.NewTask) (*task.Task, error) {
	if err := nt.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var t task.Task
	if err := s.c.Do(ctx, http.MethodPost, "/tasks", nt, &t); err != nil {
		return nil, errors.Wrap(err, "creating task")
	}
	return &t, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, nt task.NewTask) (*task.Task, error) {
	if err := nt.Validate(s.c.validator); err != nil {
		return nil, err
	}
	var t task.Task
	if err := s.c.Do(ctx, http.MethodPut, idPath("/tasks", id), nt, &t); err != nil {
		return nil, errors.Wrap(err, "updating task")
	}
	return &t, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, idPath("/tasks", id), nil, nil)
}

func (s *TaskService) ByStatus(ctx context.Context, status task.Status) ([]task.Task, error) {
	var tasks []task.Task
	return tasks, s.c.Do(ctx, http.MethodGet, "/tasks/status/"+url.PathEscape(string(status)), nil, &tasks)
}

func (s *TaskService) ByUser(ctx context.Context, userID int64) ([]task.Task, error) {
	var tasks []task.Task
	return tasks, s.c.Do(ctx, http.MethodGet, idPath("/tasks/user", userID), nil, &tasks)
}

func (s *TaskService) ByCategory(ctx context.Context, category string) ([]task.Task, error) {
	var tasks []task.Task
	return tasks, s.c.Do(ctx, http.MethodGet, "/tasks/category/"+url.PathEscape(category), nil, &tasks)
}
