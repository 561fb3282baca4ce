package echoportal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/role"
	"github.com/EduardoBullon/SEM16-PC04/core/submission"
	"github.com/EduardoBullon/SEM16-PC04/core/task"
)

type taskApi struct {
	s *server
}

func registerTaskRoutes(app *echo.Echo, s *server, authed, teacher echo.MiddlewareFunc) {
	api := taskApi{s: s}

	tg := app.Group("/tasks")
	tg.GET("", api.list, authed)
	tg.GET("/new", api.newForm, teacher)
	tg.POST("/new", api.create, teacher)
	tg.GET("/edit/:id", api.editForm, teacher)
	tg.PUT("/edit/:id", api.update, teacher)
	tg.GET("/:id", api.detail, authed)
}

type taskView struct {
	task.Task
	Overdue bool `json:"overdue"`
}

func newTaskView(t task.Task) taskView {
	return taskView{Task: t, Overdue: t.Overdue(time.Now())}
}

func paramID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// list remembers the filter it was given until the next one, or until the session ends.
// The ordering applies to this response only.
func (api *taskApi) list(ctx echo.Context) error {
	var qf task.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errHttpBadRequest
	}
	if qf.IsEmpty() {
		qf = api.s.nav.Filter()
	} else {
		api.s.nav.SetFilter(qf)
	}

	var ord Ordering
	ord.Bind(ctx)

	tasks, err := api.s.deps.Backend.Tasks.Query(ctx.Request().Context(), qf)
	if err != nil {
		return err
	}
	task.Sort(tasks, ord.Orderings)
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(t)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"page": "tasks", "filter": qf, "tasks": views})
}

func (api *taskApi) newForm(ctx echo.Context) error {
	now := time.Now().UTC().Truncate(time.Minute)
	max := task.DefaultMaxGrade
	return ctx.JSON(http.StatusOK, echo.Map{
		"page": "task-form",
		"task": task.NewTask{
			PublicationDate: now,
			DueDate:         now.Add(7 * 24 * time.Hour),
			Status:          task.StatusActive,
			MaxGrade:        &max,
		},
	})
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	t, err := api.s.deps.Backend.Tasks.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	api.s.deps.Notifications.ShowSuccess("task created")
	return ctx.JSON(http.StatusCreated, newTaskView(*t))
}

func (api *taskApi) editForm(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	t, err := api.s.deps.Backend.Tasks.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"page": "task-form", "task": newTaskView(*t)})
}

func (api *taskApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	t, err := api.s.deps.Backend.Tasks.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	api.s.deps.Notifications.ShowSuccess("task updated")
	return ctx.JSON(http.StatusOK, newTaskView(*t))
}

// detail shows a task with its submissions. Students only see their own.
func (api *taskApi) detail(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	t, err := api.s.deps.Backend.Tasks.Get(rctx, id)
	if err != nil {
		return err
	}
	subs, err := api.s.deps.Backend.Submissions.ByTask(rctx, id)
	if err != nil {
		return err
	}

	identity := api.s.deps.Sessions.Identity()
	if identity != nil && identity.CanonicalRole() == role.Student {
		own := subs[:0]
		for _, sub := range subs {
			if sub.UserID == identity.ID {
				own = append(own, sub)
			}
		}
		subs = own
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"page": "task", "task": newTaskView(*t), "submissions": subs})
}
