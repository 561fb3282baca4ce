package echoportal

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/submission"
)

type submissionApi struct {
	s *server
}

func registerSubmissionRoutes(app *echo.Echo, s *server, authed, teacher echo.MiddlewareFunc) {
	api := submissionApi{s: s}

	app.POST("/tasks/:id/submissions", api.create, authed)
	app.PUT("/submissions/:id/grade", api.grade, teacher)
}

// create hands in work for the task in the path on behalf of the current user.
func (api *submissionApi) create(ctx echo.Context) error {
	taskID, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.TaskID = taskID
	if identity := api.s.deps.Sessions.Identity(); identity != nil {
		data.UserID = identity.ID
	}

	sub, err := api.s.deps.Backend.Submissions.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	api.s.deps.Notifications.ShowSuccess("submission received")
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	sub, err := api.s.deps.Backend.Submissions.Grade(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	msg := "submission graded"
	if sub.Grade != nil {
		msg = fmt.Sprintf("submission graded %g/%g", *sub.Grade, submission.MaxGrade)
	}
	api.s.deps.Notifications.ShowSuccess(msg)
	return ctx.JSON(http.StatusOK, sub)
}
