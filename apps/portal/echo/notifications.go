package echoportal

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/EduardoBullon/SEM16-PC04/core/notify"
)

type notificationView struct {
	ID       uint64          `json:"id"`
	Message  string          `json:"message"`
	Severity notify.Severity `json:"severity"`
	TTL      int64           `json:"ttl"` // milliseconds, 0 = sticky
}

// registerNotificationRoutes exposes the notification queue read-only; dismissal goes through
// the Center so timers stay owned by it.
func registerNotificationRoutes(app *echo.Echo, notes *notify.Center) {
	app.GET("/notifications", func(ctx echo.Context) error {
		active := notes.Active()
		views := make([]notificationView, len(active))
		for i, n := range active {
			views[i] = notificationView{ID: n.ID, Message: n.Message, Severity: n.Severity, TTL: n.TTL.Milliseconds()}
		}
		return ctx.JSON(http.StatusOK, views)
	})

	app.DELETE("/notifications/:id", func(ctx echo.Context) error {
		id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
		if err != nil {
			return errHttpNotFound
		}
		notes.Remove(id)
		return ctx.NoContent(http.StatusNoContent)
	})
}
