package echoportal

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EduardoBullon/SEM16-PC04/core/task"
)

var orderingParam = "ordering"

// Ordering is bound from ?ordering=field,-field. A leading "-" sorts descending.
type Ordering struct {
	Orderings []task.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if task.ValidOrderingField(field) {
			ord.Orderings = append(ord.Orderings, task.Ordering{Field: field, Ascending: !descending})
		}
	}
}
