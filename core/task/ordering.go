package task

import (
	"sort"
	"strings"
)

// Ordering sorts a listing by one field. Unknown fields are ignored.
type Ordering struct {
	Field     string
	Ascending bool
}

var orderingFields = map[string]func(a, b Task) int{
	"id":              func(a, b Task) int { return compareInt(a.ID, b.ID) },
	"title":           func(a, b Task) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) },
	"status":          func(a, b Task) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"maxGrade":        func(a, b Task) int { return compareFloat(a.MaxGrade, b.MaxGrade) },
	"publicationDate": func(a, b Task) int { return compareInt(a.PublicationDate.UnixNano(), b.PublicationDate.UnixNano()) },
	"dueDate":         func(a, b Task) int { return compareInt(a.DueDate.UnixNano(), b.DueDate.UnixNano()) },
}

// ValidOrderingField reports whether tasks can be sorted by field.
func ValidOrderingField(field string) bool {
	_, ok := orderingFields[field]
	return ok
}

// Sort orders tasks in place by each ordering in turn; ties keep their backend order.
func Sort(tasks []Task, orderings []Ordering) {
	if len(orderings) == 0 {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, ord := range orderings {
			cmp, ok := orderingFields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(tasks[i], tasks[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
