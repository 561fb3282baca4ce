package task

import (
	"time"

	"github.com/EduardoBullon/SEM16-PC04/core"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusArchived Status = "ARCHIVED"
)

// DefaultMaxGrade is the top of the grading scale.
const DefaultMaxGrade = 20.0

type Task struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PublicationDate time.Time `json:"publicationDate"`
	DueDate         time.Time `json:"dueDate"`
	Status          Status    `json:"status"`
	MaxGrade        float64   `json:"maxGrade"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// Overdue reports whether the due date has passed at now.
func (t Task) Overdue(now time.Time) bool {
	return !t.DueDate.IsZero() && now.After(t.DueDate)
}

// NewTask is the payload for creating or replacing a Task.
type NewTask struct {
	Title           string    `json:"title" validate:"required,notblank,min=5,max=200"`
	Description     string    `json:"description" validate:"required,notblank,min=10"`
	PublicationDate time.Time `json:"publicationDate" validate:"required"`
	DueDate         time.Time `json:"dueDate" validate:"required"`
	Status          Status    `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
	MaxGrade        *float64  `json:"maxGrade" validate:"omitempty,gte=0,lte=20"`
}

// Validate cleans nt, fills the defaults and checks it. The due date must be strictly after
// the publication date.
func (nt *NewTask) Validate(v *core.Validator) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if nt.Status == "" {
		nt.Status = StatusActive
	}
	if nt.MaxGrade == nil {
		max := DefaultMaxGrade
		nt.MaxGrade = &max
	}
	return v.Struct(nt)
}

// QueryFilter narrows a task listing to one of the backend's filtered collections.
type QueryFilter struct {
	Status   Status `query:"status"`
	UserID   int64  `query:"user"`
	Category string `query:"category"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.UserID == 0 && qf.Category == ""
}
