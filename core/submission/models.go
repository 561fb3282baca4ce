package submission

import (
	"time"

	"github.com/EduardoBullon/SEM16-PC04/core"
)

type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusGraded    Status = "GRADED"
	StatusLate      Status = "LATE"
	StatusPending   Status = "PENDING"
)

// Grading scale bounds, inclusive.
const (
	MinGrade = 0.0
	MaxGrade = 20.0
)

type Submission struct {
	ID             int64     `json:"id"`
	TaskID         int64     `json:"taskId"`
	UserID         int64     `json:"userId"`
	SubmissionDate time.Time `json:"submissionDate"`
	Status         Status    `json:"status"`
	Grade          *float64  `json:"grade,omitempty"`
	Comments       string    `json:"comments,omitempty"`
	FileURL        string    `json:"fileUrl,omitempty"`
	FileName       string    `json:"fileName,omitempty"`
	FileSize       int64     `json:"fileSize,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

func (s Submission) Graded() bool {
	return s.Grade != nil
}

// NewSubmission is the payload for handing in work on a task.
type NewSubmission struct {
	TaskID         int64     `json:"taskId" validate:"required,min=1"`
	UserID         int64     `json:"userId" validate:"required,min=1"`
	SubmissionDate time.Time `json:"submissionDate" validate:"required"`
	Status         Status    `json:"status" validate:"omitempty,oneof=SUBMITTED GRADED LATE PENDING"`
	Comments       string    `json:"comments,omitempty" validate:"max=1000"`
	FileURL        string    `json:"fileUrl,omitempty" validate:"omitempty,url,max=500"`
	FileName       string    `json:"fileName,omitempty" validate:"max=255"`
	FileSize       int64     `json:"fileSize,omitempty" validate:"gte=0"`
}

// Validate cleans ns and fills the defaults: submitted now, status SUBMITTED.
func (ns *NewSubmission) Validate(v *core.Validator) error {
	ns.Comments = core.CleanString(ns.Comments)
	ns.FileURL = core.CleanString(ns.FileURL)
	ns.FileName = core.CleanString(ns.FileName)
	if ns.SubmissionDate.IsZero() {
		ns.SubmissionDate = time.Now().UTC()
	}
	if ns.Status == "" {
		ns.Status = StatusSubmitted
	}
	return v.Struct(ns)
}

// GradeSubmission is the payload of PUT /submissions/{id}/grade.
type GradeSubmission struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=20"`
	Feedback string   `json:"feedback,omitempty" validate:"max=1000"`
}

func (gs *GradeSubmission) Validate(v *core.Validator) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return v.Struct(gs)
}

// NewGrade is a convenience constructor for a GradeSubmission.
func NewGrade(grade float64, feedback string) GradeSubmission {
	return GradeSubmission{Grade: &grade, Feedback: feedback}
}
