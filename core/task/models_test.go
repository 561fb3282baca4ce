package task

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduardoBullon/SEM16-PC04/core"
)

func newValidator() *core.Validator {
	return core.NewValidator(RegisterValidators)
}

func validTask(pub time.Time) NewTask {
	return NewTask{
		Title:           "Essay on Go",
		Description:     "Write two pages about goroutines.",
		PublicationDate: pub,
		DueDate:         pub.Add(7 * 24 * time.Hour),
	}
}

func TestNewTaskDefaults(t *testing.T) {
	nt := validTask(time.Now())
	nt.Title = "  Essay on Go  "

	require.NoError(t, nt.Validate(newValidator()))
	assert.Equal(t, "Essay on Go", nt.Title)
	assert.Equal(t, StatusActive, nt.Status)
	require.NotNil(t, nt.MaxGrade)
	assert.Equal(t, DefaultMaxGrade, *nt.MaxGrade)
}

func TestNewTaskSchedule(t *testing.T) {
	pub := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	v := newValidator()

	tests := []struct {
		name    string
		due     time.Time
		wantErr bool
	}{
		{name: "one millisecond after", due: pub.Add(time.Millisecond)},
		{name: "a week after", due: pub.Add(7 * 24 * time.Hour)},
		{name: "equal", due: pub, wantErr: true},
		{name: "before", due: pub.Add(-time.Hour), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := validTask(pub)
			nt.DueDate = tt.due
			err := nt.Validate(v)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "expected *core.ValidationError, got %T", err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, core.FieldError{Field: "dueDate", Error: dueAfterPubText}, vErr.Fields[0])
		})
	}
}

func TestNewTaskFields(t *testing.T) {
	pub := time.Now()
	grade := func(f float64) *float64 { return &f }
	v := newValidator()

	tests := []struct {
		name   string
		modify func(*NewTask)
		field  string
	}{
		{name: "short title", modify: func(nt *NewTask) { nt.Title = "Go" }, field: "title"},
		{name: "long title", modify: func(nt *NewTask) { nt.Title = strings.Repeat("a", 201) }, field: "title"},
		{name: "blank title", modify: func(nt *NewTask) { nt.Title = "     " }, field: "title"},
		{name: "short description", modify: func(nt *NewTask) { nt.Description = "too short" }, field: "description"},
		{name: "missing publication", modify: func(nt *NewTask) { nt.PublicationDate = time.Time{} }, field: "publicationDate"},
		{name: "missing due date", modify: func(nt *NewTask) { nt.DueDate = time.Time{} }, field: "dueDate"},
		{name: "unknown status", modify: func(nt *NewTask) { nt.Status = "DRAFT" }, field: "status"},
		{name: "max grade above scale", modify: func(nt *NewTask) { nt.MaxGrade = grade(20.5) }, field: "maxGrade"},
		{name: "negative max grade", modify: func(nt *NewTask) { nt.MaxGrade = grade(-1) }, field: "maxGrade"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := validTask(pub)
			tt.modify(&nt)
			err := nt.Validate(v)
			require.Error(t, err)
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.field, vErr.Fields[0].Field)
		})
	}

	nt := validTask(pub)
	nt.Title = strings.Repeat("a", 200)
	nt.MaxGrade = grade(0)
	assert.NoError(t, nt.Validate(v))
}

func TestTaskOverdue(t *testing.T) {
	now := time.Now()
	assert.True(t, Task{DueDate: now.Add(-time.Minute)}.Overdue(now))
	assert.False(t, Task{DueDate: now.Add(time.Minute)}.Overdue(now))
	assert.False(t, Task{}.Overdue(now))
}

func TestQueryFilterIsEmpty(t *testing.T) {
	filter := func(qf QueryFilter) QueryFilter { return qf }

	assert.True(t, filter(QueryFilter{}).IsEmpty())
	assert.False(t, filter(QueryFilter{Status: StatusActive}).IsEmpty())
	assert.False(t, filter(QueryFilter{UserID: 3}).IsEmpty())

	qf := QueryFilter{Category: "   "}
	qf.Clean()
	assert.True(t, qf.IsEmpty())
}
