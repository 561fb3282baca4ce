package task

import (
	"github.com/go-playground/validator/v10"

	"github.com/EduardoBullon/SEM16-PC04/core"
)

var (
	dueAfterPubTag  = "dueafterpub"
	dueAfterPubText = "due date must be after the publication date"
)

// RegisterValidators adds the task rules to v.
func RegisterValidators(v *core.Validator) {
	v.Validate.RegisterStructValidation(taskStructValidation, NewTask{})
	v.RegisterTranslation(dueAfterPubTag, dueAfterPubText)
}

// taskStructValidation checks the scheduling window of a NewTask.
func taskStructValidation(sl validator.StructLevel) {
	nt, ok := sl.Current().Interface().(NewTask)
	if !ok || nt.PublicationDate.IsZero() || nt.DueDate.IsZero() {
		return
	}
	if !nt.DueDate.After(nt.PublicationDate) {
		sl.ReportError(nt.DueDate, "dueDate", "DueDate", dueAfterPubTag, "")
	}
}
