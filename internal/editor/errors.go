package editor

import (
	"errors"
	"fmt"
)

// Messages shown to the author. Submit failures are reported one at a time.
const (
	MsgSectionNameRequired    = "Section name is required."
	MsgSubsectionNameRequired = "Subsection name is required."
	MsgSelectTarget           = "Please select a section and subsection first to assign questions."
	MsgLoginRequired          = "You must be logged in to create tests."
	MsgTitleRequired          = "Test title is required."
	MsgDurationInvalid        = "Duration must be a positive number."
	MsgSectionsRequired       = "Please add at least one section to the test."
	MsgQuestionsRequired      = "Please select at least one question for the test."
	MsgNothingAssigned        = "Please assign at least one question to a subsection."

	ConfirmDeleteSection    = "Are you sure you want to delete this section? All subsections and assigned questions will be removed."
	ConfirmDeleteSubsection = "Are you sure you want to delete this subsection? All assigned questions will be removed."
)

var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrSectionNotFound      = errors.New("section not found")
	ErrSubsectionNotFound   = errors.New("subsection not found")
	ErrUnknownField         = errors.New("unknown marking field")
)

// ValidationError carries a message meant for the author as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *ValidationError {
	if len(args) == 0 {
		return &ValidationError{Message: format}
	}
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
